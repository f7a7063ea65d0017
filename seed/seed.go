/*
Package seed loads demo data into an empty portal.

PURPOSE:
  Provides a ready-made dataset so that a fresh installation can be logged
  into: the Default work policy, an admin account, one group and one regular
  employee. Applying a dataset is idempotent; records that already exist
  (by group name or email) are left untouched.

DEMO DATASET:
  Default policy  30 vacation days, 8h, flextime, DE-NW, 30 min break, remote
  Engineering     group with the same values spelled out as overrides
  EMP-001         admin@company.com / admin123 (admin)
  EMP-002         john.doe@company.com / password123 (Engineering)

SEE ALSO:
  - cmd/seed: command-line entry point
*/
package seed

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/hrportal/portal"
	"github.com/warp/hrportal/settings"
)

// Dataset is a set of records to create.
type Dataset struct {
	Default   settings.EffectivePolicy
	Groups    []Group
	Employees []Employee
}

// Group is a group to create.
type Group struct {
	Name   string
	Policy settings.WorkPolicy
}

// Employee is an employee to create. GroupName refers to a group of the
// same dataset or an existing group.
type Employee struct {
	portal.EmployeeInput
	GroupName string
}

// Result counts what Apply created.
type Result struct {
	DefaultCreated   bool
	GroupsCreated    int
	EmployeesCreated int
}

// Demo returns the demo dataset.
func Demo() Dataset {
	return Dataset{
		Default: settings.EffectivePolicy{
			VacationDays:   30,
			DailyHours:     decimal.NewFromInt(8),
			HasFlextime:    true,
			HolidayRegion:  "DE-NW",
			MinBreakTime:   30,
			CanWorkRemote:  true,
			CanSelfApprove: false,
		},
		Groups: []Group{
			{
				Name: "Engineering",
				Policy: settings.WorkPolicy{
					VacationDays:   settings.Ptr(30),
					DailyHours:     settings.Ptr(decimal.NewFromInt(8)),
					HasFlextime:    settings.Ptr(true),
					HolidayRegion:  settings.Ptr("DE-NW"),
					MinBreakTime:   settings.Ptr(30),
					CanWorkRemote:  settings.Ptr(true),
					CanSelfApprove: settings.Ptr(false),
				},
			},
		},
		Employees: []Employee{
			{EmployeeInput: portal.EmployeeInput{
				EmployeeNumber: "EMP-001",
				Name:           "Admin User",
				Email:          "admin@company.com",
				Password:       "admin123",
				IsAdmin:        true,
			}},
			{
				EmployeeInput: portal.EmployeeInput{
					EmployeeNumber: "EMP-002",
					Name:           "John Doe",
					Email:          "john.doe@company.com",
					Password:       "password123",
				},
				GroupName: "Engineering",
			},
		},
	}
}

// Apply creates the records of data that do not exist yet.
func Apply(ctx context.Context, svc *portal.Service, data Dataset, log *logrus.Logger) (Result, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	var res Result

	created, err := svc.Bootstrap(ctx, data.Default)
	if err != nil {
		return res, fmt.Errorf("seed default policy: %w", err)
	}
	res.DefaultCreated = created

	groups, err := svc.ListGroups(ctx)
	if err != nil {
		return res, err
	}
	groupIDs := make(map[string]string, len(groups))
	for _, g := range groups {
		groupIDs[strings.ToLower(g.Name)] = g.ID
	}
	for _, g := range data.Groups {
		if _, ok := groupIDs[strings.ToLower(g.Name)]; ok {
			continue
		}
		created, err := svc.CreateGroup(ctx, portal.GroupInput{Name: g.Name, Policy: g.Policy})
		if err != nil {
			return res, fmt.Errorf("seed group %q: %w", g.Name, err)
		}
		groupIDs[strings.ToLower(g.Name)] = created.ID
		res.GroupsCreated++
	}

	employees, err := svc.ListEmployees(ctx)
	if err != nil {
		return res, err
	}
	emails := make(map[string]bool, len(employees))
	for _, e := range employees {
		emails[strings.ToLower(e.Email)] = true
	}
	for _, e := range data.Employees {
		if emails[strings.ToLower(e.Email)] {
			continue
		}
		in := e.EmployeeInput
		if e.GroupName != "" {
			id, ok := groupIDs[strings.ToLower(e.GroupName)]
			if !ok {
				return res, fmt.Errorf("seed employee %s: unknown group %q", e.EmployeeNumber, e.GroupName)
			}
			in.GroupID = &id
		}
		if _, err := svc.CreateEmployee(ctx, in); err != nil {
			return res, fmt.Errorf("seed employee %s: %w", e.EmployeeNumber, err)
		}
		res.EmployeesCreated++
	}

	log.WithFields(logrus.Fields{
		"default_created":   res.DefaultCreated,
		"groups_created":    res.GroupsCreated,
		"employees_created": res.EmployeesCreated,
	}).Info("seed applied")
	return res, nil
}
