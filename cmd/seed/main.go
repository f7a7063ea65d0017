/*
main.go - Demo data loader

PURPOSE:
  Opens the configured SQLite database and applies the demo dataset:
  Default work policy, an admin account, the Engineering group and one
  regular employee. Safe to run repeatedly.

COMMAND-LINE FLAGS:
  -config  YAML configuration file (optional)
  -db      SQLite database path, overrides the configuration

LOGIN CREDENTIALS AFTER SEEDING:
  Admin: admin@company.com / admin123
  User:  john.doe@company.com / password123
*/
package main

import (
	"context"
	"flag"

	"github.com/sirupsen/logrus"
	"github.com/warp/hrportal/calendar"
	"github.com/warp/hrportal/config"
	"github.com/warp/hrportal/holidays"
	"github.com/warp/hrportal/portal"
	"github.com/warp/hrportal/seed"
	"github.com/warp/hrportal/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	dbPath := flag.String("db", "", "SQLite database path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	log := cfg.Log.NewLogger()

	store, err := sqlite.New(cfg.Database.Path, log)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	engine := calendar.NewEngine(holidays.NewCached(holidays.NewSource()))
	svc := portal.NewService(store, engine, log)

	res, err := seed.Apply(context.Background(), svc, seed.Demo(), log)
	if err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
	if res.EmployeesCreated > 0 {
		log.Info("login with admin@company.com / admin123 or john.doe@company.com / password123")
	}
}
