package main

import (
	"flag"
	"fmt"
	"os"

	"hawltrack/internal/database"
	"hawltrack/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	dir := flag.String("dir", "migrations", "migrations directory")
	flag.Parse()

	command := flag.Arg(0)
	if command == "" {
		command = "up"
	}

	if err := run(command, *dir); err != nil {
		logger.Get().Fatalf("Migration error: %v", err)
	}
}

func run(command, dir string) error {
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	mig, err := migrate.New("file://"+dir, dbConfig.URL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = mig.Close() }()

	switch command {
	case "up":
		if err := mig.Up(); err != nil && err != migrate.ErrNoChange {
			return err
		}
		logger.Get().Info("Migrations applied")
	case "down":
		if err := mig.Steps(-1); err != nil {
			return err
		}
		logger.Get().Info("Rolled back one migration")
	case "version":
		version, dirty, err := mig.Version()
		if err != nil {
			return err
		}
		logger.Get().Infof("Version %d (dirty: %v)", version, dirty)
	default:
		return fmt.Errorf("unknown command %q (want up, down or version)", command)
	}
	return nil
}
