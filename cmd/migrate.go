package cmd

import (
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/bayarqu/ms-go-paybridge/config"
)

var migrationsPath string

var migrateCmd = &cobra.Command{
	Use:   "migrate [up|down|goto N|status]",
	Short: "Manage database schema migrations",
	Args:  cobra.RangeArgs(1, 2),
	Run:   runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsPath, "path", "migrations", "Directory holding the migration files")
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(_ *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	m, err := migrate.New("file://"+migrationsPath, "mysql://"+cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize migrations")
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			logrus.WithFields(logrus.Fields{"source_err": sourceErr, "db_err": dbErr}).Warn("Failed to close migration resources")
		}
	}()

	switch args[0] {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			logrus.WithError(err).Fatal("Migration failed")
		} else if err == migrate.ErrNoChange {
			logrus.Info("Database schema is already up to date")
		} else {
			logrus.Info("Migrations applied")
		}

	case "down":
		if err := m.Steps(-1); err != nil {
			logrus.WithError(err).Fatal("Rollback failed")
		}
		logrus.Info("Rolled back one migration")

	case "goto":
		if len(args) < 2 {
			logrus.Fatal("goto requires a version number")
		}
		version, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			logrus.WithError(err).Fatal("Invalid version number")
		}
		if err := m.Migrate(uint(version)); err != nil && err != migrate.ErrNoChange {
			logrus.WithError(err).WithField("version", version).Fatal("Migration failed")
		}
		logrus.WithField("version", version).Info("Migrated to version")

	case "status":
		version, dirty, err := m.Version()
		if err == migrate.ErrNilVersion {
			logrus.Info("No migrations have been applied yet")
			return
		}
		if err != nil {
			logrus.WithError(err).Fatal("Failed to read migration version")
		}
		logrus.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("Current migration version")

	default:
		logrus.WithField("command", args[0]).Fatal("Unknown migrate command")
	}
}
