package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"gorm.io/gorm"

	"snapshotengine/cmd/snapshot"
	"snapshotengine/src/database"
	"snapshotengine/src/database/migrations"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Snapshot Engine CMD"
	app.Usage = "Mirror trading engine state into the snapshot database"
	app.Version = Version

	app.Before = func(_ *cli.Context) error {
		SetupLogger(database.GetConfig())
		return nil
	}

	app.Commands = []cli.Command{
		snapshotCMD,
		migrateCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	snapshotCMD = cli.Command{
		Name:        "snapshot",
		Usage:       "run the snapshot engine",
		Action:      snapshotAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Consume account, position, tick and trade events and persist them`,
	}
	migrateCMD = cli.Command{
		Name:        "migrate",
		Usage:       "provision the snapshot schema",
		Action:      migrateAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Prepare legacy tables, auto-migrate and run pending data migrations`,
	}
)

func SetupLogger(config database.Config) {
	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		level = logrus.DebugLevel
	}
	logrus.SetLevel(level)

	if strings.EqualFold(config.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

func openDB() (*gorm.DB, error) {
	db, err := database.Open(database.GetConfig())
	if err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return nil, err
	}
	if err := migrations.Provision(db); err != nil {
		logrus.WithError(err).Error("Failed to provision schema")
		_ = database.Close(db)
		return nil, err
	}
	return db, nil
}

func snapshotAction(_ *cli.Context) error {
	logrus.Info("Starting snapshot CMD")

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logrus.WithError(err).Error("Failed to close database")
		}
	}()

	engine := &snapshot.Snapshot{
		Log: logrus.WithField("cmd", "snapshot"),
		DB:  db,
	}
	if err := engine.Start(); err != nil {
		logrus.WithError(err).Error("Starting cmd")
		return err
	}

	return nil
}

func migrateAction(_ *cli.Context) error {
	logrus.Info("Starting migrate CMD")

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	logrus.Info("Schema is up to date")
	return nil
}
