package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MarianRoshchupkin/GigaMovie/internal/app"
	"github.com/MarianRoshchupkin/GigaMovie/internal/config"
	"github.com/MarianRoshchupkin/GigaMovie/internal/logger"
	"github.com/MarianRoshchupkin/GigaMovie/internal/store"
)

func main() {
	root := &cobra.Command{
		Use:           "gigamovie",
		Short:         "Telegram bot recommending movies via the GigaChat API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.AddCommand(initDBCmd(), runCmd(), resetDBCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "initdb",
		Short: "Create the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := config.LoadDB()
			if err != nil {
				return err
			}
			// OpenSQLite runs pending migrations.
			repo, err := store.OpenSQLite(cmd.Context(), db.Path)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()

			cmd.Println("database initialized:", db.Path)
			return nil
		},
	}
}

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bot (long polling)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log, err := logger.New(cfg.LogLevel)
			if err != nil {
				return err
			}
			// Ensure logger flush; ignore sync error (common on some platforms).
			defer func() { _ = log.Sync() }()

			application, err := app.New(cfg, log)
			if err != nil {
				log.Error("app init failed", zap.Error(err))
				return err
			}
			return application.Run(cmd.Context())
		},
	}
}

func resetDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resetdb",
		Short: "Drop and recreate the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Print("This will drop all tables and their data. Type 'yes' to continue: ")
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return err
			}
			if !strings.EqualFold(strings.TrimSpace(line), "yes") {
				cmd.Println("reset cancelled")
				return nil
			}

			db, err := config.LoadDB()
			if err != nil {
				return err
			}
			repo, err := store.OpenSQLite(cmd.Context(), db.Path)
			if err != nil {
				return err
			}
			defer func() { _ = repo.Close() }()

			if err := repo.Reset(cmd.Context()); err != nil {
				return err
			}
			cmd.Println("database reset:", db.Path)
			return nil
		},
	}
}
