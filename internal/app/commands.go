package app

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"zlatko/internal/config"
	"zlatko/internal/database"
	"zlatko/internal/service"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return migrate(cfg)
	},
}

func migrate(cfg *config.Config) error {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logrus.Info("Migrations applied")
	return nil
}

var (
	syncProspect string
	syncEmail    string
	syncProvider string
	syncAll      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Import a prospect's email from the connected mailbox",
	Long:  "Runs one sync pass for --prospect, or with --all the scheduled cycle over every enabled credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if syncAll {
			result, err := a.Scheduler.RunSyncOnce(ctx)
			if err != nil {
				return err
			}
			return printJSON(result)
		}

		userID, err := a.userID()
		if err != nil {
			return err
		}

		email := syncEmail
		if email == "" && syncProspect != "" {
			p, err := a.Prospects.Get(ctx, userID, syncProspect)
			if err != nil {
				return err
			}
			email = p.Email
		}

		result, err := a.Sync.SyncProspect(ctx, service.SyncRequest{
			UserID:        userID,
			Provider:      syncProvider,
			ProspectID:    syncProspect,
			ProspectEmail: email,
		})
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var reconcileAll bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Repair cached last contact dates from communication history",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := cmd.Context()
		if reconcileAll {
			result, err := a.Scheduler.RunReconcileOnce(ctx)
			if err != nil {
				return err
			}
			return printJSON(result)
		}

		userID, err := a.userID()
		if err != nil {
			return err
		}
		result, err := a.Reconciler.Run(ctx, userID)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

func init() {
	syncCmd.Flags().StringVar(&syncProspect, "prospect", "", "Prospect id")
	syncCmd.Flags().StringVar(&syncEmail, "email", "", "Prospect email address (defaults to the stored one)")
	syncCmd.Flags().StringVar(&syncProvider, "provider", "gmail", "Mailbox provider: gmail or imap")
	syncCmd.Flags().BoolVar(&syncAll, "all", false, "Sync every syncable prospect of every enabled credential")

	reconcileCmd.Flags().BoolVar(&reconcileAll, "all", false, "Reconcile every user that owns prospects")
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
