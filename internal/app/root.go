package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	userFlag     string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:           "zlatko",
	Short:         "Zlatko CRM mailbox sync",
	Long:          "Imports prospect email into the CRM and keeps each prospect's last contact date consistent",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "User id to act as (defaults to auth.default_user_id)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Override log.level")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(connectCmd)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
