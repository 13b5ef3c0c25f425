package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"entityaudit/internal/cli"
	"entityaudit/internal/logger"
)

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	rootCmd := &cobra.Command{
		Use:   "auditctl",
		Short: "Inspect the entityaudit audit trail",
		Long: `auditctl reads the audit records written for remotely persisted entities
from the store named by AUDIT_WITH, and signs tokens for the audit log API.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(cli.LogsCmd())
	rootCmd.AddCommand(cli.RecentCmd())
	rootCmd.AddCommand(cli.TokenCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
