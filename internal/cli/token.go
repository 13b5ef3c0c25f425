package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"entityaudit/internal/config"
	"entityaudit/internal/middleware"
)

// TokenCmd returns the command that signs a read API access token.
func TokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token <actor>",
		Short: "Sign an access token for the audit log API",
		Long: `Sign an access token for the audit log API with JWT_SECRET.

The actor becomes the token subject. The token is valid for JWT_EXPIRES_IN
unless --ttl is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ttl := cfg.JWTExpirationDur
			if cmd.Flags().Changed("ttl") {
				ttl, _ = cmd.Flags().GetDuration("ttl")
			}
			if ttl <= 0 {
				return fmt.Errorf("--ttl must be positive")
			}

			token, err := middleware.GenerateAccessToken(cfg.JWTSecret, args[0], ttl)
			if err != nil {
				return fmt.Errorf("failed to sign token: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().Duration("ttl", 0, "Token lifetime (default JWT_EXPIRES_IN)")
	return cmd
}
