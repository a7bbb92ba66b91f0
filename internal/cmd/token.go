package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"streamer/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a stream token signed with the configured secret",
	Long: `Issue an HS256 stream token. Present it as "Authorization: Bearer <token>",
in the stream_token cookie, or as ?token=<token> on stream URLs.`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().String("subject", "viewer", "subject the token is issued to")
	tokenCmd.Flags().Duration("ttl", 0, "token lifetime (default is auth.token_ttl)")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.Auth.Enabled() {
		return fmt.Errorf("auth is disabled: set JWT_SECRET_KEY or auth.jwt_secret_key")
	}

	subject, _ := cmd.Flags().GetString("subject")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	if ttl <= 0 {
		ttl = cfg.Auth.TokenTTL
	}

	token, err := auth.NewJWTManager(cfg.Auth.JWTSecretKey).GenerateToken(subject, ttl)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), token)
	fmt.Fprintf(cmd.ErrOrStderr(), "token for %q expires at %s\n", subject, time.Now().Add(ttl).UTC().Format(time.RFC3339))
	return nil
}
