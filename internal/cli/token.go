package cli

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"geo-dispatch/internal/general/jwt"
)

type tokenOutput struct {
	Token     string `json:"token"`
	Subject   string `json:"subject"`
	Role      string `json:"role"`
	IssuedAt  string `json:"issued_at"`
	ExpiresAt string `json:"expires_at"`
}

func newTokenCmd(opts *options) *cobra.Command {
	var (
		subject string
		role    string
		secret  string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the driver and admin endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := jwt.ParseRole(role)
			if err != nil {
				return err
			}

			if secret == "" || ttl == 0 {
				cfg, err := opts.loadConfig()
				if err != nil {
					return err
				}
				if secret == "" {
					secret = cfg.Auth.Secret
				}
				if ttl == 0 {
					ttl = time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute
				}
			}
			if secret == "" {
				return errors.New("no signing secret: pass --secret or set auth.secret")
			}

			mgr, err := jwt.NewManager(secret, ttl)
			if err != nil {
				return err
			}
			raw, claims, err := mgr.IssueToken(subject, r)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tokenOutput{
				Token:     raw,
				Subject:   claims.Subject,
				Role:      string(claims.Role),
				IssuedAt:  claims.IssuedAt.UTC().Format(time.RFC3339),
				ExpiresAt: claims.ExpiresAt.UTC().Format(time.RFC3339),
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "token subject; the driver id for DRIVER tokens")
	cmd.Flags().StringVar(&role, "role", string(jwt.RoleDriver), "ADMIN or DRIVER")
	cmd.Flags().StringVar(&secret, "secret", "", "HS256 signing secret (defaults to auth.secret)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl_minutes)")
	_ = cmd.MarkFlagRequired("subject")
	return cmd
}
