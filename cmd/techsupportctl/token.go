package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"techsupport/backend/internal/auth"
)

func newTokenCmd(opts *rootOptions) *cobra.Command {
	var (
		role string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token <actor-id>",
		Short: "Mint a bearer token for local testing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			tokens, err := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer)
			if err != nil {
				return err
			}
			raw, err := tokens.Mint(args[0], role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), raw)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", auth.RoleRequester, "role claim (requester or technician)")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}
