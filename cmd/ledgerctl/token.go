package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"staffledger/internal/auth"
)

func newTokenCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue API tokens",
	}
	var (
		staffID string
		role    string
		ttl     time.Duration
	)
	issue := &cobra.Command{
		Use:   "issue",
		Short: "Issue a bearer token for a staff member or an admin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl <= 0 {
				ttl = a.cfg.AccessTTL
			}
			tok, err := auth.Issue(staffID, role, a.cfg.JWTIssuer, a.cfg.JWTSigningKey, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.AccessToken)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", tok.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	issue.Flags().StringVar(&staffID, "staff", "", "staff id the token acts for")
	issue.Flags().StringVar(&role, "role", auth.RoleStaff, "token role (staff or admin)")
	issue.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to ACCESS_TTL)")
	cmd.AddCommand(issue)
	return cmd
}
