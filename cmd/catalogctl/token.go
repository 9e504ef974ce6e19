package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"CapStore/internal/access"
)

func newTokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		as     string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := os.Getenv("JWT_SECRET")
			if len(secret) < 32 {
				return errors.New("JWT_SECRET is required and must be at least 32 chars")
			}

			p := access.Principal{UserID: userID}
			var err error
			if p.Role, err = access.ParseRole(role); err != nil {
				return err
			}
			if as != "" {
				if p.ActingAs, err = access.ParseRole(as); err != nil {
					return err
				}
			}
			if _, err := p.Effective(); err != nil {
				return err
			}

			tok, err := access.NewTokenMaker(secret).New(p, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id")
	cmd.Flags().StringVar(&role, "role", string(access.RoleCustomer), "role")
	cmd.Flags().StringVar(&as, "as", "", "role a super-admin acts as")
	cmd.Flags().DurationVar(&ttl, "ttl", 15*time.Minute, "token lifetime")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
