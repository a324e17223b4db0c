package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Davi2004/TarefasPlus/api"
	"github.com/Davi2004/TarefasPlus/domain"
)

func newTokenCmd() *cobra.Command {
	var (
		id     domain.Identity
		secret string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an ID token for a server running in local auth mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := api.SignLocalToken(secret, id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&id.Email, "email", "", "email claim")
	cmd.Flags().StringVar(&id.Name, "name", "", "display name claim")
	cmd.Flags().StringVar(&id.Image, "picture", "", "avatar URL claim")
	cmd.Flags().StringVar(&secret, "secret", os.Getenv("LOCAL_AUTH_SHARED_SECRET"), "shared HS256 secret")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
