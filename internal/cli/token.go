package cli

import (
	"fmt"
	"time"

	"github.com/Domenick1991/busbooking/internal/auth"
	"github.com/Domenick1991/busbooking/internal/domain"
	"github.com/spf13/cobra"
)

type TokenOptions struct {
	*RootOptions
	UserID string
	Name   string
	Role   string
}

// NewTokenCommand issues development tokens; real logins happen upstream.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TokenOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for a rider or operator",
		Example: `  busctl token --user rider-42 --name Asha
  busctl token --user op-1 --name "Green Line" --role operator`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return issueToken(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.UserID, "user", "", "subject user id (required)")
	cmd.Flags().StringVar(&opts.Name, "name", "", "display name")
	cmd.Flags().StringVar(&opts.Role, "role", string(domain.RoleRider), "rider|operator")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func issueToken(cmd *cobra.Command, opts *TokenOptions) error {
	role := domain.Role(opts.Role)
	if role != domain.RoleRider && role != domain.RoleOperator {
		return fmt.Errorf("invalid role %q: must be rider or operator", opts.Role)
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	token, exp, err := auth.NewManager(cfg.Auth).Issue(domain.Principal{UserID: opts.UserID, Name: opts.Name, Role: role})
	if err != nil {
		return err
	}

	if opts.Format == "json" {
		return writeJSON(cmd.OutOrStdout(), map[string]string{
			"token":      token,
			"expires_at": exp.Format(time.RFC3339),
		})
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
