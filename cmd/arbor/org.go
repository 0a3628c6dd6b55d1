package main

import (
	"context"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/pkg/machine"
	"github.com/spf13/cobra"
)

var orgCmd = &cobra.Command{
	Use:   "org",
	Short: "Organizational lifecycle: hire, fire, appoint, dismiss",
}

// pairCmd builds a command calling op(first, second) on the organization service.
func pairCmd(use, short string, op func(s *cli.Session) func(ctx context.Context, a, b string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, func(s *cli.Session) error {
				return op(s)(cmd.Context(), args[0], args[1])
			})
		},
	}
}

var orgStatusCmd = &cobra.Command{
	Use:   "status <ref>",
	Short: "Print the derived status of a role or position",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		position, _ := cmd.Flags().GetBool("position")
		return withSession(cmd, func(s *cli.Session) error {
			var (
				m      machine.Machine
				status machine.Status
				err    error
			)
			if position {
				m = machine.Position
				status, err = s.Organization().PositionStatus(cmd.Context(), args[0])
			} else {
				m = machine.Role
				status, err = s.Organization().RoleStatus(cmd.Context(), args[0])
			}
			if err != nil {
				return err
			}

			allowed := m.Allowed(status)
			if allowed == nil {
				allowed = []machine.Action{}
			}
			return printJSON(cmd.OutOrStdout(), struct {
				Ref     string           `json:"ref"`
				Machine string           `json:"machine"`
				Status  machine.Status   `json:"status"`
				Allowed []machine.Action `json:"allowed"`
			}{args[0], m.Name, status, allowed})
		})
	},
}

func init() {
	orgStatusCmd.Flags().Bool("position", false, "treat the ref as a position")

	orgCmd.AddCommand(
		pairCmd("hire <org-ref> <role-ref>", "Make a free role a member", func(s *cli.Session) func(context.Context, string, string) error {
			return s.Organization().Hire
		}),
		pairCmd("fire <org-ref> <role-ref>", "Remove a role from its organization", func(s *cli.Session) func(context.Context, string, string) error {
			return s.Organization().Fire
		}),
		pairCmd("appoint <position-ref> <role-ref>", "Assign a member to a vacant position", func(s *cli.Session) func(context.Context, string, string) error {
			return s.Organization().Appoint
		}),
		pairCmd("dismiss <position-ref> <role-ref>", "Release a role from its position", func(s *cli.Session) func(context.Context, string, string) error {
			return s.Organization().Dismiss
		}),
		orgStatusCmd,
	)
	rootCmd.AddCommand(orgCmd)
}
