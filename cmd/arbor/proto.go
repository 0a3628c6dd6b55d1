package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/pkg/prototype"
	"github.com/spf13/cobra"
)

var protoCmd = &cobra.Command{
	Use:   "proto",
	Short: "Manage prototype templates",
	Long: `Summoned sources (id -> locator) persist across runs. Seeded templates only
live for the duration of one command, so seeding is a flag of resolve and activate.`,
}

// seedFiles loads every --seed file into the session's registry.
func seedFiles(cmd *cobra.Command, s *cli.Session) error {
	files, _ := cmd.Flags().GetStringSlice("seed")
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		tpl, err := prototype.Decode(data, filepath.Ext(path))
		if err != nil {
			return fmt.Errorf("seed %s: %w", path, err)
		}
		if err := s.Prototypes().Seed(tpl); err != nil {
			return fmt.Errorf("seed %s: %w", path, err)
		}
	}
	return nil
}

var protoResolveCmd = &cobra.Command{
	Use:   "resolve <id>",
	Short: "Print the template for an id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *cli.Session) error {
			if err := seedFiles(cmd, s); err != nil {
				return err
			}
			tpl, err := s.Prototypes().Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), tpl)
		})
	},
}

var protoSummonCmd = &cobra.Command{
	Use:   "summon <id> <locator>",
	Short: "Record where a template comes from",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *cli.Session) error {
			return s.Prototypes().Summon(cmd.Context(), args[0], args[1])
		})
	},
}

var protoBanishCmd = &cobra.Command{
	Use:   "banish <id>...",
	Short: "Forget template sources",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *cli.Session) error {
			for _, id := range args {
				if err := s.Prototypes().Banish(cmd.Context(), id); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var protoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List summoned template sources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *cli.Session) error {
			sources, err := s.Prototypes().List(cmd.Context())
			if err != nil {
				return err
			}
			type entry struct {
				ID      string `json:"id"`
				Locator string `json:"locator"`
			}
			out := make([]entry, 0, len(sources))
			for id, loc := range sources {
				out = append(out, entry{ID: id, Locator: loc})
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
			return printJSON(cmd.OutOrStdout(), out)
		})
	},
}

var protoActivateCmd = &cobra.Command{
	Use:   "activate <ref>",
	Short: "Project a node merged with its template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		return withSession(cmd, func(s *cli.Session) error {
			if err := seedFiles(cmd, s); err != nil {
				return err
			}
			state, err := s.Activate(cmd.Context(), id, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), state)
		})
	},
}

var protoWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Reload summoned file sources as they change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withSession(cmd, func(s *cli.Session) error {
			changes, err := s.Prototypes().Watch(ctx)
			if err != nil {
				return err
			}
			for id := range changes {
				tpl, err := s.Prototypes().Resolve(ctx, id)
				if err != nil {
					return err
				}
				if err := printJSON(cmd.OutOrStdout(), tpl); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

func init() {
	protoResolveCmd.Flags().StringSlice("seed", nil, "template files to seed first")
	protoActivateCmd.Flags().StringSlice("seed", nil, "template files to seed first")
	protoActivateCmd.Flags().String("id", "", "template id (default: the node's id)")

	protoCmd.AddCommand(protoResolveCmd, protoSummonCmd, protoBanishCmd, protoListCmd, protoActivateCmd, protoWatchCmd)
	rootCmd.AddCommand(protoCmd)
}
