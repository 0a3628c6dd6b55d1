package main

import (
	"fmt"

	"github.com/aretw0/arbor/internal/cli"
	"github.com/aretw0/arbor/internal/presentation/graph"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:   "create <type>",
	Short: "Create an instance of a structure",
	Long: `Creates an instance of <type>. With --parent the node is created under that
ref and the type's parent structure is taken from the parent node.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parentRef, _ := cmd.Flags().GetString("parent")
		description, _ := cmd.Flags().GetString("description")
		id, _ := cmd.Flags().GetString("id")
		alias, _ := cmd.Flags().GetStringSlice("alias")
		info, _ := cmd.Flags().GetString("info")

		return withSession(cmd, func(s *cli.Session) error {
			rt := s.Runtime()
			typ := domain.NewStructure(args[0], description, nil)
			if parentRef != "" {
				parent, err := rt.Project(cmd.Context(), parentRef)
				if err != nil {
					return fmt.Errorf("parent: %w", err)
				}
				typ.Parent = domain.NewStructure(parent.Name, parent.Description, parent.Parent)
			}

			node, err := rt.Create(cmd.Context(), parentRef, typ, domain.Attributes{ID: id, Alias: alias, Information: info})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), node)
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <ref>...",
	Short: "Remove nodes and their subtrees",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *cli.Session) error {
			for _, ref := range args {
				if err := s.Runtime().Remove(cmd.Context(), ref); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var transformCmd = &cobra.Command{
	Use:   "transform <source-ref> <type>",
	Short: "Create <type> under the single instance of its container type",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		container, _ := cmd.Flags().GetString("container")
		description, _ := cmd.Flags().GetString("description")
		info, _ := cmd.Flags().GetString("info")

		return withSession(cmd, func(s *cli.Session) error {
			target := domain.NewStructure(args[1], description, nil)
			if container != "" {
				target.Parent = domain.NewStructure(container, "", nil)
			}
			node, err := s.Runtime().Transform(cmd.Context(), args[0], target, info)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), node)
		})
	},
}

var linkCmd = &cobra.Command{
	Use:   "link <from-ref> <to-ref> <relation> <reverse>",
	Short: "Relate two nodes in both directions",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *cli.Session) error {
			return s.Runtime().Link(cmd.Context(), args[0], args[1], args[2], args[3])
		})
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink <from-ref> <to-ref> <relation> <reverse>",
	Short: "Remove a relation in both directions",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *cli.Session) error {
			return s.Runtime().Unlink(cmd.Context(), args[0], args[1], args[2], args[3])
		})
	},
}

var tagCmd = &cobra.Command{
	Use:   "tag <ref> [tag]",
	Short: "Set (or clear) the tag of a node",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tag := ""
		if len(args) == 2 {
			tag = args[1]
		}
		return withSession(cmd, func(s *cli.Session) error {
			return s.Runtime().Tag(cmd.Context(), args[0], tag)
		})
	},
}

var projectCmd = &cobra.Command{
	Use:   "project <ref>",
	Short: "Print the state tree rooted at a node",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mermaid, _ := cmd.Flags().GetBool("mermaid")
		return withSession(cmd, func(s *cli.Session) error {
			state, err := s.Runtime().Project(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if mermaid {
				_, err := fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(state, &graph.Overlay{Highlight: []string{state.Ref}}))
				return err
			}
			return printJSON(cmd.OutOrStdout(), state)
		})
	},
}

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "List nodes without a parent",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(s *cli.Session) error {
			roots, err := s.Runtime().Roots(cmd.Context())
			if err != nil {
				return err
			}
			if roots == nil {
				roots = []*domain.Node{}
			}
			return printJSON(cmd.OutOrStdout(), roots)
		})
	},
}

func init() {
	createCmd.Flags().String("parent", "", "ref of the parent node")
	createCmd.Flags().String("description", "", "description of the structure")
	createCmd.Flags().String("id", "", "id of the instance")
	createCmd.Flags().StringSlice("alias", nil, "aliases of the instance")
	createCmd.Flags().String("info", "", "information carried by the instance")

	transformCmd.Flags().String("container", "", "name of the container structure (required)")
	transformCmd.Flags().String("description", "", "description of the structure")
	transformCmd.Flags().String("info", "", "information carried by the new instance")
	_ = transformCmd.MarkFlagRequired("container")

	projectCmd.Flags().Bool("mermaid", false, "print a Mermaid diagram instead of JSON")

	rootCmd.AddCommand(createCmd, removeCmd, transformCmd, linkCmd, unlinkCmd, tagCmd, projectCmd, rootsCmd)
}
