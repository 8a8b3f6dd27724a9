package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"scenarist/internal/registry"
	pkgstrings "scenarist/pkg/strings"
)

var listQuiet bool

// newListCmd creates the Cobra command that lists the scenarios a path
// contains as a table.
func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [path]",
		Short: "List scenario definitions",
		Long: `List loads every scenario definition under the given file or
directory and prints one row per scenario: its ID, display name, and how many
mock rules it declares. The path defaults to "scenarios".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "scenarios"
			if len(args) == 1 {
				path = args[0]
			}

			reg := registry.New()
			if err := reg.LoadPath(path); err != nil {
				return err
			}
			defs := reg.List()
			if len(defs) == 0 {
				return fmt.Errorf("no scenarios under %s", path)
			}

			out := cmd.OutOrStdout()
			if listQuiet {
				for _, def := range defs {
					fmt.Fprintln(out, def.ID)
				}
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleRounded)
			t.AppendHeader(table.Row{
				text.FgHiCyan.Sprint("ID"),
				text.FgHiCyan.Sprint("NAME"),
				text.FgHiCyan.Sprint("MOCKS"),
				text.FgHiCyan.Sprint("DESCRIPTION"),
			})
			for _, def := range defs {
				t.AppendRow(table.Row{def.ID, def.Name, len(def.Mocks),
					pkgstrings.TruncateDescription(def.Description, pkgstrings.DefaultDescriptionMaxLen)})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().BoolVarP(&listQuiet, "quiet", "q", false, "Print scenario IDs only")
	return cmd
}
