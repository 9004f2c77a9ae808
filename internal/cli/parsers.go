package cli

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ppiankov/fourmi/internal/parsers"
	"github.com/spf13/cobra"
)

// parsersCmd lists the registered site parsers
var parsersCmd = &cobra.Command{
	Use:   "parsers",
	Short: "List the registered site parsers",
	Run: func(cmd *cobra.Command, args []string) {
		listParsers(cmd.OutOrStdout(), parsers.Default())
	},
}

func init() {
	rootCmd.AddCommand(parsersCmd)
}

func listParsers(w io.Writer, registry *parsers.Registry) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Parser", "Website"})
	for _, p := range registry.All() {
		t.AppendRow(table.Row{p.Name(), p.Website()})
	}
	t.Render()
}
