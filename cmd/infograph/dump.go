package main

import (
	"fmt"

	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/element"
	"github.com/bethropolis/infograph/internal/toolbar"
	"github.com/bethropolis/infograph/plugins/status"
	"github.com/spf13/cobra"
)

func newDumpCmd(c *cli) *cobra.Command {
	var summary bool
	cmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Print a document",
		Long:  `Prints FILE as indented JSON, or with --summary one line per element in paint order.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readDocument(args[0], false)
			if err != nil {
				return err
			}
			doc, err := document.NewManagerFrom(raw)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !summary {
				_, err = out.Write(doc.Snapshot().Pretty())
				return err
			}

			scene := element.NewScene()
			scene.Sync(doc.Snapshot())
			for _, el := range scene.Elements() {
				b := el.Bounds()
				fmt.Fprintf(out, "%-12s %-6s %g,%g %gx%g\n", el.ID(), toolbar.Classify([]element.Element{el}), b.X, b.Y, b.Width, b.Height)
			}
			elements, words := status.Count(scene.Elements())
			fmt.Fprintf(out, "Elements: %d, Words: %d\n", elements, words)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&summary, "summary", "s", false, "List elements instead of printing JSON")
	return cmd
}
