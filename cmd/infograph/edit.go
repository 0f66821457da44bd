package main

import (
	"github.com/bethropolis/infograph/internal/logger"
	"github.com/bethropolis/infograph/internal/plugin"
	"github.com/bethropolis/infograph/internal/tui"
	"github.com/bethropolis/infograph/plugins/autosave"
	"github.com/bethropolis/infograph/plugins/status"
	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"
)

func newEditCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "edit FILE",
		Short: "Open a document in the terminal editor",
		Long:  `Opens FILE in the terminal editor. A missing file starts an empty document that is created on first save.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEdit(args[0])
		},
	}
}

func (c *cli) runEdit(path string) error {
	raw, err := readDocument(path, true)
	if err != nil {
		return err
	}

	ui, err := tui.New(tcell.StyleDefault)
	if err != nil {
		return err
	}
	defer ui.Close()

	ed := tui.NewEditor(ui, c.cfg, path)
	if err := ed.Open(raw, c.plugins(ed, path)...); err != nil {
		return err
	}
	defer func() {
		if err := ed.Close(); err != nil {
			logger.Errorf("CLI: Closing session: %v", err)
		}
	}()

	logger.Infof("CLI: Editing %s", path)
	return ed.Run()
}

// plugins returns the optional plugins hosted by the editor session.
func (c *cli) plugins(ed *tui.Editor, path string) []plugin.Plugin {
	target := c.cfg.Autosave.Path
	if target == "" {
		target = path
	}
	return []plugin.Plugin{
		status.New(ed.StatusBar()),
		autosave.New(autosave.Options{
			Enabled:  c.cfg.Autosave.Enabled,
			Interval: c.cfg.Autosave.Interval.Duration,
			Path:     target,
			OnSaved:  ed.MarkSaved,
		}),
	}
}
