package main

import (
	"fmt"
	"os"

	"github.com/bethropolis/infograph/internal/config"
	"github.com/bethropolis/infograph/internal/document"
	"github.com/bethropolis/infograph/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// loadFunc builds the effective configuration from the flags set on fs.
type loadFunc func(path string, flags *config.Flags, fs *pflag.FlagSet) (*config.Config, error)

// cli carries state shared by the subcommands.
type cli struct {
	flags config.Flags
	load  loadFunc
	cfg   *config.Config
}

func newRootCmd(load loadFunc) *cobra.Command {
	c := &cli{load: load}
	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "Edit infographic documents in the terminal",
		Long:          `infograph opens a JSON infographic document, lets you select elements and edit them through a contextual toolbar with undo and redo.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}
	c.flags.Register(root.PersistentFlags())

	root.AddCommand(
		newEditCmd(c),
		newDumpCmd(c),
		newConfigCmd(c),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration and starts logging.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := c.load(c.flags.ConfigFilePath, &c.flags, cmd.Flags())
	if err != nil {
		return err
	}
	if cmd.Name() == "edit" && cfg.Logger.LogFilePath == "-" {
		// stderr belongs to the terminal UI while editing
		cfg.Logger.LogFilePath = config.DefaultLogFileName
	}
	if err := logger.Init(cfg.Logger); err != nil {
		return err
	}
	c.cfg = cfg
	logger.Debugf("CLI: Running '%s' with config %+v", cmd.Name(), cfg.Editor)
	return nil
}

// readDocument loads path. A missing file yields an empty document when
// allowMissing is set.
func readDocument(path string, allowMissing bool) ([]byte, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && allowMissing {
		logger.Infof("CLI: %s does not exist, starting an empty document", path)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if _, err := document.NewManagerFrom(data); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}
