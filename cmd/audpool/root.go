// SPDX-License-Identifier: EPL-2.0

package main

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/ik5/audpool/config"
	"github.com/ik5/audpool/internal/logging"
)

// app is the state shared by every subcommand.
type app struct {
	cfgPath string
	level   string

	cfg    *config.Config
	logger *log.Logger
}

func rootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "audpool",
		Short:         "Pooled audio playback tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVarP(&a.cfgPath, "config", "c", "", "Path to an audpool YAML config")
	root.PersistentFlags().StringVar(&a.level, "log-level", "", "Log level: debug, info, warn, error")

	root.AddCommand(
		detectCommand(a),
		trimCommand(a),
		libraryCommand(a),
		playCommand(a),
	)
	return root
}

// setup loads the config and builds the logger. Flags win over the file and
// the environment.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return err
	}
	if a.level != "" {
		cfg.Log.Level = a.level
	}

	logger, err := logging.New(cmd.ErrOrStderr(), cfg.Log.Level)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	a.logger.Debug("config loaded", "path", a.cfgPath)
	return nil
}
