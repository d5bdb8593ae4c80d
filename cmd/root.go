// Package cmd provides the command line interface for convergd
/*
Copyright © 2026 Andrei Volkov andrei@volkov.io

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/volkov-io/convergd/internal/config"
	"github.com/volkov-io/convergd/internal/log"
)

// RootCommand represents the root command for the convergd CLI.
type RootCommand struct{}

var (
	cfg            *config.Settings
	userMode       bool
	configFilePath string
	statePath      string
	runtimeName    string
	verbose        bool

	app *App
)

// GetCobraCommand returns the cobra root command for the convergd CLI.
func (c *RootCommand) GetCobraCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "convergd",
		Short: "Convergd reconciles a host against a declarative configuration snapshot.",
		Long: `Convergd reconciles a running host against a declarative configuration
snapshot. It detects drift between the applied and desired configuration,
classifies every change by its safest application strategy, and applies
what it can live, with a state snapshot taken before any mutation so a
failed update can be rolled back.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configFilePath != "" {
				config.SetConfigFilePath(configFilePath)
			}
			cfg = config.InitConfig()
			log.Init(verbose)

			if verbose {
				fmt.Printf("%s using config: %s\n\n", cmd.Root().Use, viper.GetViper().ConfigFileUsed())
				cfg.Verbose = verbose
			}

			if userMode {
				cfg.ApplyUserMode()
			}

			if statePath != "" {
				cfg.StatePath = statePath
			}

			if runtimeName != "" {
				cfg.Runtime = runtimeName
			}

			provider := config.NewDefaultConfigProvider()
			provider.SetConfig(cfg)

			var err error
			app, err = NewApp(log.GetLogger(), provider)
			if err != nil {
				return err
			}

			cmd.SetContext(context.WithValue(cmd.Context(), appContextKey, app))
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if app != nil {
				if err := app.Close(); err != nil {
					log.GetLogger().Debug("Failed to close application", "error", err)
				}
			}
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&userMode, "user", "u", false, "Run in user mode")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configFilePath, "config", "", "Path to the configuration file")
	rootCmd.PersistentFlags().StringVar(&statePath, "state-path", "", "Path to the state record file")
	rootCmd.PersistentFlags().StringVar(&runtimeName, "runtime", "", "Container runtime command (podman, docker, nerdctl)")

	rootCmd.AddCommand(
		NewDeployCommand().GetCobraCommand(),
		NewPlanCommand().GetCobraCommand(),
		NewUpdateCommand().GetCobraCommand(),
		NewStatusCommand().GetCobraCommand(),
		NewHealthCommand().GetCobraCommand(),
		NewRollbackCommand().GetCobraCommand(),
		NewSnapshotCommand().GetCobraCommand(),
		NewLayerCommand().GetCobraCommand(),
		NewContainerCommand().GetCobraCommand(),
		NewHistoryCommand().GetCobraCommand(),
		NewDaemonCommand().GetCobraCommand(),
		NewSelfUpdateCommand().GetCobraCommand(),
		(&VersionCommand{}).GetCobraCommand(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := (&RootCommand{}).GetCobraCommand()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
