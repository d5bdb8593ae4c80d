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
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/volkov-io/convergd/internal/sysconfig"
)

// Default locations of the compiled configuration snapshot.
const (
	defaultSnapshotFile     = "/etc/convergd/system.yaml"
	defaultUserSnapshotFile = "$HOME/.config/convergd/system.yaml"
)

// resolveSnapshotFile returns the configuration snapshot path, falling
// back to the mode-appropriate default when no flag was given.
func resolveSnapshotFile(app *App, file string) string {
	if file != "" {
		return file
	}
	if app.Config.UserMode {
		return os.ExpandEnv(defaultUserSnapshotFile)
	}
	return defaultSnapshotFile
}

// DeployCommand represents the deploy command.
type DeployCommand struct{}

// NewDeployCommand creates a new DeployCommand.
func NewDeployCommand() *DeployCommand {
	return &DeployCommand{}
}

// getApp retrieves the App from the command context.
func (c *DeployCommand) getApp(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey).(*App)
}

var deployFile string

// GetCobraCommand returns the cobra command for deploying a configuration snapshot.
func (c *DeployCommand) GetCobraCommand() *cobra.Command {
	deployCmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy containers and layers from a configuration snapshot",
		Long: `Deploy validates a configuration snapshot and brings up its containers
and layers in dependency order, then persists a state record describing
what was deployed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := c.getApp(cmd)

			desired, err := sysconfig.LoadFile(resolveSnapshotFile(app, deployFile))
			if err != nil {
				return err
			}

			result := app.System.Deploy(cmd.Context(), desired)
			fmt.Printf("Deployed %d container(s) and %d layer(s)\n",
				result.ContainersDeployed, result.LayersDeployed)

			if !result.Success {
				msgs := make([]string, 0, len(result.Errors))
				for _, e := range result.Errors {
					msgs = append(msgs, e.Error())
				}
				return fmt.Errorf("deployment finished with errors: %s",
					strings.Join(msgs, "; "))
			}
			return nil
		},
	}

	deployCmd.Flags().StringVarP(&deployFile, "file", "f", "", "Path to the configuration snapshot")

	return deployCmd
}
