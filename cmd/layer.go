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
	"strings"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

// LayerCommand represents the layer command group.
type LayerCommand struct{}

// NewLayerCommand creates a new LayerCommand.
func NewLayerCommand() *LayerCommand {
	return &LayerCommand{}
}

// getApp retrieves the App from the command context.
func (c *LayerCommand) getApp(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey).(*App)
}

// GetCobraCommand returns the cobra command for layer operations.
func (c *LayerCommand) GetCobraCommand() *cobra.Command {
	layerCmd := &cobra.Command{
		Use:   "layer",
		Short: "Manage OS-container layers",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List deployed layers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := c.getApp(cmd)

			layers := app.Layers.List()
			if len(layers) == 0 {
				fmt.Println("No layers deployed.")
				return nil
			}

			headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
			columnFmt := color.New(color.FgYellow).SprintfFunc()
			tbl := table.New("Name", "Purpose", "Container", "Strategy", "Priority", "Status", "Dependencies")
			tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)
			for _, l := range layers {
				tbl.AddRow(l.Name, l.Purpose, l.Container, l.Strategy, l.Priority,
					l.Status, strings.Join(l.Dependencies, ", "))
			}
			tbl.Print()
			return nil
		},
	}

	startCmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Start a layer's container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.getApp(cmd)
			if err := app.Layers.Start(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Layer %s started\n", args[0])
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a layer's container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.getApp(cmd)
			if err := app.Layers.Stop(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Layer %s stopped\n", args[0])
			return nil
		},
	}

	layerCmd.AddCommand(listCmd, startCmd, stopCmd)

	return layerCmd
}
