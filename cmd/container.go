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

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

// ContainerCommand represents the container command group.
type ContainerCommand struct{}

// NewContainerCommand creates a new ContainerCommand.
func NewContainerCommand() *ContainerCommand {
	return &ContainerCommand{}
}

// getApp retrieves the App from the command context.
func (c *ContainerCommand) getApp(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey).(*App)
}

// GetCobraCommand returns the cobra command for container operations.
func (c *ContainerCommand) GetCobraCommand() *cobra.Command {
	containerCmd := &cobra.Command{
		Use:   "container",
		Short: "Manage system containers",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List managed containers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := c.getApp(cmd)

			containers := app.Containers.List()
			if len(containers) == 0 {
				fmt.Println("No containers managed.")
				return nil
			}

			headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
			columnFmt := color.New(color.FgYellow).SprintfFunc()
			tbl := table.New("Name", "Image", "Runtime", "ID", "State")
			tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)
			for _, ct := range containers {
				tbl.AddRow(ct.Name, ct.Image, ct.Runtime, shortID(ct.ID), ct.State)
			}
			tbl.Print()
			return nil
		},
	}

	execCmd := &cobra.Command{
		Use:   "exec <name> -- <command> [args...]",
		Short: "Run a command inside a managed container",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.getApp(cmd)

			out, err := app.Containers.Exec(cmd.Context(), args[0], args[1:])
			if len(out) > 0 {
				fmt.Print(string(out))
			}
			return err
		},
	}

	startCmd := &cobra.Command{
		Use:   "start <name>",
		Short: "Start a managed container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.getApp(cmd)
			return app.Containers.Start(cmd.Context(), args[0])
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop <name>",
		Short: "Stop a managed container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.getApp(cmd)
			return app.Containers.Stop(cmd.Context(), args[0])
		},
	}

	containerCmd.AddCommand(listCmd, execCmd, startCmd, stopCmd)

	return containerCmd
}
