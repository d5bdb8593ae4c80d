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
	"time"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"
)

// StatusCommand represents the status command.
type StatusCommand struct{}

// NewStatusCommand creates a new StatusCommand.
func NewStatusCommand() *StatusCommand {
	return &StatusCommand{}
}

// getApp retrieves the App from the command context.
func (c *StatusCommand) getApp(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey).(*App)
}

var statusOutput string

// GetCobraCommand returns the cobra command for showing the persisted system state.
func (c *StatusCommand) GetCobraCommand() *cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted state record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := c.getApp(cmd)

			st, err := app.System.Status()
			if err != nil {
				return err
			}

			if statusOutput != "" && statusOutput != "text" {
				return PrintOutput(statusOutput, st)
			}

			if st.Timestamp.IsZero() {
				fmt.Println("No state record found. Run 'convergd deploy' first.")
				return nil
			}

			fmt.Printf("Last updated: %s\n", st.Timestamp.Format(time.RFC3339))
			if st.Applied != nil {
				fmt.Printf("Hostname: %s\n", st.Applied.Hostname)
			}
			if st.BuildPin != "" {
				fmt.Printf("Build pin: %s\n", st.BuildPin)
			}
			if st.LastHealth != nil {
				fmt.Printf("Last health: %s (%s)\n",
					titleWords(st.LastHealth.Overall),
					st.LastHealth.CheckedAt.Format(time.RFC3339))
			}

			headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
			columnFmt := color.New(color.FgYellow).SprintfFunc()

			if len(st.Containers) > 0 {
				fmt.Println()
				tbl := table.New("Container", "Image", "Runtime", "ID", "State")
				tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)
				for _, ct := range st.Containers {
					tbl.AddRow(ct.Name, ct.Image, ct.Runtime, shortID(ct.ID), ct.State)
				}
				tbl.Print()
			}

			if len(st.Layers) > 0 {
				fmt.Println()
				tbl := table.New("Layer", "Status", "Strategy")
				tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)
				for _, l := range st.Layers {
					tbl.AddRow(l.Name, l.Status, l.Strategy)
				}
				tbl.Print()
			}

			return nil
		},
	}

	statusCmd.Flags().StringVarP(&statusOutput, "output", "o", "text", "Output format (text, json, yaml)")

	return statusCmd
}

// shortID truncates a runtime container ID for display.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
