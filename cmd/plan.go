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

	"github.com/volkov-io/convergd/internal/change"
	"github.com/volkov-io/convergd/internal/sysconfig"
)

// PlanCommand represents the plan command.
type PlanCommand struct{}

// NewPlanCommand creates a new PlanCommand.
func NewPlanCommand() *PlanCommand {
	return &PlanCommand{}
}

// getApp retrieves the App from the command context.
func (c *PlanCommand) getApp(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey).(*App)
}

var (
	planFile   string
	planOutput string
)

// plannedChange is the structured-output shape of one detected change.
type plannedChange struct {
	Type        string `json:"type" yaml:"type"`
	Field       string `json:"field" yaml:"field"`
	Strategy    string `json:"strategy" yaml:"strategy"`
	Impact      string `json:"impact" yaml:"impact"`
	Description string `json:"description" yaml:"description"`
}

// GetCobraCommand returns the cobra command for previewing changes.
func (c *PlanCommand) GetCobraCommand() *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what an update would change without applying anything",
		Long: `Plan compares the applied configuration against a desired snapshot and
prints every detected change with the strategy required to apply it.
Nothing is mutated.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := c.getApp(cmd)

			desired, err := sysconfig.LoadFile(resolveSnapshotFile(app, planFile))
			if err != nil {
				return err
			}

			result, err := app.System.Plan(desired)
			if err != nil {
				return err
			}

			changes := make([]change.Change, 0, len(result.Applied)+len(result.Pending))
			changes = append(changes, result.Applied...)
			changes = append(changes, result.Pending...)

			if planOutput != "" && planOutput != "text" {
				rows := make([]plannedChange, 0, len(changes))
				for _, ch := range changes {
					rows = append(rows, plannedChange{
						Type:        string(ch.Type),
						Field:       ch.Field,
						Strategy:    string(ch.Strategy),
						Impact:      string(ch.Impact),
						Description: ch.Description,
					})
				}
				return PrintOutput(planOutput, rows)
			}

			if len(changes) == 0 {
				fmt.Println("No changes required.")
				return nil
			}

			headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
			columnFmt := color.New(color.FgYellow).SprintfFunc()
			tbl := table.New("Type", "Field", "Strategy", "Impact", "Description")
			tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)

			for _, ch := range changes {
				tbl.AddRow(ch.Type, ch.Field, titleWords(string(ch.Strategy)), ch.Impact, ch.Description)
			}
			tbl.Print()

			if len(result.Pending) > 0 {
				fmt.Printf("\n%d change(s) require a reboot and will not be applied live.\n", len(result.Pending))
			}
			return nil
		},
	}

	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "Path to the configuration snapshot")
	planCmd.Flags().StringVarP(&planOutput, "output", "o", "text", "Output format (text, json, yaml)")

	return planCmd
}
