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
	"sort"

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/spf13/cobra"

	"github.com/volkov-io/convergd/internal/system"
)

// HealthCommand represents the health command.
type HealthCommand struct{}

// NewHealthCommand creates a new HealthCommand.
func NewHealthCommand() *HealthCommand {
	return &HealthCommand{}
}

// getApp retrieves the App from the command context.
func (c *HealthCommand) getApp(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey).(*App)
}

var healthOutput string

// GetCobraCommand returns the cobra command for checking system health.
func (c *HealthCommand) GetCobraCommand() *cobra.Command {
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Aggregate container, layer, and host service health",
		Long: `Health checks every managed container, every deployed layer, and the
expected host services, and reports an aggregate status. The command
exits non-zero when the system is unhealthy.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := c.getApp(cmd)

			report := app.System.Health(cmd.Context())

			if healthOutput != "" && healthOutput != "text" {
				if err := PrintOutput(healthOutput, report); err != nil {
					return err
				}
			} else {
				c.printReport(report)
			}

			if report.Overall == system.HealthUnhealthy {
				return fmt.Errorf("system is unhealthy")
			}
			return nil
		},
	}

	healthCmd.Flags().StringVarP(&healthOutput, "output", "o", "text", "Output format (text, json, yaml)")

	return healthCmd
}

func (c *HealthCommand) printReport(report system.HealthReport) {
	fmt.Printf("Overall: %s\n\n", titleWords(string(report.Overall)))

	names := make([]string, 0, len(report.Details))
	for name := range report.Details {
		names = append(names, name)
	}
	sort.Strings(names)

	headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
	columnFmt := color.New(color.FgYellow).SprintfFunc()
	tbl := table.New("Component", "Status")
	tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)
	for _, name := range names {
		tbl.AddRow(name, report.Details[name])
	}
	tbl.Print()
}
