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

// HistoryCommand represents the history command.
type HistoryCommand struct{}

// NewHistoryCommand creates a new HistoryCommand.
func NewHistoryCommand() *HistoryCommand {
	return &HistoryCommand{}
}

// getApp retrieves the App from the command context.
func (c *HistoryCommand) getApp(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey).(*App)
}

var historyLimit int

// GetCobraCommand returns the cobra command for listing audit events.
func (c *HistoryCommand) GetCobraCommand() *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded update and health events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := c.getApp(cmd)

			entries, err := app.Audit.List(historyLimit)
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Println("No events recorded.")
				return nil
			}

			headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
			columnFmt := color.New(color.FgYellow).SprintfFunc()
			tbl := table.New("Time", "Level", "Title", "Message")
			tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)
			for _, e := range entries {
				title := e.Title
				if e.Urgent {
					title = "! " + title
				}
				tbl.AddRow(e.CreatedAt.Format(time.RFC3339), e.Level, title, e.Message)
			}
			tbl.Print()
			return nil
		},
	}

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of events to show")

	return historyCmd
}
