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

// SnapshotCommand represents the snapshot command group.
type SnapshotCommand struct{}

// NewSnapshotCommand creates a new SnapshotCommand.
func NewSnapshotCommand() *SnapshotCommand {
	return &SnapshotCommand{}
}

// getApp retrieves the App from the command context.
func (c *SnapshotCommand) getApp(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey).(*App)
}

// GetCobraCommand returns the cobra command for snapshot operations.
func (c *SnapshotCommand) GetCobraCommand() *cobra.Command {
	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage state snapshots",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available state snapshots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := c.getApp(cmd)

			metas, err := app.Snapshots.List()
			if err != nil {
				return err
			}

			if len(metas) == 0 {
				fmt.Println("No snapshots found.")
				return nil
			}

			headerFmt := color.New(color.FgGreen, color.Underline).SprintfFunc()
			columnFmt := color.New(color.FgYellow).SprintfFunc()
			tbl := table.New("ID", "Created", "Size")
			tbl.WithHeaderFormatter(headerFmt).WithFirstColumnFormatter(columnFmt)
			for _, meta := range metas {
				tbl.AddRow(meta.ID, meta.CreatedAt.Format(time.RFC3339), fmt.Sprintf("%d B", meta.Size))
			}
			tbl.Print()
			return nil
		},
	}

	captureCmd := &cobra.Command{
		Use:   "capture",
		Short: "Capture a snapshot of the current state record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := c.getApp(cmd)

			id, err := app.Snapshots.Capture()
			if err != nil {
				return err
			}
			fmt.Printf("Captured snapshot %s\n", id)
			return nil
		},
	}

	snapshotCmd.AddCommand(listCmd, captureCmd)

	return snapshotCmd
}
