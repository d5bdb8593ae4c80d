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

	"github.com/spf13/cobra"
)

// RollbackCommand represents the rollback command.
type RollbackCommand struct{}

// NewRollbackCommand creates a new RollbackCommand.
func NewRollbackCommand() *RollbackCommand {
	return &RollbackCommand{}
}

// getApp retrieves the App from the command context.
func (c *RollbackCommand) getApp(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey).(*App)
}

// GetCobraCommand returns the cobra command for rolling back to a snapshot.
func (c *RollbackCommand) GetCobraCommand() *cobra.Command {
	rollbackCmd := &cobra.Command{
		Use:   "rollback [snapshot-id]",
		Short: "Restore the state record from a snapshot",
		Long: `Rollback restores the state record from a snapshot, byte for byte.
Without an argument the most recent snapshot is used. Use
'convergd snapshot list' to see what is available.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := c.getApp(cmd)

			id := ""
			if len(args) > 0 {
				id = args[0]
			}

			if err := app.System.Rollback(id); err != nil {
				return err
			}

			if id == "" {
				fmt.Println("Restored state from the latest snapshot.")
			} else {
				fmt.Printf("Restored state from snapshot %s.\n", id)
			}
			return nil
		},
	}

	return rollbackCmd
}
