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

	"github.com/volkov-io/convergd/internal/sysconfig"
	"github.com/volkov-io/convergd/internal/update"
)

// UpdateCommand represents the update command.
type UpdateCommand struct{}

// NewUpdateCommand creates a new UpdateCommand.
func NewUpdateCommand() *UpdateCommand {
	return &UpdateCommand{}
}

// getApp retrieves the App from the command context.
func (c *UpdateCommand) getApp(cmd *cobra.Command) *App {
	return cmd.Context().Value(appContextKey).(*App)
}

var (
	updateFile         string
	updateAllowPartial bool
	updateContinue     bool
	updateNoRollback   bool
	updateParallel     int
)

// GetCobraCommand returns the cobra command for applying a configuration update.
func (c *UpdateCommand) GetCobraCommand() *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Apply configuration changes to the running system",
		Long: `Update detects drift between the applied configuration and a desired
snapshot, takes a state snapshot, and applies every change that can be
applied without a reboot. A failed change rolls the state back unless
rollback is disabled.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app := c.getApp(cmd)

			desired, err := sysconfig.LoadFile(resolveSnapshotFile(app, updateFile))
			if err != nil {
				return err
			}

			parallel := updateParallel
			if parallel <= 0 {
				parallel = app.Config.MaxParallelOps
			}

			result, err := app.System.Update(cmd.Context(), desired, update.Options{
				AllowPartialUpdate:    updateAllowPartial,
				ContinueOnError:       updateContinue,
				RollbackOnFailure:     !updateNoRollback,
				MaxParallelOperations: parallel,
			})
			if err != nil {
				return err
			}

			c.printResult(result)

			switch result.Outcome {
			case update.OutcomeFailed:
				if result.Err != nil {
					return result.Err
				}
				return fmt.Errorf("update failed")
			case update.OutcomeRebootRequired:
				return fmt.Errorf("update blocked: %d change(s) require a reboot (use --allow-partial to apply the rest)",
					len(result.Pending))
			}
			return nil
		},
	}

	updateCmd.Flags().StringVarP(&updateFile, "file", "f", "", "Path to the configuration snapshot")
	updateCmd.Flags().BoolVar(&updateAllowPartial, "allow-partial", false, "Apply live changes even when some changes require a reboot")
	updateCmd.Flags().BoolVar(&updateContinue, "continue-on-error", false, "Keep applying remaining changes after a failure")
	updateCmd.Flags().BoolVar(&updateNoRollback, "no-rollback", false, "Do not restore the pre-update snapshot on failure")
	updateCmd.Flags().IntVar(&updateParallel, "parallel", 0, "Maximum concurrent live operations (0 uses the configured default)")

	return updateCmd
}

func (c *UpdateCommand) printResult(result update.Result) {
	fmt.Printf("Outcome: %s\n", titleWords(string(result.Outcome)))
	fmt.Printf("  applied: %d\n", len(result.Applied))
	if len(result.Failed) > 0 {
		fmt.Printf("  failed: %d\n", len(result.Failed))
		for _, f := range result.Failed {
			fmt.Printf("    %s: %v\n", f.Change.Description, f.Err)
		}
	}
	if len(result.Pending) > 0 {
		fmt.Printf("  pending reboot: %d\n", len(result.Pending))
	}
	if result.SnapshotID != "" {
		fmt.Printf("  snapshot: %s\n", result.SnapshotID)
	}
	if result.RolledBack {
		fmt.Println("  state was rolled back to the pre-update snapshot")
	}
}
