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

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// releaseSlug is the GitHub repository releases are published to.
const releaseSlug = "volkov-io/convergd"

// SelfUpdateCommand represents the self-update command.
type SelfUpdateCommand struct{}

// NewSelfUpdateCommand creates a new SelfUpdateCommand.
func NewSelfUpdateCommand() *SelfUpdateCommand {
	return &SelfUpdateCommand{}
}

// GetCobraCommand returns the cobra command for updating the binary.
func (c *SelfUpdateCommand) GetCobraCommand() *cobra.Command {
	selfUpdateCmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update convergd to the latest version",
		Long:  `Update convergd to the latest version from GitHub releases.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Printf("Current version: %s\n", Version)
			fmt.Println("Checking for updates...")

			latest, found, err := selfupdate.DetectLatest(cmd.Context(), selfupdate.ParseSlug(releaseSlug))
			if err != nil {
				return fmt.Errorf("failed to check for updates: %w", err)
			}

			if !found {
				fmt.Println("No release found")
				return nil
			}

			if latest.LessOrEqual(Version) {
				fmt.Println("You are already running the latest version.")
				return nil
			}

			fmt.Printf("Update available! New version: %s\n", latest.Version())
			fmt.Println("Downloading and applying update...")

			exe, err := selfupdate.ExecutablePath()
			if err != nil {
				return fmt.Errorf("failed to get executable path: %w", err)
			}

			if err := selfupdate.UpdateTo(cmd.Context(), latest.AssetURL, latest.AssetName, exe); err != nil {
				return fmt.Errorf("failed to update: %w", err)
			}

			fmt.Printf("Update completed successfully! Please restart %s to use the new version.\n", "convergd")
			return nil
		},
	}

	return selfUpdateCmd
}
