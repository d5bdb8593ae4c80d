// Package cmd provides output formatting utilities for the convergd CLI.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var titleCaser = cases.Title(language.English)

// titleWords renders a dash- or underscore-separated identifier as a
// human-readable title, e.g. "reboot-required" -> "Reboot Required".
func titleWords(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return titleCaser.String(s)
}

// PrintOutput formats and prints data according to the specified output format.
func PrintOutput(format string, data interface{}) error {
	switch strings.ToLower(format) {
	case "json":
		return printJSON(data)
	case "yaml", "yml":
		return printYAML(data)
	case "", "text":
		return nil // text rendering is handled by the caller
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer func() {
		_ = encoder.Close()
	}()
	return encoder.Encode(data)
}
