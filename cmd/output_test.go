package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitleWords(t *testing.T) {
	assert.Equal(t, "Reboot Required", titleWords("reboot-required"))
	assert.Equal(t, "No Changes Required", titleWords("no-changes-required"))
	assert.Equal(t, "Partial Success", titleWords("partial_success"))
	assert.Equal(t, "Healthy", titleWords("healthy"))
}

func TestPrintOutputUnsupportedFormat(t *testing.T) {
	err := PrintOutput("xml", map[string]string{"a": "b"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestPrintOutputTextIsCallerRendered(t *testing.T) {
	assert.NoError(t, PrintOutput("text", nil))
	assert.NoError(t, PrintOutput("", nil))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "abc", shortID("abc"))
	assert.Equal(t, "0123456789ab", shortID("0123456789abcdef0123"))
}
