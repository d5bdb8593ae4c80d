package layer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeBase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "os-release")
	content := `NAME="Fedora Linux"
VERSION="41 (Workstation Edition)"
ID=fedora
VERSION_ID=41
PRETTY_NAME="Fedora Linux 41 (Workstation Edition)"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	base, err := DescribeBase(path, "sha256:pin")
	require.NoError(t, err)
	assert.Equal(t, "Fedora Linux 41 (Workstation Edition)", base.Name)
	assert.Equal(t, "fedora", base.ID)
	assert.Equal(t, "41", base.Version)
	assert.Equal(t, "sha256:pin", base.BuildPin)
}

func TestDescribeBaseMissingFile(t *testing.T) {
	_, err := DescribeBase("/nonexistent/os-release", "")
	assert.Error(t, err)
}
