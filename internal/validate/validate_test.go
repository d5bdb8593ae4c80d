package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/volkov-io/convergd/internal/log"
	"github.com/volkov-io/convergd/internal/sysconfig"
	"github.com/volkov-io/convergd/internal/testutil/fakerunner"
)

func validConfig() *sysconfig.Config {
	return sysconfig.NewBuilder().
		Hostname("workstation").
		Container(sysconfig.ContainerSpec{Name: "dev", Image: "fedora-toolbox", Tag: "40"}).
		Layer(sysconfig.LayerSpec{Name: "development", Container: "dev"}).
		Build()
}

func TestConfigValid(t *testing.T) {
	assert.NoError(t, Config(validConfig()))
}

func TestConfigMissingHostname(t *testing.T) {
	cfg := sysconfig.NewBuilder().Build()

	err := Config(cfg)
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "Hostname", errs[0].Field)
}

func TestConfigContainerChecks(t *testing.T) {
	cfg := sysconfig.NewBuilder().
		Hostname("host").
		Container(sysconfig.ContainerSpec{Name: "", Image: "img"}).
		Container(sysconfig.ContainerSpec{Name: "ok", Image: ""}).
		Container(sysconfig.ContainerSpec{Name: "bad name!", Image: "img"}).
		Build()

	err := Config(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "container name is required")
	assert.Contains(t, err.Error(), "container image is required")
	assert.Contains(t, err.Error(), "invalid container name")
}

func TestConfigDuplicateContainerNames(t *testing.T) {
	cfg := sysconfig.NewBuilder().
		Hostname("host").
		Container(sysconfig.ContainerSpec{Name: "dev", Image: "a"}).
		Container(sysconfig.ContainerSpec{Name: "dev", Image: "b"}).
		Build()

	err := Config(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate container name")
}

func TestConfigCircularLayerDependency(t *testing.T) {
	cfg := sysconfig.NewBuilder().
		Hostname("host").
		Layer(sysconfig.LayerSpec{Name: "x", Dependencies: []string{"y"}}).
		Layer(sysconfig.LayerSpec{Name: "y", Dependencies: []string{"x"}}).
		Build()

	err := Config(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestConfigSelfDependency(t *testing.T) {
	cfg := sysconfig.NewBuilder().
		Hostname("host").
		Layer(sysconfig.LayerSpec{Name: "x", Dependencies: []string{"x"}}).
		Build()

	err := Config(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot depend on itself")
}

func TestConfigUnknownReferences(t *testing.T) {
	cfg := sysconfig.NewBuilder().
		Hostname("host").
		Layer(sysconfig.LayerSpec{Name: "apps", Container: "missing", Dependencies: []string{"ghost"}}).
		Build()

	err := Config(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown container")
	assert.Contains(t, err.Error(), "unknown layer")
}

func TestConfigAcyclicChainAccepted(t *testing.T) {
	cfg := sysconfig.NewBuilder().
		Hostname("host").
		Layer(sysconfig.LayerSpec{Name: "a"}).
		Layer(sysconfig.LayerSpec{Name: "b", Dependencies: []string{"a"}}).
		Layer(sysconfig.LayerSpec{Name: "c", Dependencies: []string{"b"}}).
		Build()

	assert.NoError(t, Config(cfg))
}

func TestSystemRequirements(t *testing.T) {
	runner := fakerunner.New()
	runner.SetOutput("podman", []string{"--version"}, []byte("podman version 5.0.0\n"))

	v := NewValidator(log.NewLogger(false), runner)
	assert.NoError(t, v.SystemRequirements(context.Background(), "podman"))
}

func TestSystemRequirementsMissingRuntime(t *testing.T) {
	runner := fakerunner.New()
	runner.SetError("podman", []string{"--version"}, errors.New("executable not found"))

	v := NewValidator(log.NewLogger(false), runner)
	err := v.SystemRequirements(context.Background(), "podman")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "podman")
}
