package change

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClassifier() *Classifier {
	return NewClassifier([]string{"nginx", "sshd", "systemd-resolved"}, "firewalld")
}

func TestClassifyEmptyInput(t *testing.T) {
	buckets := testClassifier().Classify(nil)
	assert.Zero(t, buckets.Total())
}

func TestClassifyPreservesOrderWithinBuckets(t *testing.T) {
	changes := []Change{
		{Type: TypePackageInstall, Field: "git"},
		{Type: TypeUserRemove, Field: "bob"},
		{Type: TypePackageInstall, Field: "vim"},
		{Type: TypeServiceStateToggle, Field: "cups", AffectedService: "cups"},
		{Type: TypePackageInstall, Field: "curl"},
	}

	buckets := testClassifier().Classify(changes)

	require.Len(t, buckets.Live, 3)
	assert.Equal(t, "git", buckets.Live[0].Field)
	assert.Equal(t, "vim", buckets.Live[1].Field)
	assert.Equal(t, "curl", buckets.Live[2].Field)
	require.Len(t, buckets.ServiceReload, 1)
	require.Len(t, buckets.RebootRequired, 1)
}

func TestClassifyServiceConfigUsesAllowList(t *testing.T) {
	cl := testClassifier()

	listed := cl.Classify([]Change{
		{Type: TypeServiceConfigUpdate, Field: "nginx", AffectedService: "nginx"},
	})
	require.Len(t, listed.ServiceReload, 1)
	assert.Equal(t, StrategyServiceReload, listed.ServiceReload[0].Strategy)

	unlisted := cl.Classify([]Change{
		{Type: TypeServiceConfigUpdate, Field: "mysqld", AffectedService: "mysqld"},
	})
	require.Len(t, unlisted.RebootRequired, 1)
}

func TestClassifyStateToggleOfUnlistedServiceReloads(t *testing.T) {
	buckets := testClassifier().Classify([]Change{
		{Type: TypeServiceStateToggle, Field: "mysqld", AffectedService: "mysqld"},
	})
	require.Len(t, buckets.ServiceReload, 1)
	assert.Empty(t, buckets.RebootRequired)
}

func TestClassifyUserRemovalAlwaysRebootRequired(t *testing.T) {
	// Even with every service reloadable, user removal stays gated.
	cl := NewClassifier([]string{"mysqld", "nginx", "everything"}, "firewalld")

	buckets := cl.Classify([]Change{
		{Type: TypeUserRemove, Field: "alice"},
	})
	require.Len(t, buckets.RebootRequired, 1)
	assert.Equal(t, StrategyRebootRequired, buckets.RebootRequired[0].Strategy)
}

func TestClassifySystemConfigFields(t *testing.T) {
	buckets := testClassifier().Classify([]Change{
		{Type: TypeSystemConfig, Field: "hostname"},
		{Type: TypeSystemConfig, Field: "timezone"},
		{Type: TypeSystemConfig, Field: "locale"},
	})

	assert.Len(t, buckets.Live, 2)
	require.Len(t, buckets.RebootRequired, 1)
	assert.Equal(t, "locale", buckets.RebootRequired[0].Field)
}

func TestClassifyPackageStrategies(t *testing.T) {
	buckets := testClassifier().Classify([]Change{
		{Type: TypePackageInstall, Field: "git"},
		{Type: TypePackageRemove, Field: "nano"},
	})

	require.Len(t, buckets.Live, 1)
	assert.Equal(t, TypePackageInstall, buckets.Live[0].Type)
	require.Len(t, buckets.RebootRequired, 1)
	assert.Equal(t, TypePackageRemove, buckets.RebootRequired[0].Type)
}

func TestClassifySecurityConfig(t *testing.T) {
	buckets := testClassifier().Classify([]Change{
		{Type: TypeSecurityConfig, Field: "updated"},
		{Type: TypeSecurityConfig, Field: "selinuxMode"},
	})

	require.Len(t, buckets.ServiceReload, 1)
	assert.Equal(t, "firewalld", buckets.ServiceReload[0].AffectedService)
	require.Len(t, buckets.RebootRequired, 1)
}

func TestClassifySecurityConfigUsesConfiguredService(t *testing.T) {
	cl := NewClassifier([]string{"nginx"}, "nftables")

	buckets := cl.Classify([]Change{
		{Type: TypeSecurityConfig, Field: "updated"},
	})

	require.Len(t, buckets.ServiceReload, 1)
	assert.Equal(t, "nftables", buckets.ServiceReload[0].AffectedService)
}

func TestClassifySecurityConfigKeepsExplicitService(t *testing.T) {
	cl := NewClassifier([]string{"nginx"}, "nftables")

	buckets := cl.Classify([]Change{
		{Type: TypeSecurityConfig, Field: "updated", AffectedService: "apparmor"},
	})

	require.Len(t, buckets.ServiceReload, 1)
	assert.Equal(t, "apparmor", buckets.ServiceReload[0].AffectedService)
}

func TestClassifyDesktopConfig(t *testing.T) {
	buckets := testClassifier().Classify([]Change{
		{Type: TypeDesktopConfig, Field: "updated"},
		{Type: TypeDesktopConfig, Field: "enabled"},
		{Type: TypeDesktopConfig, Field: "disabled"},
	})

	assert.Len(t, buckets.Live, 1)
	assert.Len(t, buckets.RebootRequired, 2)
}
