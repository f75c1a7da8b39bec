package supervisordaemon

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rtsyn/rtsyn/internal/pluginabi"
)

func TestRegistryLoadMissingFileIsEmpty(t *testing.T) {
	r := NewRegistry(filepath.Join(t.TempDir(), "registry.json"))
	require.NoError(t, r.Load())
	require.Empty(t, r.List())
}

func TestRegistrySeedBuiltinsIsIdempotent(t *testing.T) {
	r := NewRegistry(filepath.Join(t.TempDir(), "registry.json"))
	r.SeedBuiltins([]string{"mock_source", "csv_recorder"})
	r.SeedBuiltins([]string{"mock_source"})

	list := r.List()
	require.Len(t, list, 2)
	for _, p := range list {
		require.False(t, p.Removable)
		require.Empty(t, p.LibraryPath)
	}
}

func TestRegistrySaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	r := NewRegistry(path)
	r.SeedBuiltins([]string{"mock_source"})
	require.NoError(t, r.Save())

	reloaded := NewRegistry(path)
	require.NoError(t, reloaded.Load())
	require.Len(t, reloaded.List(), 1)
	require.Equal(t, "mock_source", reloaded.List()[0].Manifest.Kind)
}

func TestUninstallRejectsBundledPlugin(t *testing.T) {
	r := NewRegistry(filepath.Join(t.TempDir(), "registry.json"))
	r.SeedBuiltins([]string{"mock_source"})

	_, err := r.Uninstall("mock_source")
	require.Error(t, err)
}

func TestUninstallUnknownPlugin(t *testing.T) {
	r := NewRegistry(filepath.Join(t.TempDir(), "registry.json"))
	_, err := r.Uninstall("does-not-exist")
	require.Error(t, err)
}

func TestFindByKindOrNameIsCaseInsensitiveOnName(t *testing.T) {
	r := NewRegistry(filepath.Join(t.TempDir(), "registry.json"))
	r.Installed = []pluginabi.InstalledPlugin{
		{Manifest: pluginabi.Manifest{Kind: "live_plotter", Name: "Live Plotter"}},
	}

	found, ok := r.FindByKindOrName("LIVE PLOTTER")
	require.True(t, ok)
	require.Equal(t, "live_plotter", found.Manifest.Kind)

	_, ok = r.FindByKindOrName("unknown")
	require.False(t, ok)
}
