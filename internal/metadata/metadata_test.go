package metadata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeDistInfo lays out a minimal installed distribution under site.
func writeDistInfo(t *testing.T, site, dirName string, files map[string]string) {
	t.Helper()

	infoDir := filepath.Join(site, dirName)
	require.NoError(t, os.MkdirAll(infoDir, 0o755))

	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(infoDir, name), []byte(contents), 0o600))
	}
}

// TestLookup finds a dist-info distribution by name, including normalized
// name forms, and reads its recorded version.
func TestLookup(t *testing.T) {
	t.Parallel()

	site := t.TempDir()
	writeDistInfo(t, site, "My_Package-1.2.3.dist-info", map[string]string{
		"METADATA": "Metadata-Version: 2.1\nName: My_Package\nVersion: 1.2.3\n\nBody text.\n",
	})

	ix := NewIndex(site)

	for _, name := range []string{"My_Package", "my-package", "MY.PACKAGE"} {
		dist, err := ix.Lookup(name)
		require.NoError(t, err, name)
		require.Equal(t, "1.2.3", dist.Version)
		require.Equal(t, "My_Package", dist.Name)
	}
}

// TestLookupNotFound reports ErrNotFound for unknown names and unreadable
// search paths.
func TestLookupNotFound(t *testing.T) {
	t.Parallel()

	ix := NewIndex(t.TempDir(), filepath.Join(t.TempDir(), "missing"))

	_, err := ix.Lookup("nope")
	require.ErrorIs(t, err, ErrNotFound)
}

// TestLookupEggInfo accepts egg-info directories with and without a version
// suffix in the directory name.
func TestLookupEggInfo(t *testing.T) {
	t.Parallel()

	site := t.TempDir()
	writeDistInfo(t, site, "legacy_pkg.egg-info", map[string]string{
		"PKG-INFO":      "Metadata-Version: 1.0\nName: legacy_pkg\nVersion: 0.9\n",
		"top_level.txt": "legacy_pkg\n",
	})

	dist, err := NewIndex(site).Lookup("legacy-pkg")
	require.NoError(t, err)
	require.Equal(t, "0.9", dist.Version)

	paths, err := dist.TopLevel()
	require.NoError(t, err)
	require.Equal(t, []string{filepath.Join(site, "legacy_pkg")}, paths)
}

// TestTopLevelFromRecord infers top-level modules from the RECORD manifest
// when top_level.txt is absent.
func TestTopLevelFromRecord(t *testing.T) {
	t.Parallel()

	site := t.TempDir()
	writeDistInfo(t, site, "recpkg-2.0.dist-info", map[string]string{
		"METADATA": "Name: recpkg\nVersion: 2.0\n",
		"RECORD": "recpkg/__init__.py,sha256=abc,10\n" +
			"recpkg/util.py,sha256=def,20\n" +
			"single_mod.py,sha256=ghi,5\n" +
			"recpkg-2.0.dist-info/METADATA,sha256=jkl,30\n" +
			"recpkg-2.0.dist-info/RECORD,,\n",
	})

	dist, err := NewIndex(site).Lookup("recpkg")
	require.NoError(t, err)

	paths, err := dist.TopLevel()
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(site, "recpkg"),
		filepath.Join(site, "single_mod"),
	}, paths)
}

// TestTopLevelMalformed treats undeterminable top-level modules as a hard
// metadata defect, distinct from a missing distribution.
func TestTopLevelMalformed(t *testing.T) {
	t.Parallel()

	site := t.TempDir()
	writeDistInfo(t, site, "broken-0.1.dist-info", map[string]string{
		"METADATA": "Name: broken\nVersion: 0.1\n",
	})

	dist, err := NewIndex(site).Lookup("broken")
	require.NoError(t, err)

	_, err = dist.TopLevel()
	require.ErrorIs(t, err, ErrMalformed)
}

// TestInstallParent dedupes the parents of all top-level modules.
func TestInstallParent(t *testing.T) {
	t.Parallel()

	site := t.TempDir()
	writeDistInfo(t, site, "twin-1.0.dist-info", map[string]string{
		"METADATA":      "Name: twin\nVersion: 1.0\n",
		"top_level.txt": "twin_a\ntwin_b\n",
	})

	dist, err := NewIndex(site).Lookup("twin")
	require.NoError(t, err)

	parents, err := dist.InstallParent()
	require.NoError(t, err)
	require.Len(t, parents, 1)

	resolved, err := filepath.EvalSymlinks(site)
	require.NoError(t, err)
	require.Equal(t, resolved, parents[0])
}
