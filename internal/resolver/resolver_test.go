package resolver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeModule creates a module file inside dir, creating dir as needed.
func writeModule(t *testing.T, dir, name string) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("print('hi!')\n"), 0o600))

	return path
}

// writeDistInfo lays out installed-distribution metadata under site.
func writeDistInfo(t *testing.T, site, dirName string, files map[string]string) {
	t.Helper()

	infoDir := filepath.Join(site, dirName)
	require.NoError(t, os.MkdirAll(infoDir, 0o755))

	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(infoDir, name), []byte(contents), 0o600))
	}
}

// TestGetVersionFromDirname resolves versions from sdist-style directory
// names, with and without a src layout.
func TestGetVersionFromDirname(t *testing.T) {
	t.Parallel()

	cases := []struct {
		dirname string
		module  string
		want    string
		srcDir  bool
	}{
		{dirname: "pkg-1.2.3", module: "pkg.py", want: "1.2.3"},
		{dirname: "pkg_two-0.1", module: "pkg_two.py", want: "0.1"},
		{dirname: "dir-two-0.1", module: "dir_two.py", want: "0.1"},
		{dirname: "dir_mod-1.2.post29.dev0+41ced3e.dirty", module: "dir_mod.py", want: "1.2.post29.dev0+41ced3e.dirty"},
		{dirname: "pkg-1.2.3", module: "pkg.py", want: "1.2.3", srcDir: true},
	}

	for _, tc := range cases {
		dir := filepath.Join(t.TempDir(), tc.dirname)
		if tc.srcDir {
			dir = filepath.Join(dir, "src")
		}

		module := writeModule(t, dir, tc.module)

		version, err := GetVersion(context.Background(), module)
		require.NoError(t, err, tc.dirname)
		require.Equal(t, tc.want, version, tc.dirname)
	}
}

// TestGetVersionPackageRoot treats __init__.py as the package root and uses
// the grandparent directory for comparison.
func TestGetVersionPackageRoot(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "initpkg-2.5", "initpkg")
	module := writeModule(t, dir, "__init__.py")

	version, err := GetVersion(context.Background(), module)
	require.NoError(t, err)
	require.Equal(t, "2.5", version)
}

// TestGetVersionBareName resolves a bare distribution name purely via
// metadata, without touching the directory or VCS strategies.
func TestGetVersionBareName(t *testing.T) {
	t.Parallel()

	site := t.TempDir()
	writeDistInfo(t, site, "bare_pkg-3.4.5.dist-info", map[string]string{
		"METADATA": "Name: bare_pkg\nVersion: 3.4.5\n",
	})

	version, err := GetVersion(context.Background(), "bare_pkg", WithSearchPaths(site))
	require.NoError(t, err)
	require.Equal(t, "3.4.5", version)

	// Unknown bare names surface the metadata failure directly.
	_, err = GetVersion(context.Background(), "missing_pkg", WithSearchPaths(site))

	var miss *NotFoundError
	require.ErrorAs(t, err, &miss)
	require.Equal(t, SourceMetadata, miss.Source)
}

// TestGetVersionFromMetadataWithParent matches the install location against
// the module's parent directory.
func TestGetVersionFromMetadataWithParent(t *testing.T) {
	t.Parallel()

	site := t.TempDir()
	writeDistInfo(t, site, "devpkg-0.7.dist-info", map[string]string{
		"METADATA":      "Name: devpkg\nVersion: 0.7\n",
		"top_level.txt": "devpkg\n",
	})

	module := writeModule(t, filepath.Join(site, "devpkg"), "__init__.py")

	version, err := GetVersion(context.Background(), module, WithSearchPaths(site))
	require.NoError(t, err)
	require.Equal(t, "0.7", version)
}

// TestGetVersionMetadataParentMismatch rejects a same-named distribution
// installed elsewhere, naming both paths.
func TestGetVersionMetadataParentMismatch(t *testing.T) {
	t.Parallel()

	site := t.TempDir()
	writeDistInfo(t, site, "devpkg-0.7.dist-info", map[string]string{
		"METADATA":      "Name: devpkg\nVersion: 0.7\n",
		"top_level.txt": "devpkg\n",
	})

	elsewhere := t.TempDir()
	module := writeModule(t, filepath.Join(elsewhere, "devpkg"), "__init__.py")

	_, err := GetVersion(context.Background(), module, WithSearchPaths(site))

	var resolution *ResolutionError
	require.ErrorAs(t, err, &resolution)
	require.Len(t, resolution.Failures, 3)

	metadataFailure := resolution.Failures[2]
	require.Equal(t, SourceMetadata, metadataFailure.Source)

	resolvedSite, evalErr := filepath.EvalSymlinks(site)
	require.NoError(t, evalErr)

	resolvedElsewhere, evalErr := filepath.EvalSymlinks(elsewhere)
	require.NoError(t, evalErr)

	require.Contains(t, metadataFailure.Msg, resolvedSite)
	require.Contains(t, metadataFailure.Msg, resolvedElsewhere)

	// Multi-line reasons are indented in the aggregate report.
	require.Contains(t, err.Error(), "\n  ")
}

// TestGetVersionAggregatesFailures lists one reason per strategy, in chain
// order, when everything fails.
func TestGetVersionAggregatesFailures(t *testing.T) {
	t.Parallel()

	module := writeModule(t, filepath.Join(t.TempDir(), "mod_dev_dir"), "mod.py")

	_, err := GetVersion(context.Background(), module)
	require.Error(t, err)

	var resolution *ResolutionError
	require.ErrorAs(t, err, &resolution)
	require.Len(t, resolution.Failures, 3)
	require.Equal(t, SourceDirname, resolution.Failures[0].Source)
	require.Equal(t, SourceVCS, resolution.Failures[1].Source)
	require.Equal(t, SourceMetadata, resolution.Failures[2].Source)

	require.Regexp(t,
		`^no version found:\n`+
			`- Directory name: name of directory .*mod_dev_dir" does not contain a valid version\n`+
			`- VCS: could not find VCS from directory .*mod_dev_dir"\n`+
			`- Package metadata: could not find distribution "mod"$`,
		err.Error())
}

// TestGetVersionInvalidReference rejects references that are neither bare
// names nor .py paths, before any strategy runs.
func TestGetVersionInvalidReference(t *testing.T) {
	t.Parallel()

	_, err := GetVersion(context.Background(), filepath.Join(t.TempDir(), "mod.txt"))

	var invalid *InvalidReferenceError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, ".txt", invalid.Suffix)
	require.Contains(t, err.Error(), `unknown file suffix ".txt"`)

	// A suffix-less path is still invalid, with the generic message.
	_, err = GetVersion(context.Background(), "./some/dir")
	require.ErrorAs(t, err, &invalid)
	require.Empty(t, invalid.Suffix)
}
