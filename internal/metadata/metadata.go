package metadata

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when no installed distribution matches a name.
	ErrNotFound = errors.New("distribution not found")

	// ErrMalformed is returned when a distribution's metadata is present but
	// its top-level modules cannot be determined. This is a defect in the
	// installed package, not a missing version.
	ErrMalformed = errors.New("malformed distribution metadata")
)

// reNormalize collapses the separator runs that installers treat as
// equivalent in distribution names.
var reNormalize = regexp.MustCompile(`[-_.]+`)

// Index locates installed distributions on a set of search paths.
type Index struct {
	searchPaths []string
}

// NewIndex creates an index over the provided search paths. Paths are probed
// lazily on every lookup; missing directories are skipped.
func NewIndex(paths ...string) *Index {
	return &Index{searchPaths: paths}
}

// Distribution is the installed metadata of a single distribution.
type Distribution struct {
	// Name is the distribution name as recorded on disk.
	Name string
	// Version is the version recorded in the metadata headers.
	Version string

	// infoDir is the .dist-info or .egg-info directory itself.
	infoDir string
	// siteDir is the search path entry containing infoDir.
	siteDir string
}

// Lookup finds the installed distribution with the given name, scanning each
// search path for dist-info and egg-info directories. Name comparison is
// case-insensitive and treats "-", "_" and "." as equivalent.
func (ix *Index) Lookup(name string) (*Distribution, error) {
	want := normalize(name)

	for _, searchPath := range ix.searchPaths {
		entries, err := os.ReadDir(searchPath)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}

			dist, ok := matchInfoDir(searchPath, entry.Name(), want)
			if !ok {
				continue
			}

			if err = dist.readVersion(); err != nil {
				return nil, err
			}

			return dist, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// TopLevel resolves the distribution's top-level module paths.
//
// An explicit top_level.txt listing is preferred. Without one, top-level
// entries are inferred from the RECORD manifest: a module is top-level if its
// recorded path has a single component, or the recorded file is itself a
// symbolic link. No determinable entries at all means the metadata is
// malformed.
func (d *Distribution) TopLevel() ([]string, error) {
	modules, err := d.topLevelListing()
	if err != nil {
		return nil, err
	}

	if len(modules) == 0 {
		modules, err = d.topLevelFromRecord()
		if err != nil {
			return nil, err
		}
	}

	if len(modules) == 0 {
		return nil, fmt.Errorf("%w: can't determine top level modules of %q", ErrMalformed, d.Name)
	}

	sort.Strings(modules)

	paths := make([]string, 0, len(modules))
	for _, module := range modules {
		paths = append(paths, filepath.Join(d.siteDir, module))
	}

	return paths, nil
}

// InstallParent returns the deduplicated parent directories of the
// distribution's top-level modules, symlinks resolved. For an installed
// package this is the install location; for a development install it is the
// repository checkout.
func (d *Distribution) InstallParent() ([]string, error) {
	paths, err := d.TopLevel()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(paths))

	parents := make([]string, 0, 1)

	for _, path := range paths {
		parent := filepath.Dir(path)
		if resolved, resolveErr := filepath.EvalSymlinks(parent); resolveErr == nil {
			parent = resolved
		}

		if _, ok := seen[parent]; ok {
			continue
		}

		seen[parent] = struct{}{}
		parents = append(parents, parent)
	}

	sort.Strings(parents)

	return parents, nil
}

// matchInfoDir checks whether a directory entry is the metadata directory of
// the wanted distribution. dist-info names carry a version suffix, egg-info
// names may or may not.
func matchInfoDir(searchPath, entryName, want string) (*Distribution, bool) {
	var stem string

	switch {
	case strings.HasSuffix(entryName, ".dist-info"):
		stem = strings.TrimSuffix(entryName, ".dist-info")
	case strings.HasSuffix(entryName, ".egg-info"):
		stem = strings.TrimSuffix(entryName, ".egg-info")
	default:
		return nil, false
	}

	name := stem
	if idx := strings.LastIndex(stem, "-"); idx > 0 {
		name = stem[:idx]
	}

	if normalize(name) != want && normalize(stem) != want {
		return nil, false
	}

	if normalize(stem) == want {
		name = stem
	}

	return &Distribution{
		Name:    name,
		infoDir: filepath.Join(searchPath, entryName),
		siteDir: searchPath,
	}, true
}

// readVersion extracts the Version header from METADATA or PKG-INFO.
func (d *Distribution) readVersion() error {
	for _, filename := range []string{"METADATA", "PKG-INFO"} {
		version, err := versionHeader(filepath.Join(d.infoDir, filename))
		if err != nil {
			continue
		}

		d.Version = version

		return nil
	}

	return fmt.Errorf("%w: distribution %q records no version", ErrMalformed, d.Name)
}

// versionHeader scans the RFC-822-style header block of a metadata file for
// its Version field.
func versionHeader(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			// End of the header block.
			break
		}

		if version, ok := strings.CutPrefix(line, "Version:"); ok {
			return strings.TrimSpace(version), nil
		}
	}

	if err = scanner.Err(); err != nil {
		return "", err
	}

	return "", fmt.Errorf("no Version header in %q", path)
}

// topLevelListing reads the explicit top_level.txt module listing, returning
// nil without error when the file is absent.
func (d *Distribution) topLevelListing() ([]string, error) {
	contents, err := os.ReadFile(filepath.Join(d.infoDir, "top_level.txt"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read top_level.txt of %q: %w", d.Name, err)
	}

	return strings.Fields(string(contents)), nil
}

// topLevelFromRecord infers top-level modules from the RECORD file manifest.
func (d *Distribution) topLevelFromRecord() ([]string, error) {
	contents, err := os.ReadFile(filepath.Join(d.infoDir, "RECORD"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("read RECORD of %q: %w", d.Name, err)
	}

	seen := make(map[string]struct{})

	var modules []string

	for _, line := range strings.Split(string(contents), "\n") {
		// RECORD lines are "path,hash,size"; only the path matters here.
		recordPath, _, _ := strings.Cut(strings.TrimSpace(line), ",")
		if recordPath == "" {
			continue
		}

		recordPath = filepath.FromSlash(recordPath)

		module, ok := topLevelEntry(d.siteDir, recordPath)
		if !ok {
			continue
		}

		if _, dup := seen[module]; dup {
			continue
		}

		seen[module] = struct{}{}
		modules = append(modules, module)
	}

	return modules, nil
}

// topLevelEntry extracts a top-level module name from one manifest path.
// Only Python sources and symlinked files count.
func topLevelEntry(siteDir, recordPath string) (string, bool) {
	isPython := strings.HasSuffix(recordPath, ".py")
	if !isPython && !isSymlink(filepath.Join(siteDir, recordPath)) {
		return "", false
	}

	parts := strings.Split(recordPath, string(filepath.Separator))
	if len(parts) > 1 {
		// Skip sibling metadata directories, they are not modules.
		if strings.Contains(parts[0], ".dist-info") || strings.Contains(parts[0], ".egg-info") {
			return "", false
		}

		return parts[0], true
	}

	return strings.TrimSuffix(parts[0], ".py"), true
}

func isSymlink(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode()&os.ModeSymlink != 0
}

func normalize(name string) string {
	return strings.ToLower(reNormalize.ReplaceAllString(name, "-"))
}
