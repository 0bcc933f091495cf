package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/oshokin/get-version/internal/logger"
	"github.com/oshokin/get-version/internal/pep440"
)

// Kind identifies a supported version-control backend.
type Kind int

const (
	// KindNone means no repository marker was found.
	KindNone Kind = iota
	// KindGit is a git repository.
	KindGit
	// KindMercurial is a mercurial repository.
	KindMercurial
)

// String returns the backend's executable name, or "none".
func (k Kind) String() string {
	switch k {
	case KindGit:
		return "git"
	case KindMercurial:
		return "hg"
	default:
		return "none"
	}
}

var (
	// ErrNoTags is returned by Describe when no reachable tag matches the
	// version grammar.
	ErrNoTags = errors.New("no version tags found")

	// errUnserializable is returned when a described version cannot be
	// rendered, e.g. the tag already carries local metadata.
	errUnserializable = errors.New("unserializable version")
)

// Description is a structured version derived from repository history.
type Description struct {
	// Version is the latest reachable tag that matches the version grammar.
	Version *pep440.Version
	// Distance is the number of commits since that tag.
	Distance int
	// Commit is the short identifier of the current commit.
	Commit string
	// Dirty reports uncommitted changes in the working tree.
	Dirty bool
}

// Detect probes for repository markers upward from dir and reports which
// backend governs it. KindNone means the directory is not under any
// supported VCS.
func Detect(dir string) Kind {
	current := dir
	for {
		if info, err := os.Stat(filepath.Join(current, ".git")); err == nil && info.IsDir() {
			return KindGit
		}

		if info, err := os.Stat(filepath.Join(current, ".hg")); err == nil && info.IsDir() {
			return KindMercurial
		}

		parent := filepath.Dir(current)
		if parent == current {
			return KindNone
		}

		current = parent
	}
}

// Root resolves the repository's top-level directory via the backend's own
// root-query command, executed with dir as working directory.
func Root(ctx context.Context, kind Kind, dir string) (string, error) {
	var args []string

	switch kind {
	case KindGit:
		args = []string{"rev-parse", "--show-toplevel"}
	case KindMercurial:
		args = []string{"root"}
	default:
		return "", fmt.Errorf("unsupported VCS kind %d", kind)
	}

	out, err := output(ctx, dir, kind.String(), args...)
	if err != nil {
		return "", fmt.Errorf("query %s root: %w", kind, err)
	}

	return filepath.Clean(out), nil
}

// Describe builds a Description from the repository at dir: the latest
// reachable grammar-matching tag, the commit distance since it, the short
// commit id and the dirty flag.
func Describe(ctx context.Context, kind Kind, dir string) (*Description, error) {
	switch kind {
	case KindGit:
		return describeGit(ctx, dir)
	case KindMercurial:
		return describeMercurial(ctx, dir)
	default:
		return nil, fmt.Errorf("unsupported VCS kind %d", kind)
	}
}

// Serialize renders the description as a version string.
//
// At distance zero with a clean tree the tag's version is emitted unchanged.
// Otherwise a developmental-release segment encoding the distance is
// appended, followed by local metadata embedding the commit id and, when
// withDirty is set and the tree is dirty, a "dirty" marker.
func (d *Description) Serialize(withDirty bool) (string, error) {
	if d.Distance == 0 && !d.Dirty {
		return d.Version.String(), nil
	}

	if d.Version.Local != "" {
		return "", fmt.Errorf("%w: tag version %q already carries local metadata",
			errUnserializable, d.Version)
	}

	local := d.Commit
	if d.Dirty && withDirty {
		local += ".dirty"
	}

	return fmt.Sprintf("%s.post%d.dev0+%s", d.Version, d.Distance, local), nil
}

func describeGit(ctx context.Context, dir string) (*Description, error) {
	tags, err := output(ctx, dir, "git", "tag", "--merged", "HEAD", "--sort=-creatordate")
	if err != nil {
		return nil, fmt.Errorf("list git tags: %w", err)
	}

	desc := new(Description)

	var tag string

	for _, candidate := range strings.Fields(tags) {
		version, parseErr := pep440.ParseTag(candidate)
		if parseErr != nil {
			logger.Debugf(ctx, "Skipping tag %q: %v", candidate, parseErr)
			continue
		}

		tag, desc.Version = candidate, version

		break
	}

	if desc.Version == nil {
		return nil, fmt.Errorf("%w in git repository %q", ErrNoTags, dir)
	}

	distance, err := output(ctx, dir, "git", "rev-list", "--count", tag+"..HEAD")
	if err != nil {
		return nil, fmt.Errorf("count commits since %q: %w", tag, err)
	}

	desc.Distance, err = strconv.Atoi(distance)
	if err != nil {
		return nil, fmt.Errorf("parse commit distance %q: %w", distance, err)
	}

	desc.Commit, err = output(ctx, dir, "git", "rev-parse", "--short=7", "HEAD")
	if err != nil {
		return nil, fmt.Errorf("resolve git commit: %w", err)
	}

	status, err := output(ctx, dir, "git", "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("query git status: %w", err)
	}

	desc.Dirty = hasTrackedChanges(status)

	return desc, nil
}

// hasTrackedChanges reports whether porcelain status output contains changes
// to tracked files. Untracked files do not make a tree dirty.
func hasTrackedChanges(status string) bool {
	for _, line := range strings.Split(status, "\n") {
		if line != "" && !strings.HasPrefix(line, "??") {
			return true
		}
	}

	return false
}

func describeMercurial(ctx context.Context, dir string) (*Description, error) {
	// Tagged revisions newest first; a revision may carry several tags.
	tags, err := output(ctx, dir, "hg", "log", "-r", "reverse(tag())", "--template", "{tags}\n")
	if err != nil {
		return nil, fmt.Errorf("list hg tags: %w", err)
	}

	desc := new(Description)

	var tag string

	for _, candidate := range strings.Fields(tags) {
		version, parseErr := pep440.ParseTag(candidate)
		if parseErr != nil {
			logger.Debugf(ctx, "Skipping tag %q: %v", candidate, parseErr)
			continue
		}

		tag, desc.Version = candidate, version

		break
	}

	if desc.Version == nil {
		return nil, fmt.Errorf("%w in mercurial repository %q", ErrNoTags, dir)
	}

	// Commits that are ancestors of the working revision but not of the tag.
	revs, err := output(ctx, dir, "hg", "log",
		"-r", fmt.Sprintf("only(., %q)", tag), "--template", "{node}\n")
	if err != nil {
		return nil, fmt.Errorf("count commits since %q: %w", tag, err)
	}

	desc.Distance = len(strings.Fields(revs))

	desc.Commit, err = output(ctx, dir, "hg", "log", "-r", ".", "--template", "{node|short}")
	if err != nil {
		return nil, fmt.Errorf("resolve hg commit: %w", err)
	}

	status, err := output(ctx, dir, "hg", "status", "-mard")
	if err != nil {
		return nil, fmt.Errorf("query hg status: %w", err)
	}

	desc.Dirty = status != ""

	return desc, nil
}

// output runs a VCS command with an explicit working directory and returns
// its trimmed standard output. Invocations block until the command finishes
// or ctx is done; there are no retries.
func output(ctx context.Context, dir, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s %s: %w: %s", name, args[0], err, msg)
		}

		return "", fmt.Errorf("%s %s: %w", name, args[0], err)
	}

	return strings.TrimSpace(string(out)), nil
}
