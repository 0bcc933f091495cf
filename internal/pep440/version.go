package pep440

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// Pattern is the unanchored version grammar. Other packages embed it into
// larger expressions, so it contains only named groups and no anchors.
//
// Shape: [epoch!]base[separator stage [revision]]*[-alt][+local] where base is
// one or more dot-separated integers and local is a dot/underscore/hyphen
// separated run of lowercase alphanumeric segments.
const Pattern = `(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<base>[0-9]+(?:\.[0-9]+)*)` +
	`(?:[-_.]?(?P<stage>a|b|c|rc|alpha|beta|pre|preview|post|rev|r|dev)[-_.]?(?P<revision>[0-9]+)?)*` +
	`(?:-(?P<alt>[0-9]+))?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?`

var (
	// reVersion matches a complete version string, anchored at both ends so
	// partial matches never leak out as garbage tokens.
	reVersion = regexp.MustCompile(`\A(?:` + Pattern + `)\z`)

	// reTag is the same grammar with an optional leading "v", the common VCS
	// tag convention.
	reTag = regexp.MustCompile(`\Av?(?:` + Pattern + `)\z`)

	// errNotAVersion is returned when a candidate does not match the grammar.
	errNotAVersion = errors.New("not a valid version")
)

// Version is a decomposed version string.
//
// The stage group of the grammar may repeat ("1.2.post29.dev0"); Stage and
// Revision then hold the last occurrence. Raw always holds the complete
// matched text, so rendering never loses information.
type Version struct {
	// Raw is the full matched version text, without any leading "v".
	Raw string
	// Epoch is the optional "N!" epoch prefix.
	Epoch *int
	// Base is the dot-separated numeric release segment. Never empty.
	Base string
	// Stage is the last pre/post/dev keyword, empty when absent.
	Stage string
	// Revision is the numeric revision attached to Stage, nil when absent.
	Revision *int
	// AltRevision is the trailing "-N" post-release shorthand, nil when absent.
	AltRevision *int
	// Local is the "+local" metadata segment, empty when absent.
	Local string
}

// Parse decomposes a candidate string into a Version. The whole candidate
// must match the grammar; there is no substring search.
func Parse(candidate string) (*Version, error) {
	return parse(reVersion, candidate, candidate)
}

// ParseTag parses a VCS tag, tolerating an optional leading "v".
// The returned Version carries the tag text without that prefix.
func ParseTag(tag string) (*Version, error) {
	raw := tag
	if len(raw) > 1 && raw[0] == 'v' {
		raw = raw[1:]
	}

	return parse(reTag, tag, raw)
}

// IsValid reports whether the candidate matches the full version grammar.
func IsValid(candidate string) bool {
	return reVersion.MatchString(candidate)
}

func parse(re *regexp.Regexp, candidate, raw string) (*Version, error) {
	groups := re.FindStringSubmatch(candidate)
	if groups == nil {
		return nil, fmt.Errorf("%w: %q", errNotAVersion, candidate)
	}

	v := &Version{Raw: raw}

	for i, name := range re.SubexpNames() {
		value := groups[i]
		if value == "" {
			continue
		}

		switch name {
		case "epoch":
			v.Epoch = atoiRef(value)
		case "base":
			v.Base = value
		case "stage":
			v.Stage = value
		case "revision":
			v.Revision = atoiRef(value)
		case "alt":
			v.AltRevision = atoiRef(value)
		case "local":
			v.Local = value
		}
	}

	return v, nil
}

// String renders the version exactly as it was matched.
func (v *Version) String() string {
	return v.Raw
}

func atoiRef(s string) *int {
	// The grammar only admits digit runs here, so Atoi cannot fail.
	n, _ := strconv.Atoi(s)
	return &n
}
