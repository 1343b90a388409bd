package ident

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Ident identifies a package build as origin/name[/version[/release]].
// Origin and name are always present; version and release narrow the
// identifier down to a single installable artifact.
type Ident struct {
	Origin  string
	Name    string
	Version string
	Release string
}

var errEmptyIdent = errors.New("package identifier is empty")

// Parse converts an origin/name[/version[/release]] string into an Ident.
func Parse(s string) (Ident, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Ident{}, errEmptyIdent
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 || len(parts) > 4 {
		return Ident{}, fmt.Errorf("invalid package identifier %q: expected origin/name[/version[/release]]", s)
	}
	for i, part := range parts {
		if strings.TrimSpace(part) == "" {
			return Ident{}, fmt.Errorf("invalid package identifier %q: segment %d is empty", s, i+1)
		}
	}

	id := Ident{Origin: parts[0], Name: parts[1]}
	if len(parts) > 2 {
		id.Version = parts[2]
	}
	if len(parts) > 3 {
		id.Release = parts[3]
	}
	return id, nil
}

// MustParse parses s or panics. Reserved for identifiers known at compile time.
func MustParse(s string) Ident {
	id, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return id
}

// String renders the identifier with as many segments as are set.
func (i Ident) String() string {
	parts := []string{i.Origin, i.Name}
	if i.Version != "" {
		parts = append(parts, i.Version)
		if i.Release != "" {
			parts = append(parts, i.Release)
		}
	}
	return strings.Join(parts, "/")
}

// FullyQualified reports whether every segment is populated.
func (i Ident) FullyQualified() bool {
	return i.Origin != "" && i.Name != "" && i.Version != "" && i.Release != ""
}

// Satisfies reports whether candidate matches every segment set on i.
// Unset version/release on i act as wildcards.
func (i Ident) Satisfies(candidate Ident) bool {
	if i.Origin != candidate.Origin || i.Name != candidate.Name {
		return false
	}
	if i.Version != "" && i.Version != candidate.Version {
		return false
	}
	if i.Release != "" && i.Release != candidate.Release {
		return false
	}
	return true
}

// Less reports whether i orders strictly before other.
func (i Ident) Less(other Ident) bool {
	return Compare(i, other) < 0
}

// Compare totally orders two identifiers. Origin and name compare
// lexically, versions segment-wise with numeric-aware comparison, and
// releases lexically (release timestamps sort correctly that way).
func Compare(a, b Ident) int {
	if c := strings.Compare(a.Origin, b.Origin); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := compareVersions(a.Version, b.Version); c != 0 {
		return c
	}
	return strings.Compare(a.Release, b.Release)
}

func compareVersions(a, b string) int {
	if a == b {
		return 0
	}
	// An absent version sorts before any concrete version.
	if a == "" {
		return -1
	}
	if b == "" {
		return 1
	}

	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareSegment(as[i], bs[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(as) < len(bs):
		return -1
	case len(as) > len(bs):
		return 1
	default:
		return 0
	}
}

func compareSegment(a, b string) int {
	an, aerr := strconv.ParseUint(a, 10, 64)
	bn, berr := strconv.ParseUint(b, 10, 64)
	if aerr == nil && berr == nil {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	// Numeric segments sort before non-numeric ones so 1.2.3 < 1.2.3-rc1.
	if aerr == nil {
		return -1
	}
	if berr == nil {
		return 1
	}
	return strings.Compare(a, b)
}
