package plugin

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a parsed MAJOR.MINOR.PATCH protocol version.
type Version struct {
	Major int
	Minor int
	Patch int
}

// ParseVersion parses a "MAJOR.MINOR.PATCH" string. A leading "v" is
// accepted.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimPrefix(strings.TrimSpace(s), "v"), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version format: %s (expected MAJOR.MINOR.PATCH)", s)
	}

	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid version component %q in %s", p, s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// String returns the string representation of the version.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Less reports whether v orders before o.
func (v Version) Less(o Version) bool {
	if v.Major != o.Major {
		return v.Major < o.Major
	}
	if v.Minor != o.Minor {
		return v.Minor < o.Minor
	}
	return v.Patch < o.Patch
}

// CheckCompatible returns an error unless a backend speaking version can
// be driven by this host. The major version must match and the version
// must not be older than MinCompatibleVersion; newer minor and patch
// versions are accepted.
func CheckCompatible(version string) error {
	backend, err := ParseVersion(version)
	if err != nil {
		return fmt.Errorf("failed to parse backend version: %w", err)
	}
	current := mustParse(ProtocolVersion)
	minimum := mustParse(MinCompatibleVersion)

	if backend.Major != current.Major {
		return fmt.Errorf("incompatible major version: backend is %s, iconform requires %d.x.x", backend, current.Major)
	}
	if backend.Less(minimum) {
		return fmt.Errorf("backend version %s is too old, minimum required is %s", backend, minimum)
	}
	return nil
}

func mustParse(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(fmt.Sprintf("invalid protocol version constant %q: %v", s, err))
	}
	return v
}
