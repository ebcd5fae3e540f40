package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Version is a semantic version triple. It marshals to the usual
// "major.minor.patch" string so save files stay human-readable.
type Version struct {
	Major int
	Minor int
	Patch int
}

// CurrentSaveVersion is written into every new save.
var CurrentSaveVersion = Version{Major: 1, Minor: 2, Patch: 0}

// MinSupportedSaveVersion is the oldest save format the engine still loads.
var MinSupportedSaveVersion = Version{Major: 1, Minor: 0, Patch: 0}

// String returns the "major.minor.patch" form.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 if v is older than, equal to or newer than other.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		return sign(v.Major - other.Major)
	}
	if v.Minor != other.Minor {
		return sign(v.Minor - other.Minor)
	}
	return sign(v.Patch - other.Patch)
}

// IsZero reports whether the version was never set.
func (v Version) IsZero() bool {
	return v.Major == 0 && v.Minor == 0 && v.Patch == 0
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

// ParseVersion parses a "major.minor.patch" string.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor.patch", s)
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
		}
		if n < 0 {
			return Version{}, fmt.Errorf("invalid version %q: negative component", s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

// MarshalJSON encodes the version as a string.
func (v Version) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON accepts the string form.
func (v *Version) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("version must be a string: %w", err)
	}
	parsed, err := ParseVersion(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
