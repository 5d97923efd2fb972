/*
Copyright © 2025 crmstack authors
SPDX-License-Identifier: Apache-2.0
*/
package version

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Error types for version parsing failures
var (
	ErrEmptyVersion      = errors.New("version string is empty")
	ErrTooManyComponents = errors.New("version has more than 3 components")
	ErrNonNumeric        = errors.New("version component is not numeric")
	ErrNegativeComponent = errors.New("version component cannot be negative")
)

// Version represents a semantic version number with Major, Minor, and Patch
// components. Pre-release or build suffixes (e.g. "-rc.1") are preserved in
// Extras and ignored for ordering.
type Version struct {
	Major int `json:"major" yaml:"major"`
	Minor int `json:"minor" yaml:"minor"`
	Patch int `json:"patch" yaml:"patch"`

	// Extras stores any suffix following the numeric components, like "-rc.1".
	Extras string `json:"extras,omitempty" yaml:"extras,omitempty"`
}

// String returns the canonical "Major.Minor.Patch" form, without Extras.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 if v is less than, equal to, or greater than o.
// Extras are not considered.
func (v Version) Compare(o Version) int {
	for _, d := range []int{v.Major - o.Major, v.Minor - o.Minor, v.Patch - o.Patch} {
		if d < 0 {
			return -1
		}
		if d > 0 {
			return 1
		}
	}
	return 0
}

// AtLeast reports whether v is greater than or equal to o.
func (v Version) AtLeast(o Version) bool {
	return v.Compare(o) >= 0
}

// Parse parses a version string like "1.18.2", "v1.18", or "1.18.0-rc.1".
// A leading "v" is tolerated. Missing minor/patch components default to zero.
func Parse(s string) (Version, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "v"))
	if s == "" {
		return Version{}, ErrEmptyVersion
	}

	// Split off any pre-release/build suffix before the numeric parse.
	var extras string
	if i := strings.IndexAny(s, "-+"); i >= 0 {
		extras = s[i:]
		s = s[:i]
	}

	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return Version{}, fmt.Errorf("%w: %q", ErrTooManyComponents, s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q", ErrNonNumeric, p)
		}
		if n < 0 {
			return Version{}, fmt.Errorf("%w: %d", ErrNegativeComponent, n)
		}
		nums[i] = n
	}

	return Version{
		Major:  nums[0],
		Minor:  nums[1],
		Patch:  nums[2],
		Extras: extras,
	}, nil
}
