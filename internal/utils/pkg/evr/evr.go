// Package evr implements the epoch-version-release ordering used to decide
// which of two builds of the same package is newer.
package evr

import (
	"fmt"
	"strings"
)

// EVR is an epoch, version, release triple. Two EVRs are equal when Compare
// ranks them equal, not when their strings match byte for byte.
type EVR struct {
	Epoch   string
	Version string
	Release string
}

// New builds an EVR, treating an empty epoch as "0".
func New(epoch, version, release string) EVR {
	if epoch == "" {
		epoch = "0"
	}
	return EVR{Epoch: epoch, Version: version, Release: release}
}

// String renders the EVR as [E:]V-R, dropping a zero epoch.
func (e EVR) String() string {
	var sb strings.Builder
	if e.Epoch != "" && e.Epoch != "0" {
		sb.WriteString(e.Epoch)
		sb.WriteByte(':')
	}
	sb.WriteString(e.Version)
	if e.Release != "" {
		sb.WriteByte('-')
		sb.WriteString(e.Release)
	}
	return sb.String()
}

// Parse reads an "[E:]V[-R]" string. The release is everything after the
// last dash; a missing epoch becomes "0".
func Parse(s string) (EVR, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return EVR{}, fmt.Errorf("empty version string")
	}

	epoch := "0"
	if idx := strings.IndexByte(s, ':'); idx >= 0 {
		epoch = s[:idx]
		s = s[idx+1:]
		if epoch == "" {
			epoch = "0"
		}
		for i := 0; i < len(epoch); i++ {
			if !isDigit(epoch[i]) {
				return EVR{}, fmt.Errorf("invalid epoch %q: must be numeric", epoch)
			}
		}
	}

	version, release := s, ""
	if idx := strings.LastIndexByte(s, '-'); idx >= 0 {
		version, release = s[:idx], s[idx+1:]
	}
	if version == "" {
		return EVR{}, fmt.Errorf("missing version in %q", s)
	}
	return EVR{Epoch: epoch, Version: version, Release: release}, nil
}

// Compare returns -1, 0 or 1 as a is older than, equal to, or newer than b.
// Epochs decide first, then versions, then releases.
func Compare(a, b EVR) int {
	if rc := Vercmp(normEpoch(a.Epoch), normEpoch(b.Epoch)); rc != 0 {
		return rc
	}
	if rc := Vercmp(a.Version, b.Version); rc != 0 {
		return rc
	}
	return Vercmp(a.Release, b.Release)
}

// Less reports whether a orders strictly before b.
func Less(a, b EVR) bool {
	return Compare(a, b) < 0
}

// Equal reports whether a and b rank equal.
func Equal(a, b EVR) bool {
	return Compare(a, b) == 0
}

func normEpoch(e string) string {
	if e == "" {
		return "0"
	}
	return e
}

// Vercmp compares two version or release strings segment by segment.
//
// Runs of characters that are neither alphanumeric nor '~' only separate
// segments. A '~' sorts before anything, including the end of the string.
// Digit runs compare numerically and always beat letter runs; letter runs
// compare bytewise. When one side runs out of segments first it is older.
func Vercmp(a, b string) int {
	if a == b {
		return 0
	}

	i, j := 0, 0
	for i < len(a) || j < len(b) {
		for i < len(a) && !isAlnum(a[i]) && a[i] != '~' {
			i++
		}
		for j < len(b) && !isAlnum(b[j]) && b[j] != '~' {
			j++
		}

		aTilde := i < len(a) && a[i] == '~'
		bTilde := j < len(b) && b[j] == '~'
		if aTilde || bTilde {
			if !aTilde {
				return 1
			}
			if !bTilde {
				return -1
			}
			i++
			j++
			continue
		}

		if i >= len(a) || j >= len(b) {
			break
		}

		si, sj := i, j
		numeric := isDigit(a[i])
		if numeric {
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			for j < len(b) && isDigit(b[j]) {
				j++
			}
		} else {
			for i < len(a) && isAlpha(a[i]) {
				i++
			}
			for j < len(b) && isAlpha(b[j]) {
				j++
			}
		}
		segA, segB := a[si:i], b[sj:j]

		// b holds a segment of the other kind here
		if segB == "" {
			if numeric {
				return 1
			}
			return -1
		}

		var rc int
		if numeric {
			rc = compareNumeric(segA, segB)
		} else {
			rc = strings.Compare(segA, segB)
		}
		if rc != 0 {
			return rc
		}
	}

	switch {
	case i >= len(a) && j >= len(b):
		return 0
	case i >= len(a):
		return -1
	default:
		return 1
	}
}

// compareNumeric orders two digit runs by value without parsing them, so
// arbitrarily long runs never overflow.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) > len(b) {
			return 1
		}
		return -1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isAlnum(c byte) bool { return isDigit(c) || isAlpha(c) }
