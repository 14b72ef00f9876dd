package domain

import (
	"fmt"
	"strings"
)

// AccessLevel is how much of a lead's contact information a company may see.
// Levels are ordered: none < basic < contact < full.
type AccessLevel string

const (
	AccessNone    AccessLevel = "none"
	AccessBasic   AccessLevel = "basic"
	AccessContact AccessLevel = "contact"
	AccessFull    AccessLevel = "full"
)

var accessRank = map[AccessLevel]int{
	AccessNone:    0,
	AccessBasic:   1,
	AccessContact: 2,
	AccessFull:    3,
}

// Rank orders levels. Unknown levels rank as none.
func (a AccessLevel) Rank() int {
	return accessRank[a]
}

// AtLeast reports whether a grants at least min.
func (a AccessLevel) AtLeast(min AccessLevel) bool {
	return a.Rank() >= min.Rank()
}

// MaxAccess returns the highest of the given levels, or none.
func MaxAccess(levels ...AccessLevel) AccessLevel {
	best := AccessNone
	for _, l := range levels {
		if l.Rank() > best.Rank() {
			best = l
		}
	}
	return best
}

// ParseAccessLevel parses a stored or requested level.
func ParseAccessLevel(raw string) (AccessLevel, error) {
	level := AccessLevel(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := accessRank[level]; !ok {
		return AccessNone, fmt.Errorf("unknown access level %q", raw)
	}
	return level, nil
}

// IsPurchasable reports whether a company can buy the level directly.
func (a AccessLevel) IsPurchasable() bool {
	return a == AccessContact || a == AccessFull
}
