// Package domain provides core business rules for the leads bounded context.
package domain

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// Status is a canonical lead status.
type Status string

const (
	StatusNew        Status = "new"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusWon        Status = "won"
	StatusLost       Status = "lost"
	StatusCompleted  Status = "completed"

	// FallbackStatus is returned for input that matches no known value.
	FallbackStatus = StatusNew
)

// AllStatuses lists the canonical set in lifecycle order.
var AllStatuses = []Status{
	StatusNew,
	StatusAssigned,
	StatusInProgress,
	StatusWon,
	StatusLost,
	StatusCompleted,
}

func (s Status) String() string { return string(s) }

// IsCanonical reports whether s is a member of the canonical set.
func (s Status) IsCanonical() bool {
	_, ok := canonicalStatuses[s]
	return ok
}

var canonicalStatuses = func() map[Status]struct{} {
	m := make(map[Status]struct{}, len(AllStatuses))
	for _, s := range AllStatuses {
		m[s] = struct{}{}
	}
	return m
}()

//go:embed status_aliases.yaml
var statusAliasesYAML []byte

// statusAliases maps a folded legacy value to its canonical status.
var statusAliases = mustLoadStatusAliases(statusAliasesYAML)

func mustLoadStatusAliases(raw []byte) map[string]Status {
	var table map[Status][]string
	if err := yaml.Unmarshal(raw, &table); err != nil {
		panic(fmt.Sprintf("leads: parse status aliases: %v", err))
	}

	aliases := make(map[string]Status)
	for status, values := range table {
		if !status.IsCanonical() {
			panic(fmt.Sprintf("leads: alias table targets unknown status %q", status))
		}
		for _, v := range values {
			key := foldStatus(v)
			if prev, dup := aliases[key]; dup && prev != status {
				panic(fmt.Sprintf("leads: alias %q maps to both %q and %q", v, prev, status))
			}
			aliases[key] = status
		}
	}
	return aliases
}

// Normalizer maps raw status strings to canonical statuses and reports values
// it does not recognize.
type Normalizer struct {
	onUnknown func(raw string)
}

// NewNormalizer creates a normalizer. onUnknown may be nil; when set it is
// called synchronously with every unrecognized raw value and must not block.
func NewNormalizer(onUnknown func(raw string)) *Normalizer {
	return &Normalizer{onUnknown: onUnknown}
}

// Normalize never fails: unknown input yields FallbackStatus.
func (n *Normalizer) Normalize(raw string) Status {
	if s, ok := ParseStatus(raw); ok {
		return s
	}
	if n != nil && n.onUnknown != nil {
		n.onUnknown(raw)
	}
	return FallbackStatus
}

var defaultNormalizer = NewNormalizer(nil)

// NormalizeStatus maps any string to a canonical status without reporting
// unknown values.
func NormalizeStatus(raw string) Status {
	return defaultNormalizer.Normalize(raw)
}

// ParseStatus is the strict variant: it reports false when raw matches
// neither a canonical status nor a known alias.
func ParseStatus(raw string) (Status, bool) {
	key := foldStatus(raw)
	if key == "" {
		return "", false
	}
	if s, ok := lookupStatus(key); ok {
		return s, true
	}

	// Emoji-prefixed labels like "✅ Vunnet": try the emoji, then the label.
	symbol, rest := splitLeadingSymbols(key)
	if symbol == "" {
		return "", false
	}
	if s, ok := lookupStatus(symbol); ok {
		return s, true
	}
	if rest != "" {
		return lookupStatus(rest)
	}
	return "", false
}

func lookupStatus(key string) (Status, bool) {
	if s := Status(key); s.IsCanonical() {
		return s, true
	}
	s, ok := statusAliases[key]
	return s, ok
}

// foldStatus trims, lowercases, drops variation selectors and joins words
// with underscores, so "Under behandling" and "under-behandling" fold alike.
func foldStatus(raw string) string {
	var b strings.Builder
	lastSep := true
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r == '\uFE0F' || r == '\uFE0E' || r == '\u200D':
			continue
		case r == ' ' || r == '-' || r == '_' || r == '\t':
			if !lastSep {
				b.WriteByte('_')
				lastSep = true
			}
		default:
			b.WriteRune(r)
			lastSep = false
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// splitLeadingSymbols separates a leading run of non-alphanumeric runes from
// the remaining label.
func splitLeadingSymbols(key string) (symbol, rest string) {
	for i, r := range key {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return strings.Trim(key[:i], "_"), strings.Trim(key[i:], "_")
		}
	}
	return strings.Trim(key, "_"), ""
}
