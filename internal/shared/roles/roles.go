// Package roles defines the closed set of user roles and the normalization
// applied to role strings coming from tokens, storage and legacy clients.
package roles

import "strings"

// Role is one of the known user roles.
type Role string

const (
	MasterAdmin  Role = "master_admin"
	Admin        Role = "admin"
	CompanyAdmin Role = "company_admin"
	CompanyUser  Role = "company_user"
	User         Role = "user"
)

var known = map[Role]struct{}{
	MasterAdmin:  {},
	Admin:        {},
	CompanyAdmin: {},
	CompanyUser:  {},
	User:         {},
}

var legacy = map[string]Role{
	"member":      User,
	"client":      User,
	"customer":    User,
	"private":     User,
	"superadmin":  MasterAdmin,
	"super_admin": MasterAdmin,
	"business":    CompanyUser,
	"company":     CompanyUser,
	"owner":       CompanyAdmin,
}

// Normalize maps a raw role string to a known role. The second return value
// is false when the input is neither a known role nor a legacy alias.
func Normalize(raw string) (Role, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.ReplaceAll(key, "-", "_")
	if _, ok := known[Role(key)]; ok {
		return Role(key), true
	}
	if r, ok := legacy[key]; ok {
		return r, true
	}
	return "", false
}

// NormalizeAll normalizes a list of raw roles, dropping unknown entries and duplicates.
func NormalizeAll(raw []string) []Role {
	out := make([]Role, 0, len(raw))
	seen := make(map[Role]struct{}, len(raw))
	for _, r := range raw {
		role, ok := Normalize(r)
		if !ok {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		out = append(out, role)
	}
	return out
}

// Strings converts roles back to plain strings for tokens and storage.
func Strings(rs []Role) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = string(r)
	}
	return out
}

// IsAdmin reports whether any of the roles grants platform administration.
func IsAdmin(rs []Role) bool {
	return Has(rs, Admin) || Has(rs, MasterAdmin)
}

// IsCompanyMember reports whether any of the roles belongs to a company account.
func IsCompanyMember(rs []Role) bool {
	return Has(rs, CompanyAdmin) || Has(rs, CompanyUser)
}

// Has reports whether target is in rs.
func Has(rs []Role, target Role) bool {
	for _, r := range rs {
		if r == target {
			return true
		}
	}
	return false
}
