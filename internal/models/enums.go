package models

import (
	"fmt"
	"strings"
)

// Role is the playing role of a candidate. The set is closed.
type Role string

const (
	RoleBatter       Role = "Batter"
	RoleBowler       Role = "Bowler"
	RoleAllRounder   Role = "AllRounder"
	RoleWicketKeeper Role = "WicketKeeper"
)

// Roles returns every role in a fixed order. Quota handling iterates in this order.
func Roles() []Role {
	return []Role{RoleBatter, RoleBowler, RoleAllRounder, RoleWicketKeeper}
}

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleBatter, RoleBowler, RoleAllRounder, RoleWicketKeeper:
		return true
	default:
		return false
	}
}

// Bats reports whether batting impact is computed for the role.
func (r Role) Bats() bool {
	switch r {
	case RoleBatter, RoleAllRounder, RoleWicketKeeper:
		return true
	default:
		return false
	}
}

// Bowls reports whether bowling impact is computed for the role.
func (r Role) Bowls() bool {
	switch r {
	case RoleBowler, RoleAllRounder:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

var roleAliases = map[string]Role{
	"batter":       RoleBatter,
	"batsman":      RoleBatter,
	"bat":          RoleBatter,
	"bowler":       RoleBowler,
	"bowl":         RoleBowler,
	"allrounder":   RoleAllRounder,
	"ar":           RoleAllRounder,
	"wicketkeeper": RoleWicketKeeper,
	"keeper":       RoleWicketKeeper,
	"wk":           RoleWicketKeeper,
}

// ParseRole accepts the enum names as well as the spreadsheet labels
// ("Batsman", "All-Rounder", "Wicketkeeper"), case-insensitively.
func ParseRole(s string) (Role, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", " ", "", "_", "").Replace(key)
	if role, ok := roleAliases[key]; ok {
		return role, nil
	}
	return "", &ValidationError{Index: -1, Field: "role", Reason: fmt.Sprintf("unknown role %q", s)}
}

// Format is the match format the impact formulas are tuned for.
type Format string

const (
	FormatTest Format = "Test"
	FormatODI  Format = "ODI"
	FormatT20  Format = "T20"
)

// DefaultFormat is used when a request does not name one.
const DefaultFormat = FormatT20

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatTest, FormatODI, FormatT20}
}

func (f Format) IsValid() bool {
	switch f {
	case FormatTest, FormatODI, FormatT20:
		return true
	default:
		return false
	}
}

func (f Format) String() string {
	return string(f)
}

// ParseFormat is case-insensitive. An empty string yields DefaultFormat.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return DefaultFormat, nil
	case "test":
		return FormatTest, nil
	case "odi":
		return FormatODI, nil
	case "t20", "t20i":
		return FormatT20, nil
	}
	return "", &ValidationError{Index: -1, Field: "format", Reason: fmt.Sprintf("unknown format %q", s)}
}
