// Package access models the caller capabilities consulted by the planner.
//
// The planner only asks two questions of a caller: is it responsible, and is
// it accountable. Persona answers them from RACI roles and additionally
// carries the set of organisational units the caller may act for.
package access

import (
	"fmt"
	"slices"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
)

// Descriptor exposes the capabilities of a caller.
type Descriptor interface {
	Responsible() bool
	Accountable() bool
}

// Role is a RACI role.
type Role uint8

const (
	// RoleResponsible does the work.
	RoleResponsible Role = iota + 1
	// RoleAccountable owns the outcome.
	RoleAccountable
	// RoleConsulted is asked for input.
	RoleConsulted
	// RoleInformed is kept up to date.
	RoleInformed
)

// String returns the single-letter RACI code.
func (r Role) String() string {
	switch r {
	case RoleResponsible:
		return "R"
	case RoleAccountable:
		return "A"
	case RoleConsulted:
		return "C"
	case RoleInformed:
		return "I"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// ParseRole parses a RACI code ("R", "A", "C", "I") or role name.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "responsible":
		return RoleResponsible, nil
	case "a", "accountable":
		return RoleAccountable, nil
	case "c", "consulted":
		return RoleConsulted, nil
	case "i", "informed":
		return RoleInformed, nil
	default:
		return 0, fmt.Errorf("access: unknown RACI role %q", s)
	}
}

// ParseRoles parses a comma-separated list of roles.
func ParseRoles(s string) ([]Role, error) {
	var roles []Role
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		r, err := ParseRole(part)
		if err != nil {
			return nil, err
		}
		roles = append(roles, r)
	}
	return roles, nil
}

// Compile-time check to ensure Persona satisfies Descriptor.
var _ Descriptor = (*Persona)(nil)

// Persona is the identity a caller acts under.
type Persona struct {
	PersonID     string
	AssumedRoles []string
	RACIAllowed  []Role

	// OrgScope holds the organisational unit ids the persona may act for.
	OrgScope *roaring.Bitmap
}

// NewPersona creates a persona with the given allowed roles and org units.
func NewPersona(personID string, roles []Role, orgUnits ...uint32) *Persona {
	return &Persona{
		PersonID:    personID,
		RACIAllowed: roles,
		OrgScope:    roaring.BitmapOf(orgUnits...),
	}
}

// AllowsRole reports whether r is among the persona's allowed roles. A nil
// persona allows nothing.
func (p *Persona) AllowsRole(r Role) bool {
	return p != nil && slices.Contains(p.RACIAllowed, r)
}

// Responsible reports whether the persona holds the responsible role.
func (p *Persona) Responsible() bool { return p.AllowsRole(RoleResponsible) }

// Accountable reports whether the persona holds the accountable role.
func (p *Persona) Accountable() bool { return p.AllowsRole(RoleAccountable) }

// InScope reports whether unit is within the persona's org scope.
func (p *Persona) InScope(unit uint32) bool {
	return p != nil && p.OrgScope != nil && p.OrgScope.Contains(unit)
}

// AddScope adds org units to the persona's scope.
func (p *Persona) AddScope(units ...uint32) {
	if p.OrgScope == nil {
		p.OrgScope = roaring.New()
	}
	p.OrgScope.AddMany(units)
}

// ScopeSize returns the number of org units in scope.
func (p *Persona) ScopeSize() uint64 {
	if p == nil || p.OrgScope == nil {
		return 0
	}
	return p.OrgScope.GetCardinality()
}

// Static is a fixed Descriptor.
type Static struct {
	R bool
	A bool
}

func (s Static) Responsible() bool { return s.R }
func (s Static) Accountable() bool { return s.A }

// CanRetrieve reports whether d grants retrieval: it must be responsible or
// accountable. A nil descriptor grants retrieval.
func CanRetrieve(d Descriptor) bool {
	if d == nil {
		return true
	}
	return d.Responsible() || d.Accountable()
}
