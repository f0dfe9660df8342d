package domain

import dErrors "connect2uni/pkg/domain-errors"

// Role identifies which of the five actor kinds a request acts as. It is
// resolved once at authentication from the token claims; handlers never probe
// entity collections to rediscover it.
type Role string

const (
	RoleStudent    Role = "student"
	RoleAgency     Role = "agency"
	RoleUniversity Role = "university"
	RoleAssociate  Role = "associate"
	RoleSolicitor  Role = "solicitor"
)

var validRoles = map[Role]bool{
	RoleStudent:    true,
	RoleAgency:     true,
	RoleUniversity: true,
	RoleAssociate:  true,
	RoleSolicitor:  true,
}

// ParseRole constructs a Role from external input (token claims).
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown role %q", s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }
