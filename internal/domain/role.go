package domain

// Role is the secret identity dealt to each player at match creation.
type Role string

const (
	RoleWitness    Role = "Witness"
	RoleDetective  Role = "Detective"
	RoleAccomplice Role = "Accomplice"
	RoleMurderer   Role = "Murderer"
)

// AllRoles contains all valid roles
var AllRoles = []Role{RoleWitness, RoleDetective, RoleAccomplice, RoleMurderer}

// IsValid checks if a role is valid
func (r Role) IsValid() bool {
	switch r {
	case RoleWitness, RoleDetective, RoleAccomplice, RoleMurderer:
		return true
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// IsMurdererSide reports whether the role wins with the murderer.
func (r Role) IsMurdererSide() bool {
	return r == RoleMurderer || r == RoleAccomplice
}

// KnowsCrime reports whether the role is told the accused pair.
func (r Role) KnowsCrime() bool {
	return r == RoleWitness || r.IsMurdererSide()
}
