package crew

import (
	"fmt"
	"strings"
)

// Role is the permission level asserted by the caller.
type Role string

const (
	// RoleSupervisor may resolve registrations, assign members and send tickets.
	RoleSupervisor Role = "supervisor"
	// RoleCrewMember may apply for registration and read its own data.
	RoleCrewMember Role = "crew-member"
)

// ParseRole converts a case-insensitive role name into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleSupervisor:
		return RoleSupervisor, nil
	case RoleCrewMember:
		return RoleCrewMember, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrInvalidInput, s)
	}
}

// Identity is who the caller claims to be. The engine trusts it: mapping a
// connection to an identity belongs to the authentication layer.
type Identity struct {
	// Role is the caller's permission level.
	Role Role
	// MemberID is the caller's own crew member id. Zero means the caller has
	// no approved member record yet.
	MemberID MemberID
	// Name is a display name used in audit entries and as the ticket sender.
	Name string
}

// Supervisor returns an identity with the supervisor role.
func Supervisor(name string) Identity {
	return Identity{Role: RoleSupervisor, Name: name}
}

// Member returns a crew-member identity bound to the given member id.
func Member(id MemberID) Identity {
	return Identity{Role: RoleCrewMember, MemberID: id}
}

// IsSupervisor reports whether the identity carries the supervisor role.
func (i Identity) IsSupervisor() bool {
	return i.Role == RoleSupervisor
}

// Validate rejects identities with an unknown role.
func (i Identity) Validate() error {
	if i.Role != RoleSupervisor && i.Role != RoleCrewMember {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, i.Role)
	}

	return nil
}

// String renders the identity for audit entries.
func (i Identity) String() string {
	switch {
	case i.Name != "":
		return fmt.Sprintf("%s (%s)", i.Name, i.Role)
	case i.MemberID != 0:
		return fmt.Sprintf("member #%d (%s)", i.MemberID, i.Role)
	default:
		return string(i.Role)
	}
}
