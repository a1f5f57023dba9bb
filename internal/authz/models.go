package authz

import (
	"slices"
	"strconv"
)

// Identity is a platform user identifier
type Identity uint64

func (id Identity) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// RoleID is a platform role identifier
type RoleID uint64

func (id RoleID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Role is a role currently held by a member
type Role struct {
	ID   RoleID
	Name string // Display name, compared exactly
}

// MembershipView is the set of roles a requester holds at request time.
// It is built per command invocation and must not be cached.
type MembershipView []Role

// HasRoleNamed reports whether the view contains a role with exactly the given name
func (v MembershipView) HasRoleNamed(name string) bool {
	for _, r := range v {
		if r.Name == name {
			return true
		}
	}
	return false
}

// AllowList is the set of users authorized regardless of role
type AllowList map[Identity]struct{}

// NewAllowList builds an allow-list from the given identities
func NewAllowList(ids ...Identity) AllowList {
	l := make(AllowList, len(ids))
	for _, id := range ids {
		l[id] = struct{}{}
	}
	return l
}

// Contains checks if the identity is allow-listed. A nil list contains nothing.
func (l AllowList) Contains(id Identity) bool {
	_, ok := l[id]
	return ok
}

// Len returns the number of allow-listed identities
func (l AllowList) Len() int {
	return len(l)
}

// IDs returns the allow-listed identities in ascending order
func (l AllowList) IDs() []Identity {
	ids := make([]Identity, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Strings returns the allow-listed identities as sorted decimal strings
func (l AllowList) Strings() []string {
	ids := l.IDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// Policy is the read-only snapshot an authorization check runs against
type Policy struct {
	RoleName  string
	AllowList AllowList
}
