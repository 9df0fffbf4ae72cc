package model

// Identity is the authenticated caller, resolved from the access token by
// middleware and handed to services explicitly.
type Identity struct {
	UserID uint64
	Role   Role
}

// IsAdmin reports whether the caller holds the Administrator role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdministrator }

// Authenticated reports whether a user is attached.
func (i Identity) Authenticated() bool { return i.UserID != 0 }
