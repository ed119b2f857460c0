package identity

import "fmt"

// Kind discriminates the two caller populations.
type Kind string

const (
	KindUser  Kind = "user"
	KindGuest Kind = "guest"
)

// Identity is the resolved caller of a request. Exactly one of UserID or
// GuestID is meaningful, selected by Kind.
type Identity struct {
	Kind    Kind
	UserID  int64
	GuestID string
}

// User builds a registered-user identity.
func User(id int64) Identity {
	return Identity{Kind: KindUser, UserID: id}
}

// Guest builds a guest identity from its opaque token id.
func Guest(id string) Identity {
	return Identity{Kind: KindGuest, GuestID: id}
}

// IsUser reports whether the identity belongs to a registered user.
func (i Identity) IsUser() bool {
	return i.Kind == KindUser
}

// IsGuest reports whether the identity belongs to a guest session.
func (i Identity) IsGuest() bool {
	return i.Kind == KindGuest
}

// Valid reports whether the identity carries a usable owner reference.
func (i Identity) Valid() bool {
	switch i.Kind {
	case KindUser:
		return i.UserID > 0
	case KindGuest:
		return i.GuestID != ""
	default:
		return false
	}
}

// Ref is a loggable owner reference, e.g. "user:42" or "guest:3f2a...".
func (i Identity) Ref() string {
	switch i.Kind {
	case KindUser:
		return fmt.Sprintf("user:%d", i.UserID)
	case KindGuest:
		return fmt.Sprintf("guest:%s", i.GuestID)
	default:
		return "anonymous"
	}
}
