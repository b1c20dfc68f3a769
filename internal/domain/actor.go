package domain

// ActorKind distinguishes signed-in accounts from anonymous visitors.
type ActorKind string

const (
	ActorAuthenticated ActorKind = "authenticated"
	ActorAnonymous     ActorKind = "anonymous"
)

// Actor is the identity a write is attributed to. Exactly one of AccountID
// (authenticated) or Fingerprint (anonymous) is set.
type Actor struct {
	Kind        ActorKind
	AccountID   string
	Profile     *User
	Fingerprint string
}

// AuthenticatedActor builds an Actor for a signed-in user.
func AuthenticatedActor(u User) Actor {
	return Actor{Kind: ActorAuthenticated, AccountID: u.UID, Profile: &u}
}

// AnonymousActor builds an Actor from a network-address fingerprint.
func AnonymousActor(fingerprint string) Actor {
	return Actor{Kind: ActorAnonymous, Fingerprint: fingerprint}
}

// IsAnonymous reports whether the actor has no account.
func (a Actor) IsAnonymous() bool { return a.Kind == ActorAnonymous }

// Ref returns the key other records use to point at this actor.
func (a Actor) Ref() string {
	if a.IsAnonymous() {
		return a.Fingerprint
	}
	return a.AccountID
}

// AuthorRef returns the author reference stored on records written by a.
func (a Actor) AuthorRef() AuthorRef {
	return AuthorRef{ID: a.Ref(), Anonymous: a.IsAnonymous()}
}

// AuthorRef is what a record keeps about its author: an account uid, or the
// raw anonymous fingerprint.
type AuthorRef struct {
	ID        string `json:"id"`
	Anonymous bool   `json:"anonymous"`
}

// IsAuthoredBy reports whether userID may mutate a record with this author.
func (r AuthorRef) IsAuthoredBy(userID string) bool {
	return userID != "" && r.ID == userID
}
