package shared

import "strings"

// Actor is the identity a submission is processed as. It is passed
// explicitly to every operation that writes records instead of being kept
// as process-wide state.
type Actor struct {
	User           string
	DefaultCompany string
}

// NewActor creates an actor; user is required
func NewActor(user, defaultCompany string) (Actor, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return Actor{}, NewValidationError("INVALID_ACTOR", "Actor user cannot be empty")
	}
	return Actor{User: user, DefaultCompany: strings.TrimSpace(defaultCompany)}, nil
}
