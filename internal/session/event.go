package session

import "github.com/agmortgage/agbank/internal/model"

// Kind names a session lifecycle change.
type Kind int

const (
	LoggedIn Kind = iota + 1
	Registered
	LoggedOut
	// Restored fires when Init recovers a persisted session.
	Restored
)

func (k Kind) String() string {
	switch k {
	case LoggedIn:
		return "logged-in"
	case Registered:
		return "registered"
	case LoggedOut:
		return "logged-out"
	case Restored:
		return "restored"
	}
	return "unknown"
}

// Event is broadcast to observers after the session changes. User is nil
// for LoggedOut.
type Event struct {
	Kind Kind
	User *model.User
}

// Observer receives session events synchronously, in subscription order.
type Observer interface {
	HandleSessionEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) HandleSessionEvent(e Event) { f(e) }
