package identity

import "sync"

// State is the three-valued sign-in state. Unknown means the identity
// provider has not reported yet; it is distinct from SignedOut so dependent
// logic never mistakes "still loading" for "nobody here".
type State int

const (
	StateUnknown State = iota
	StateSignedOut
	StateSignedIn
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateSignedOut:
		return "signed_out"
	case StateSignedIn:
		return "signed_in"
	default:
		return "unknown"
	}
}

// User is the identity the provider vouches for.
type User struct {
	ID          string
	DisplayName string
}

// Snapshot is an immutable view of the session. User is set only when State
// is StateSignedIn.
type Snapshot struct {
	State State
	User  *User
}

// CancelFunc removes a session observer. It is idempotent.
type CancelFunc func()

// Session tracks sign-in state and notifies observers of transitions.
type Session struct {
	mu        sync.Mutex
	snap      Snapshot
	observers map[int]func(Snapshot)
	nextID    int
}

// NewSession starts in the unknown state.
func NewSession() *Session {
	return &Session{
		snap:      Snapshot{State: StateUnknown},
		observers: map[int]func(Snapshot){},
	}
}

// SignIn records the authenticated user and notifies observers. An empty
// user id is treated as a sign-out report.
func (s *Session) SignIn(user User) {
	if user.ID == "" {
		s.SignOut()
		return
	}
	u := user
	s.set(Snapshot{State: StateSignedIn, User: &u})
}

// SignOut clears the session and notifies observers.
func (s *Session) SignOut() {
	s.set(Snapshot{State: StateSignedOut})
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers an observer and immediately delivers the current
// snapshot so subscribers have a defined starting point.
func (s *Session) Subscribe(fn func(Snapshot)) CancelFunc {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	current := s.snap
	s.mu.Unlock()

	fn(current)

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

func (s *Session) set(snap Snapshot) {
	s.mu.Lock()
	if s.snap.State == snap.State && !userChanged(s.snap.User, snap.User) {
		s.mu.Unlock()
		return
	}
	s.snap = snap
	observers := make([]func(Snapshot), 0, len(s.observers))
	for _, fn := range s.observers {
		observers = append(observers, fn)
	}
	s.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

func userChanged(a, b *User) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil || b == nil:
		return true
	default:
		return *a != *b
	}
}
