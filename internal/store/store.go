// Package store holds per-user conversation state for the setup dialog and
// the periodic publication path. State is kept in memory for the lifetime of
// the process; a user record is created lazily on first access and its
// fields are overwritten as the user re-runs the setup flow.
package store

import "sync"

// Stage identifies the current step of a user's setup dialog.
type Stage int

// Dialog stages, in setup order. StageIdle means no dialog is pending.
const (
	StageIdle Stage = iota
	StageAwaitingCredential
	StageAwaitingChannels
	StageAwaitingPrompt
	StageAwaitingInterval
	StageActive
)

// User is the per-user conversation record.
type User struct {
	ID int64

	// Credential is the user's generation service API key. Empty until the
	// setup flow stores one.
	Credential string

	Stage Stage

	// Channels is the set of destination ids selected for publication.
	Channels map[string]bool

	// Prompts is the pending prompt queue; Cursor is the rotation index
	// into it, wrapping modulo len(Prompts).
	Prompts []string
	Cursor  int

	// IntervalMinutes is the publication period.
	IntervalMinutes int
}

// Store owns all user records. Access to a given user's record is
// serialized by the store mutex; callers mutate records only through Update.
type Store struct {
	mu    sync.Mutex
	users map[int64]*User
}

// New creates an empty conversation store.
func New() *Store {
	return &Store{users: make(map[int64]*User)}
}

// Update runs fn with the user's record, creating the record if absent.
// The record must not be retained after fn returns.
func (s *Store) Update(userID int64, fn func(u *User)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.get(userID))
}

// View runs fn with a copy of the user's record, creating the record if
// absent. Mutations to the copy are not written back.
func (s *Store) View(userID int64, fn func(u User)) {
	s.mu.Lock()
	u := s.get(userID)
	cp := *u
	cp.Channels = make(map[string]bool, len(u.Channels))
	for id, v := range u.Channels {
		cp.Channels[id] = v
	}
	cp.Prompts = append([]string(nil), u.Prompts...)
	s.mu.Unlock()

	fn(cp)
}

// Stage returns the user's current dialog stage.
func (s *Store) Stage(userID int64) Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(userID).Stage
}

// HasCredential reports whether the user has a stored API key.
func (s *Store) HasCredential(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(userID).Credential != ""
}

// get returns the user's record, creating it if needed. Callers must hold mu.
func (s *Store) get(userID int64) *User {
	u, ok := s.users[userID]
	if !ok {
		u = &User{ID: userID, Channels: make(map[string]bool)}
		s.users[userID] = u
	}
	return u
}

// SelectedChannels returns the ids of the user's selected channels.
func (u *User) SelectedChannels() []string {
	ids := make([]string, 0, len(u.Channels))
	for id, selected := range u.Channels {
		if selected {
			ids = append(ids, id)
		}
	}
	return ids
}

// ToggleChannel flips membership of id in the user's channel selection and
// reports whether the channel is selected afterwards.
func (u *User) ToggleChannel(id string) bool {
	if u.Channels[id] {
		delete(u.Channels, id)
		return false
	}
	u.Channels[id] = true
	return true
}

// NextPrompt returns the prompt at the rotation cursor and advances the
// cursor, wrapping modulo the queue length. The queue must be non-empty.
func (u *User) NextPrompt() string {
	p := u.Prompts[u.Cursor%len(u.Prompts)]
	u.Cursor = (u.Cursor + 1) % len(u.Prompts)
	return p
}
