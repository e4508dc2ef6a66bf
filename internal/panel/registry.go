package panel

import (
	"context"
	"sync"
)

// Session is the per-guild panel state. Panel and PanelTrackID are bound
// and cleared together; suppressNext is one-shot. The session mutex
// serializes lifecycle transitions for one guild: a command handler and the
// track-started handler never interleave mid-transition.
type Session struct {
	guildID string

	mu                sync.Mutex
	announceChannelID string
	panel             *MessageRef
	panelTrackID      string
	lastAnnouncedID   string
	suppressNext      bool
	refreshing        bool
	refreshCancel     context.CancelFunc
	bindGen           uint64
}

func (s *Session) GuildID() string { return s.guildID }

func (s *Session) SetAnnounceChannel(channelID string) {
	s.mu.Lock()
	s.announceChannelID = channelID
	s.mu.Unlock()
}

func (s *Session) AnnounceChannel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.announceChannelID
}

// bindLocked records the live panel and the track it was rendered for.
// The generation bump lets a refresh loop detect that its view of the
// binding went stale before it commits to exiting.
func (s *Session) bindLocked(ref MessageRef, trackID string) {
	s.panel = &ref
	s.panelTrackID = trackID
	s.bindGen++
}

func (s *Session) clearPanelLocked() {
	s.panel = nil
	s.panelTrackID = ""
}

// Panel returns a copy of the bound panel reference, or nil.
func (s *Session) Panel() *MessageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.panel == nil {
		return nil
	}
	ref := *s.panel
	return &ref
}

func (s *Session) PanelTrackID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panelTrackID
}

func (s *Session) LastAnnounced() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAnnouncedID
}

// Suppressed reports whether the one-shot suppression flag is armed.
func (s *Session) Suppressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suppressNext
}

// Registry holds all sessions behind one accessor type so the binding
// invariants live in a single place. Sessions are created lazily and
// removed on explicit stop.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Session returns the session for a guild, creating it on first use.
func (r *Registry) Session(guildID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[guildID]; ok {
		return s
	}
	s := &Session{guildID: guildID}
	r.sessions[guildID] = s
	return s
}

// Peek returns the session without creating one.
func (r *Registry) Peek(guildID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[guildID]
	return s, ok
}

// All returns a snapshot of the live sessions.
func (r *Registry) All() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Remove drops a guild's session. Called on explicit stop for hygiene;
// a stale entry would be harmless but holds dead message references.
func (r *Registry) Remove(guildID string) {
	r.mu.Lock()
	delete(r.sessions, guildID)
	r.mu.Unlock()
}
