package lavalink

import (
	"errors"
	"sync"
	"time"
)

const (
	MinVolume = 0
	MaxVolume = 1000
)

var ErrVolumeOutOfRange = errors.New("volume must be between 0 and 1000")

// opSender delivers player ops to whichever node currently serves this
// guild. The websocket client implements it; tests stub it out.
type opSender interface {
	sendPlayerOp(guildID string, op map[string]any) error
}

// Player holds the authoritative playback state for one guild. All fields
// are guarded by mu; Snapshot returns a detached copy so readers never
// observe a half-applied mutation.
type Player struct {
	guildID string
	sender  opSender

	mu        sync.RWMutex
	current   *Track
	queue     []Track
	position  int64
	updatedAt time.Time
	paused    bool
	loop      bool
	volume    int
}

func newPlayer(guildID string, sender opSender) *Player {
	return &Player{
		guildID: guildID,
		sender:  sender,
		volume:  100,
	}
}

func (p *Player) GuildID() string { return p.guildID }

// Snapshot extrapolates the position from the last node update so the
// progress bar advances between playerUpdate frames.
func (p *Player) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := Snapshot{
		Position: p.position,
		Paused:   p.paused,
		Loop:     p.loop,
		Volume:   p.volume,
		Queue:    append([]Track(nil), p.queue...),
	}
	if p.current != nil {
		cur := *p.current
		snap.Current = &cur
		if !p.paused && !p.updatedAt.IsZero() {
			snap.Position += time.Since(p.updatedAt).Milliseconds()
			if cur.Length > 0 && snap.Position > cur.Length {
				snap.Position = cur.Length
			}
		}
	}
	return snap
}

// Play starts the track immediately when nothing is playing, otherwise
// appends it to the queue. It reports whether playback started now and,
// if not, the 1-based queue position the track landed at.
func (p *Player) Play(t Track) (startedNow bool, queuePos int, err error) {
	p.mu.Lock()
	if p.current != nil {
		p.queue = append(p.queue, t)
		pos := len(p.queue)
		p.mu.Unlock()
		return false, pos, nil
	}
	p.setCurrentLocked(t)
	p.mu.Unlock()

	if err := p.sendPlay(t); err != nil {
		// Roll back so later plays do not queue behind a track the node
		// never received.
		p.mu.Lock()
		if p.current != nil && p.current.ID == t.ID {
			p.current = nil
			p.position = 0
		}
		p.mu.Unlock()
		return false, 0, err
	}
	return true, 0, nil
}

func (p *Player) setCurrentLocked(t Track) {
	cur := t
	p.current = &cur
	p.position = 0
	p.updatedAt = time.Now()
	p.paused = false
}

func (p *Player) sendPlay(t Track) error {
	return p.sender.sendPlayerOp(p.guildID, map[string]any{
		"op":        "play",
		"track":     t.Encoded,
		"volume":    p.Volume(),
		"noReplace": false,
	})
}

// Skip drops the current track and starts the next queued one, if any.
// The node emits a fresh TrackStartEvent for the successor.
func (p *Player) Skip() error {
	p.mu.Lock()
	if p.current == nil && len(p.queue) == 0 {
		p.mu.Unlock()
		return errors.New("nothing to skip")
	}
	next, ok := p.popLocked()
	p.mu.Unlock()

	if !ok {
		return p.sender.sendPlayerOp(p.guildID, map[string]any{"op": "stop"})
	}
	return p.sendPlay(next)
}

func (p *Player) popLocked() (Track, bool) {
	if len(p.queue) == 0 {
		p.current = nil
		p.position = 0
		return Track{}, false
	}
	next := p.queue[0]
	p.queue = p.queue[1:]
	p.setCurrentLocked(next)
	return next, true
}

// Stop halts playback and clears the queue.
func (p *Player) Stop() error {
	p.mu.Lock()
	p.current = nil
	p.queue = nil
	p.position = 0
	p.mu.Unlock()

	return p.sender.sendPlayerOp(p.guildID, map[string]any{"op": "stop"})
}

func (p *Player) Pause() error {
	p.mu.Lock()
	p.position = p.positionLocked()
	p.updatedAt = time.Now()
	p.paused = true
	p.mu.Unlock()

	return p.sender.sendPlayerOp(p.guildID, map[string]any{"op": "pause", "pause": true})
}

func (p *Player) Resume() error {
	p.mu.Lock()
	p.paused = false
	p.updatedAt = time.Now()
	p.mu.Unlock()

	return p.sender.sendPlayerOp(p.guildID, map[string]any{"op": "pause", "pause": false})
}

func (p *Player) positionLocked() int64 {
	if p.current == nil || p.paused || p.updatedAt.IsZero() {
		return p.position
	}
	pos := p.position + time.Since(p.updatedAt).Milliseconds()
	if p.current.Length > 0 && pos > p.current.Length {
		pos = p.current.Length
	}
	return pos
}

func (p *Player) SetVolume(level int) error {
	if level < MinVolume || level > MaxVolume {
		return ErrVolumeOutOfRange
	}

	p.mu.Lock()
	p.volume = level
	p.mu.Unlock()

	return p.sender.sendPlayerOp(p.guildID, map[string]any{"op": "volume", "volume": level})
}

func (p *Player) Volume() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.volume
}

// SetLoop toggles single-track looping and returns the new value.
func (p *Player) SetLoop(on bool) {
	p.mu.Lock()
	p.loop = on
	p.mu.Unlock()
}

func (p *Player) ToggleLoop() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loop = !p.loop
	return p.loop
}

func (p *Player) Loop() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.loop
}

func (p *Player) Paused() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.paused
}

func (p *Player) Current() *Track {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.current == nil {
		return nil
	}
	cur := *p.current
	return &cur
}

func (p *Player) QueueLength() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.queue)
}

// RemoveAt removes the queued track at the given 1-based position. Removing
// an index that no longer exists is a no-op: the queue may have advanced
// between the caller's snapshot and this call.
func (p *Player) RemoveAt(pos int) (Track, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pos < 1 || pos > len(p.queue) {
		return Track{}, false
	}
	removed := p.queue[pos-1]
	p.queue = append(p.queue[:pos-1], p.queue[pos:]...)
	return removed, true
}

// handleTrackEnd advances to the next track when the node reports the
// current one finished. With loop on, the same track is replayed. Returns
// true when a new play op was issued (the node will emit TrackStartEvent).
func (p *Player) handleTrackEnd(reason string) bool {
	// "replaced" ends arrive after an explicit play/skip already issued the
	// successor's play op; advancing again would double-pop the queue.
	if reason == "replaced" || reason == "stopped" {
		return false
	}

	p.mu.Lock()
	if p.current == nil {
		p.mu.Unlock()
		return false
	}
	if p.loop {
		replay := *p.current
		p.position = 0
		p.updatedAt = time.Now()
		p.mu.Unlock()
		return p.sendPlay(replay) == nil
	}
	next, ok := p.popLocked()
	p.mu.Unlock()

	if !ok {
		return false
	}
	return p.sendPlay(next) == nil
}

func (p *Player) updateState(position int64) {
	p.mu.Lock()
	p.position = position
	p.updatedAt = time.Now()
	p.mu.Unlock()
}
