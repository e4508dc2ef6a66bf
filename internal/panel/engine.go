// Package panel owns the now-playing panel lifecycle: at most one live,
// auto-refreshing panel per guild, deduplicated against the playback
// node's own track-started notifications.
package panel

import (
	"time"

	"github.com/rs/zerolog"

	"quidque.com/discord-maestro/internal/lavalink"
)

const DefaultRefreshInterval = 3 * time.Second

// Engine decides when panels are created, retired, rebound, and refreshed.
// All transitions for one guild run under that guild's session mutex, so a
// user command and a backend notification never interleave mid-transition.
type Engine struct {
	reg     *Registry
	players PlayerSource
	surface Surface
	log     zerolog.Logger

	// RefreshInterval is the tick period of the per-session refresh loop.
	RefreshInterval time.Duration
}

func NewEngine(players PlayerSource, surface Surface, log zerolog.Logger) *Engine {
	return &Engine{
		reg:             NewRegistry(),
		players:         players,
		surface:         surface,
		log:             log.With().Str("component", "panel").Logger(),
		RefreshInterval: DefaultRefreshInterval,
	}
}

// Registry exposes the session registry for inspection.
func (e *Engine) Registry() *Registry { return e.reg }

// SetAnnounceChannel records where unsolicited panels for a guild go.
func (e *Engine) SetAnnounceChannel(guildID, channelID string) {
	e.reg.Session(guildID).SetAnnounceChannel(channelID)
}

// Play forwards a play request to the backend and, when the track starts
// immediately into an empty queue, arms the one-shot suppression so the
// node's own track-started notification does not post a second panel.
// Arming happens in the same critical section as the backend call: the
// notification handler blocks on the session mutex until both are done.
func (e *Engine) Play(guildID string, t lavalink.Track) (startedNow bool, queuePos int, err error) {
	sess := e.reg.Session(guildID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	startedNow, queuePos, err = e.players.Play(guildID, t)
	if err != nil {
		return startedNow, queuePos, err
	}
	if startedNow {
		sess.lastAnnouncedID = t.ID
		sess.suppressNext = true
	}
	return startedNow, queuePos, nil
}

// BindPanel records a panel the command layer has already posted, and
// starts the refresh loop for it. The previous panel, if any, must have
// been retired by the caller before posting.
func (e *Engine) BindPanel(guildID string, ref MessageRef, trackID string) {
	sess := e.reg.Session(guildID)
	sess.mu.Lock()
	sess.bindLocked(ref, trackID)
	e.startRefreshLocked(sess)
	sess.mu.Unlock()
}

// RetirePanel disables the controls of the currently bound panel.
// Best-effort: the message may be deleted or inaccessible, and a failed
// retirement never blocks the transition that requested it.
func (e *Engine) RetirePanel(guildID string) {
	sess := e.reg.Session(guildID)
	sess.mu.Lock()
	e.retireLocked(sess)
	sess.mu.Unlock()
}

func (e *Engine) retireLocked(sess *Session) {
	if sess.panel == nil {
		return
	}
	// Only the controls change. The panel keeps showing the track it was
	// rendered for; the snapshot may already describe the successor.
	snap := e.players.Snapshot(sess.guildID)
	if err := e.surface.Edit(*sess.panel, nil, Controls(snap.Loop, true)); err != nil {
		e.log.Debug().Err(err).Str("guild_id", sess.guildID).Msg("old panel retirement failed")
	}
}

// HandleTrackStarted processes the backend's track-started notification.
// Guard order matters: suppression, then missing announce channel, then
// the same-track de-dup that prevents a duplicate panel on single-track
// loop, and only then the retire/post/bind/refresh sequence.
func (e *Engine) HandleTrackStarted(guildID string) {
	sess := e.reg.Session(guildID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.suppressNext {
		sess.suppressNext = false
		e.log.Info().Str("guild_id", guildID).Msg("suppressing one track-started notification")
		return
	}

	channelID := sess.announceChannelID
	if channelID == "" {
		e.log.Debug().Str("guild_id", guildID).Msg("no announce channel recorded, skipping")
		return
	}

	snap := e.players.Snapshot(guildID)
	if snap.Current == nil {
		e.log.Debug().Str("guild_id", guildID).Msg("no current track, skipping")
		return
	}

	trackID := snap.Current.ID
	if trackID != "" && sess.lastAnnouncedID == trackID {
		e.log.Info().Str("guild_id", guildID).Str("track", trackID).
			Msg("same track as last announcement, skipping")
		return
	}

	// Retired twice: a slow first edit can lose to the message cache and
	// leave the old controls live.
	e.retireLocked(sess)
	e.retireLocked(sess)

	embed := NowPlaying(snap)
	ref, err := e.surface.Send(channelID, embed, Controls(snap.Loop, false))
	if err != nil {
		e.log.Warn().Err(err).Str("guild_id", guildID).Msg("failed to post panel")
		return
	}

	sess.bindLocked(ref, trackID)
	if trackID != "" {
		sess.lastAnnouncedID = trackID
	}
	e.startRefreshLocked(sess)

	e.log.Info().Str("guild_id", guildID).Str("channel_id", channelID).
		Msg("posted now-playing panel")
}

// Close retires every live panel and cancels every refresh loop. Used on
// process shutdown so stale panels are not left with active controls.
func (e *Engine) Close() {
	for _, sess := range e.reg.All() {
		sess.mu.Lock()
		if sess.refreshCancel != nil {
			sess.refreshCancel()
		}
		e.retireLocked(sess)
		sess.clearPanelLocked()
		sess.mu.Unlock()
		e.reg.Remove(sess.guildID)
	}
}

// Stop ends the panel lifecycle for a guild: the refresh loop is
// cancelled, the binding dropped, and the session removed.
func (e *Engine) Stop(guildID string) {
	sess, ok := e.reg.Peek(guildID)
	if !ok {
		return
	}

	sess.mu.Lock()
	if sess.refreshCancel != nil {
		sess.refreshCancel()
	}
	sess.clearPanelLocked()
	sess.mu.Unlock()

	e.reg.Remove(guildID)
}
