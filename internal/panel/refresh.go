package panel

import (
	"context"
	"time"
)

// startRefreshLocked launches the per-session refresh loop. Idempotent
// while a loop is live: a running loop re-reads the binding every tick and
// commits its exits against the bind generation, so the no-op here is safe
// even when the loop is about to wind down. Caller holds sess.mu.
func (e *Engine) startRefreshLocked(sess *Session) {
	if sess.refreshing {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	sess.refreshing = true
	sess.refreshCancel = cancel

	go e.refreshLoop(ctx, sess)
}

// refreshLoop re-renders the bound panel in place every tick. It owns
// nothing: every wake re-reads session state, because a command handler
// may have rebound the panel between ticks. Exits go through
// commitRefreshExit so a bind that raced the exit decision is not left
// without a loop.
func (e *Engine) refreshLoop(ctx context.Context, sess *Session) {
	ticker := time.NewTicker(e.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			sess.mu.Lock()
			sess.refreshing = false
			sess.refreshCancel = nil
			// A bind that arrived after the cancellation still expects a
			// loop; hand it a fresh one before this goroutine dies.
			if sess.panel != nil {
				e.startRefreshLocked(sess)
			}
			sess.mu.Unlock()
			return
		case <-ticker.C:
		}

		sess.mu.Lock()
		gen := sess.bindGen
		boundID := sess.panelTrackID
		var ref *MessageRef
		if sess.panel != nil {
			r := *sess.panel
			ref = &r
		}
		sess.mu.Unlock()

		snap := e.players.Snapshot(sess.guildID)

		if snap.Current == nil {
			// Playback ended; explicit-stop handling owns the cleanup.
			if e.commitRefreshExit(sess, gen) {
				return
			}
			continue
		}
		if boundID != "" && snap.Current.ID != "" && snap.Current.ID != boundID {
			// A different track is playing; its own bind cycle owns the
			// display now.
			if e.commitRefreshExit(sess, gen) {
				return
			}
			continue
		}
		if ref == nil {
			continue
		}

		embed := NowPlaying(snap)
		if err := e.surface.Edit(*ref, embed, Controls(snap.Loop, false)); err == nil {
			continue
		}

		// One recovery attempt: confirm the message still exists, retry
		// the edit, and give up on a second failure.
		if err := e.surface.Fetch(*ref); err != nil {
			e.log.Debug().Err(err).Str("guild_id", sess.guildID).Msg("panel message gone, stopping refresh")
			if e.commitRefreshExit(sess, gen) {
				return
			}
			continue
		}
		if err := e.surface.Edit(*ref, embed, Controls(snap.Loop, false)); err != nil {
			e.log.Debug().Err(err).Str("guild_id", sess.guildID).Msg("panel edit retry failed, stopping refresh")
			if e.commitRefreshExit(sess, gen) {
				return
			}
			continue
		}
	}
}

// commitRefreshExit clears the loop handle so a future bind can start a
// fresh loop. When the binding changed after the exiting state was read,
// the exit is abandoned and the caller keeps running for the new panel.
func (e *Engine) commitRefreshExit(sess *Session, gen uint64) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.bindGen != gen {
		return false
	}
	sess.refreshing = false
	sess.refreshCancel = nil
	return true
}
