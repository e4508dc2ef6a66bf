package panel

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quidque.com/discord-maestro/internal/lavalink"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func sessionRefreshing(sess *Session) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.refreshing
}

func TestRefreshEditsPanelInPlace(t *testing.T) {
	trackA := track("aaaaaaaaaaa", "A")
	fp := &fakePlayers{snap: lavalink.Snapshot{Current: &trackA}}
	fs := &fakeSurface{}
	e := newTestEngine(fp, fs)
	e.RefreshInterval = 10 * time.Millisecond

	ref := MessageRef{ChannelID: "chan1", MessageID: "m1"}
	e.BindPanel("g1", ref, trackA.ID)

	waitFor(t, func() bool { return fs.editCount() >= 3 })
	edit := fs.lastEdit()
	assert.Equal(t, ref, edit.ref)
	require.NotNil(t, edit.embed)
	assert.False(t, allButtonsDisabled(edit.components))

	e.Stop("g1")
}

func TestRefreshStartIsIdempotent(t *testing.T) {
	trackA := track("aaaaaaaaaaa", "A")
	fp := &fakePlayers{snap: lavalink.Snapshot{Current: &trackA}}
	fs := &fakeSurface{}
	e := newTestEngine(fp, fs)
	e.RefreshInterval = 10 * time.Millisecond

	e.BindPanel("g1", MessageRef{ChannelID: "chan1", MessageID: "m1"}, trackA.ID)
	sess := e.Registry().Session("g1")
	waitFor(t, func() bool { return fs.editCount() >= 1 })

	// Rebinding while a loop runs must not spawn a second one: after the
	// single cancel in Stop, no orphan loop keeps editing.
	e.BindPanel("g1", MessageRef{ChannelID: "chan1", MessageID: "m2"}, trackA.ID)
	assert.True(t, sessionRefreshing(sess))

	e.Stop("g1")
	waitFor(t, func() bool { return !sessionRefreshing(sess) })
	settled := fs.editCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, fs.editCount())
}

func TestRefreshStopsWhenPlaybackEnds(t *testing.T) {
	trackA := track("aaaaaaaaaaa", "A")
	fp := &fakePlayers{snap: lavalink.Snapshot{Current: &trackA}}
	fs := &fakeSurface{}
	e := newTestEngine(fp, fs)
	e.RefreshInterval = 10 * time.Millisecond

	e.BindPanel("g1", MessageRef{ChannelID: "chan1", MessageID: "m1"}, trackA.ID)
	sess := e.Registry().Session("g1")
	waitFor(t, func() bool { return fs.editCount() >= 1 })

	fp.setCurrent(nil)
	waitFor(t, func() bool { return !sessionRefreshing(sess) })

	// The binding survives the loop; cleanup belongs to explicit stop.
	assert.NotNil(t, sess.Panel())
}

func TestRefreshStopsWhenTrackChanges(t *testing.T) {
	trackA := track("aaaaaaaaaaa", "A")
	fp := &fakePlayers{snap: lavalink.Snapshot{Current: &trackA}}
	fs := &fakeSurface{}
	e := newTestEngine(fp, fs)
	e.RefreshInterval = 10 * time.Millisecond

	e.BindPanel("g1", MessageRef{ChannelID: "chan1", MessageID: "m1"}, trackA.ID)
	sess := e.Registry().Session("g1")
	waitFor(t, func() bool { return fs.editCount() >= 1 })

	trackB := track("bbbbbbbbbbb", "B")
	fp.setCurrent(&trackB)
	waitFor(t, func() bool { return !sessionRefreshing(sess) })
}

func TestRefreshRecoversFromOneEditFailure(t *testing.T) {
	trackA := track("aaaaaaaaaaa", "A")
	fp := &fakePlayers{snap: lavalink.Snapshot{Current: &trackA}}
	fs := &fakeSurface{}
	e := newTestEngine(fp, fs)
	e.RefreshInterval = 10 * time.Millisecond

	e.BindPanel("g1", MessageRef{ChannelID: "chan1", MessageID: "m1"}, trackA.ID)
	sess := e.Registry().Session("g1")
	waitFor(t, func() bool { return fs.editCount() >= 1 })

	// One transient edit failure with the message still fetchable: the
	// retry succeeds and the loop keeps running.
	before := fs.editCount()
	fs.mu.Lock()
	fs.editFailures = 1
	fs.mu.Unlock()

	waitFor(t, func() bool { return fs.editCount() >= before+2 })
	assert.True(t, sessionRefreshing(sess))

	e.Stop("g1")
}

// gatedPlayers parks one Snapshot call so a test can interleave a rebind
// with the refresh loop's exit decision.
type gatedPlayers struct {
	*fakePlayers
	gateMu  sync.Mutex
	armed   bool
	entered chan struct{}
	release chan struct{}
}

func (g *gatedPlayers) Snapshot(guildID string) lavalink.Snapshot {
	g.gateMu.Lock()
	armed := g.armed
	g.armed = false
	g.gateMu.Unlock()
	if armed {
		close(g.entered)
		<-g.release
	}
	return g.fakePlayers.Snapshot(guildID)
}

func TestRefreshSurvivesRebindDuringStaleExit(t *testing.T) {
	trackA := track("aaaaaaaaaaa", "A")
	fp := &fakePlayers{snap: lavalink.Snapshot{Current: &trackA}}
	gp := &gatedPlayers{
		fakePlayers: fp,
		entered:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	fs := &fakeSurface{}
	e := NewEngine(gp, fs, zerolog.Nop())
	e.RefreshInterval = 10 * time.Millisecond
	e.SetAnnounceChannel("g1", "chan1")

	e.BindPanel("g1", MessageRef{ChannelID: "chan1", MessageID: "m1"}, trackA.ID)
	sess := e.Registry().Session("g1")
	waitFor(t, func() bool { return fs.editCount() >= 1 })

	// Park the loop between reading its binding and deciding to exit.
	gp.gateMu.Lock()
	gp.armed = true
	gp.gateMu.Unlock()
	<-gp.entered

	// While parked, track B starts and a new panel is posted and bound.
	trackB := track("bbbbbbbbbbb", "B")
	fp.setCurrent(&trackB)
	e.HandleTrackStarted("g1")
	require.Equal(t, 1, fs.sendCount())
	newRef := *sess.Panel()
	require.NotEqual(t, "m1", newRef.MessageID)

	close(gp.release)

	// The woken loop sees a track that no longer matches its stale
	// binding, but the exit is abandoned: the rebound panel keeps
	// getting refreshed.
	waitFor(t, func() bool {
		for _, edit := range fs.allEdits() {
			if edit.ref == newRef && edit.embed != nil {
				return true
			}
		}
		return false
	})
	assert.True(t, sessionRefreshing(sess))

	e.Stop("g1")
	waitFor(t, func() bool { return !sessionRefreshing(sess) })
}

func TestRefreshStopsWhenMessageGone(t *testing.T) {
	trackA := track("aaaaaaaaaaa", "A")
	fp := &fakePlayers{snap: lavalink.Snapshot{Current: &trackA}}
	fs := &fakeSurface{}
	e := newTestEngine(fp, fs)
	e.RefreshInterval = 10 * time.Millisecond

	e.BindPanel("g1", MessageRef{ChannelID: "chan1", MessageID: "m1"}, trackA.ID)
	sess := e.Registry().Session("g1")
	waitFor(t, func() bool { return fs.editCount() >= 1 })

	fs.mu.Lock()
	fs.editErr = errors.New("unknown message")
	fs.fetchErr = errors.New("unknown message")
	fs.mu.Unlock()

	waitFor(t, func() bool { return !sessionRefreshing(sess) })
}
