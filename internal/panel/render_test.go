package panel

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quidque.com/discord-maestro/internal/lavalink"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "0:00"},
		{-500, "0:00"},
		{1000, "0:01"},
		{59000, "0:59"},
		{60000, "1:00"},
		{61000, "1:01"},
		{3599000, "59:59"},
		{3600000, "1:00:00"},
		{3661000, "1:01:01"},
		{7325000, "2:02:05"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatDuration(tc.ms), "FormatDuration(%d)", tc.ms)
	}
}

func TestProgressCursorBounds(t *testing.T) {
	const total = int64(180000)

	prev := -1
	for pos := int64(0); pos <= total; pos += 1000 {
		cursor := progressCursor(pos, total)
		assert.GreaterOrEqual(t, cursor, 0)
		assert.LessOrEqual(t, cursor, progressWidth)
		assert.GreaterOrEqual(t, cursor, prev, "cursor must not move backwards at pos=%d", pos)
		prev = cursor
	}

	assert.Equal(t, 0, progressCursor(0, total))
	assert.Equal(t, progressWidth, progressCursor(total, total))
}

func TestProgressLineClamping(t *testing.T) {
	// Position beyond the duration clamps to the end.
	line := ProgressLine(999999, 60000)
	assert.True(t, strings.HasPrefix(line, "1:00 "), "got %q", line)
	assert.True(t, strings.HasSuffix(line, " 1:00"), "got %q", line)

	// Zero duration must not divide by zero.
	assert.NotPanics(t, func() { ProgressLine(0, 0) })
	assert.NotPanics(t, func() { ProgressLine(500, 0) })
}

func TestProgressLineCellCount(t *testing.T) {
	for _, pos := range []int64{0, 1, 30000, 59999, 60000} {
		line := ProgressLine(pos, 60000)
		filled := strings.Count(line, "▬")
		knobs := strings.Count(line, "🔘")
		assert.Equal(t, 1, knobs, "exactly one cursor glyph at pos=%d", pos)
		assert.GreaterOrEqual(t, filled, progressWidth-1, "pos=%d", pos)
		assert.LessOrEqual(t, filled, progressWidth, "pos=%d", pos)
	}
}

func TestThumbnailURL(t *testing.T) {
	yt := lavalink.Track{ID: "dQw4w9WgXcQ", URI: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/mqdefault.jpg", ThumbnailURL(yt))

	short := lavalink.Track{ID: "abc", URI: "https://youtu.be/abc"}
	assert.Equal(t, "https://img.youtube.com/vi/abc/mqdefault.jpg", ThumbnailURL(short))

	eleven := lavalink.Track{ID: "123456789ab", URI: "https://example.com/stream"}
	assert.Equal(t, "https://img.youtube.com/vi/123456789ab/mqdefault.jpg", ThumbnailURL(eleven))

	other := lavalink.Track{ID: "sc-1", URI: "https://soundcloud.com/x", ArtworkURL: "https://cdn.example/art.jpg"}
	assert.Equal(t, "https://cdn.example/art.jpg", ThumbnailURL(other))

	none := lavalink.Track{ID: "sc-2", URI: "https://soundcloud.com/y"}
	assert.Equal(t, "", ThumbnailURL(none))
}

func TestNowPlayingEmptySnapshot(t *testing.T) {
	assert.Nil(t, NowPlaying(lavalink.Snapshot{}))
}

func TestNowPlayingRendering(t *testing.T) {
	track := lavalink.Track{
		ID:     "dQw4w9WgXcQ",
		Title:  "Test Song",
		Author: "Test Artist",
		URI:    "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Length: 180000,
	}
	snap := lavalink.Snapshot{
		Current:  &track,
		Position: 30000,
		Volume:   100,
		Queue:    []lavalink.Track{{Title: "next"}},
	}

	embed := NowPlaying(snap)
	require.NotNil(t, embed)
	assert.Contains(t, embed.Description, "[Test Song](https://www.youtube.com/watch?v=dQw4w9WgXcQ)")
	assert.Contains(t, embed.Description, "▶️ Playing")
	require.Len(t, embed.Fields, 2)
	assert.Equal(t, "Test Artist", embed.Fields[0].Value)
	assert.Contains(t, embed.Fields[1].Value, "Volume: 100%")
	assert.Contains(t, embed.Fields[1].Value, "Loop: off")
	assert.Contains(t, embed.Fields[1].Value, "Queued: 1 tracks")
	require.NotNil(t, embed.Thumbnail)

	paused := snap
	paused.Paused = true
	pausedEmbed := NowPlaying(paused)
	require.NotNil(t, pausedEmbed)
	assert.Contains(t, pausedEmbed.Description, "⏸️ Paused")
	assert.NotEqual(t, embed.Color, pausedEmbed.Color)
}

func TestNowPlayingIdempotent(t *testing.T) {
	track := lavalink.Track{ID: "aaaaaaaaaaa", Title: "A", URI: "https://youtu.be/a", Length: 9000}
	snap := lavalink.Snapshot{Current: &track, Position: 4500, Volume: 80, Loop: true}

	first := NowPlaying(snap)
	second := NowPlaying(snap)
	assert.Equal(t, first, second)
}

func TestQueuedNotice(t *testing.T) {
	track := lavalink.Track{ID: "bbbbbbbbbbb", Title: "B", URI: "https://youtu.be/b", Author: "someone"}
	embed := QueuedNotice(track, 3)
	assert.Contains(t, embed.Description, "Position in queue: 3")
	assert.Contains(t, embed.Description, "[B](https://youtu.be/b)")
}

func TestControlsDisabled(t *testing.T) {
	buttons := 0
	for _, comp := range Controls(false, true) {
		row, ok := comp.(discordgo.ActionsRow)
		require.True(t, ok)
		for _, child := range row.Components {
			button, ok := child.(discordgo.Button)
			require.True(t, ok)
			assert.True(t, button.Disabled, "button %q must be disabled", button.Label)
			buttons++
		}
	}
	assert.Equal(t, 6, buttons)
}

func TestControlsLoopState(t *testing.T) {
	var loopButton *discordgo.Button
	for _, comp := range Controls(true, false) {
		row := comp.(discordgo.ActionsRow)
		for _, child := range row.Components {
			button := child.(discordgo.Button)
			assert.False(t, button.Disabled)
			if button.CustomID == (Action{Kind: ActionToggleLoop}).CustomID() {
				b := button
				loopButton = &b
			}
		}
	}
	require.NotNil(t, loopButton)
	assert.Equal(t, "🔁 Loop: on", loopButton.Label)
	assert.Equal(t, discordgo.SuccessButton, loopButton.Style)
}

func TestTruncateByRune(t *testing.T) {
	assert.Equal(t, "héllo", Truncate("héllo", 10))
	assert.Equal(t, "hél", Truncate("héllo", 3))
	assert.Equal(t, "", Truncate("abc", 0))

	got := Truncate(strings.Repeat("日", 120), 100)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, 100, utf8.RuneCountInString(got))
}
