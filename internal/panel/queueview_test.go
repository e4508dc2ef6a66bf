package panel

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quidque.com/discord-maestro/internal/lavalink"
)

func makeQueue(n int) []lavalink.Track {
	queue := make([]lavalink.Track, 0, n)
	for i := 1; i <= n; i++ {
		queue = append(queue, lavalink.Track{
			ID:     fmt.Sprintf("track-%02d", i),
			Title:  fmt.Sprintf("t%d", i),
			URI:    fmt.Sprintf("https://example.com/%d", i),
			Length: 60000,
		})
	}
	return queue
}

func TestPaginate(t *testing.T) {
	cases := []struct {
		total, page                             int
		wantCount, wantPage, wantStart, wantEnd int
	}{
		{0, 0, 1, 0, 0, 0},
		{1, 0, 1, 0, 0, 1},
		{8, 0, 1, 0, 0, 8},
		{9, 1, 2, 1, 8, 9},
		{20, 0, 3, 0, 0, 8},
		{20, 1, 3, 1, 8, 16},
		{20, 2, 3, 2, 16, 20},
		{20, 5, 3, 2, 16, 20}, // requested page past the end clamps to last
		{20, -3, 3, 0, 0, 8},
	}

	for _, tc := range cases {
		count, page, start, end := paginate(tc.total, tc.page)
		assert.Equal(t, tc.wantCount, count, "total=%d page=%d", tc.total, tc.page)
		assert.Equal(t, tc.wantPage, page, "total=%d page=%d", tc.total, tc.page)
		assert.Equal(t, tc.wantStart, start, "total=%d page=%d", tc.total, tc.page)
		assert.Equal(t, tc.wantEnd, end, "total=%d page=%d", tc.total, tc.page)
	}
}

func TestQueueViewAbsoluteNumbering(t *testing.T) {
	snap := lavalink.Snapshot{Queue: makeQueue(20)}

	embed, _ := QueueView(snap, 1)
	assert.Contains(t, embed.Description, "`9.` t9")
	assert.Contains(t, embed.Description, "`16.` t16")
	assert.NotContains(t, embed.Description, "`8.`")
	assert.NotContains(t, embed.Description, "`17.`")
	assert.Equal(t, "Page 2/3", embed.Footer.Text)
}

func TestQueueViewRemovalRerender(t *testing.T) {
	queue := makeQueue(20)
	snap := lavalink.Snapshot{Queue: queue}

	embed, _ := QueueView(snap, 1)
	assert.Contains(t, embed.Description, "`9.` t9")
	assert.Contains(t, embed.Description, "`10.` t10")

	// Remove the item shown at absolute index 9, then rebuild from the
	// fresh queue: the previously-10th track sits at position 9.
	fresh := append(append([]lavalink.Track(nil), queue[:8]...), queue[9:]...)
	embed, _ = QueueView(lavalink.Snapshot{Queue: fresh}, 1)
	assert.Contains(t, embed.Description, "`9.` t10")
	assert.NotContains(t, embed.Description, "t9 ")
}

func TestQueueViewNavButtons(t *testing.T) {
	snap := lavalink.Snapshot{Queue: makeQueue(20)}

	navButtons := func(page int) (prev, next discordgo.Button) {
		_, components := QueueView(snap, page)
		require.NotEmpty(t, components)
		nav := components[len(components)-1].(discordgo.ActionsRow)
		require.Len(t, nav.Components, 3)
		return nav.Components[0].(discordgo.Button), nav.Components[2].(discordgo.Button)
	}

	prev, next := navButtons(0)
	assert.True(t, prev.Disabled, "prev disabled on first page")
	assert.False(t, next.Disabled)

	prev, next = navButtons(1)
	assert.False(t, prev.Disabled)
	assert.False(t, next.Disabled)

	prev, next = navButtons(2)
	assert.False(t, prev.Disabled)
	assert.True(t, next.Disabled, "next disabled on last page")
}

func TestQueueViewRemovalMenuListsOnlyShownItems(t *testing.T) {
	snap := lavalink.Snapshot{Queue: makeQueue(20)}

	_, components := QueueView(snap, 2)
	require.Len(t, components, 2)

	menuRow := components[0].(discordgo.ActionsRow)
	menu := menuRow.Components[0].(discordgo.SelectMenu)
	require.Len(t, menu.Options, 4) // items 17..20

	assert.Equal(t, "17", menu.Options[0].Value)
	assert.Equal(t, "20", menu.Options[3].Value)
}

func TestQueueViewEmpty(t *testing.T) {
	embed, components := QueueView(lavalink.Snapshot{}, 0)
	assert.Contains(t, embed.Description, "The queue is empty.")
	assert.Equal(t, "Page 1/1", embed.Footer.Text)
	require.Len(t, components, 1) // nav row only, no removal menu
}

func TestQueueViewShowsCurrentTrack(t *testing.T) {
	current := lavalink.Track{Title: "current song", Length: 120000}
	snap := lavalink.Snapshot{Current: &current, Queue: makeQueue(2)}

	embed, _ := QueueView(snap, 0)
	assert.Contains(t, embed.Description, "current song")
	assert.Contains(t, embed.Description, "2 tracks queued")
}

func TestQueueViewTruncatesLabelsByRune(t *testing.T) {
	snap := lavalink.Snapshot{
		Queue: []lavalink.Track{
			{ID: "aaaaaaaaaaa", Title: strings.Repeat("日", 150), Length: 180000},
		},
	}

	_, components := QueueView(snap, 0)
	row, ok := components[0].(discordgo.ActionsRow)
	require.True(t, ok)
	menu, ok := row.Components[0].(discordgo.SelectMenu)
	require.True(t, ok)
	require.Len(t, menu.Options, 1)

	label := menu.Options[0].Label
	assert.True(t, utf8.ValidString(label))
	assert.LessOrEqual(t, utf8.RuneCountInString(label), 100)
}
