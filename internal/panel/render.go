package panel

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"quidque.com/discord-maestro/internal/lavalink"
)

const (
	progressWidth = 20

	colorPlaying = 0x2ecc71
	colorPaused  = 0xe67e22
	colorQueued  = 0x5865f2
)

// FormatDuration renders a millisecond duration as H:MM:SS, or M:SS when
// under an hour. Negative inputs clamp to zero.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	s := ms / 1000
	h := s / 3600
	m := (s % 3600) / 60
	s = s % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// ProgressLine renders the elapsed/total clock pair around a fixed-width
// bar with a cursor glyph. A zero total is treated as one millisecond so
// the cursor maths never divides by zero.
func ProgressLine(pos, total int64) string {
	if total < 1 {
		total = 1
	}
	if pos < 0 {
		pos = 0
	}
	if pos > total {
		pos = total
	}

	cursor := progressCursor(pos, total)

	filled := cursor - 1
	if filled < 0 {
		filled = 0
	}
	bar := strings.Repeat("▬", filled) + "🔘" + strings.Repeat("▬", progressWidth-cursor)
	return fmt.Sprintf("%s ┃%s┃ %s", FormatDuration(pos), bar, FormatDuration(total))
}

// progressCursor exposes the cursor cell for the bar; kept separate so the
// monotonicity of the cursor is testable without parsing glyphs.
func progressCursor(pos, total int64) int {
	if total < 1 {
		total = 1
	}
	if pos < 0 {
		pos = 0
	}
	if pos > total {
		pos = total
	}
	cursor := int(float64(pos) / float64(total) * progressWidth)
	if cursor > progressWidth {
		cursor = progressWidth
	}
	return cursor
}

// ThumbnailURL derives a deterministic artwork URL from the track
// identity. Recognized: an 11-character video identifier, or a known host
// substring in the URI. Falls back to node-provided artwork when present.
func ThumbnailURL(t lavalink.Track) string {
	if t.ID != "" && (len(t.ID) == 11 || strings.Contains(t.URI, "youtube") || strings.Contains(t.URI, "youtu.be")) {
		return fmt.Sprintf("https://img.youtube.com/vi/%s/mqdefault.jpg", t.ID)
	}
	return t.ArtworkURL
}

// NowPlaying builds the panel embed from a snapshot. Returns nil when no
// track is current; callers treat that as nothing to display.
func NowPlaying(snap lavalink.Snapshot) *discordgo.MessageEmbed {
	track := snap.Current
	if track == nil {
		return nil
	}

	status := "▶️ Playing"
	color := colorPlaying
	if snap.Paused {
		status = "⏸️ Paused"
		color = colorPaused
	}

	loopState := "off"
	if snap.Loop {
		loopState = "on"
	}

	embed := &discordgo.MessageEmbed{
		Title: "🎶 Now Playing",
		Description: fmt.Sprintf("[%s](%s)\n%s\n%s",
			track.Title, track.URI, status, ProgressLine(snap.Position, track.Length)),
		Color: color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: orUnknown(track.Author), Inline: true},
			{
				Name: "Status",
				Value: fmt.Sprintf("Volume: %d%%\nLoop: %s\nQueued: %d tracks",
					snap.Volume, loopState, len(snap.Queue)),
				Inline: true,
			},
		},
	}

	if url := ThumbnailURL(*track); url != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
	}

	return embed
}

// QueuedNotice builds the lightweight "added to queue" acknowledgment for
// a track that did not start immediately.
func QueuedNotice(t lavalink.Track, position int) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       "✅ Added to Queue",
		Description: fmt.Sprintf("[%s](%s)\nPosition in queue: %d", t.Title, t.URI, position),
		Color:       colorQueued,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: orUnknown(t.Author), Inline: true},
		},
	}
	if url := ThumbnailURL(t); url != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
	}
	return embed
}

// Controls builds the panel's button row. With disabled set, every button
// renders non-actionable; that is the retired-panel rendering.
func Controls(loop, disabled bool) []discordgo.MessageComponent {
	loopLabel := "🔁 Loop: off"
	loopStyle := discordgo.SecondaryButton
	if loop {
		loopLabel = "🔁 Loop: on"
		loopStyle = discordgo.SuccessButton
	}

	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "⏯ Pause/Resume",
					Style:    discordgo.PrimaryButton,
					CustomID: Action{Kind: ActionTogglePause}.CustomID(),
					Disabled: disabled,
				},
				discordgo.Button{
					Label:    "⏭ Skip",
					Style:    discordgo.SecondaryButton,
					CustomID: Action{Kind: ActionSkip}.CustomID(),
					Disabled: disabled,
				},
				discordgo.Button{
					Label:    "⏹ Stop",
					Style:    discordgo.DangerButton,
					CustomID: Action{Kind: ActionStop}.CustomID(),
					Disabled: disabled,
				},
			},
		},
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "🔉 -10",
					Style:    discordgo.SecondaryButton,
					CustomID: Action{Kind: ActionVolumeDown}.CustomID(),
					Disabled: disabled,
				},
				discordgo.Button{
					Label:    "🔊 +10",
					Style:    discordgo.SecondaryButton,
					CustomID: Action{Kind: ActionVolumeUp}.CustomID(),
					Disabled: disabled,
				},
				discordgo.Button{
					Label:    loopLabel,
					Style:    loopStyle,
					CustomID: Action{Kind: ActionToggleLoop}.CustomID(),
					Disabled: disabled,
				},
			},
		},
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// Truncate cuts a string to at most max runes. Byte slicing would split a
// multi-byte sequence mid-rune and hand the surface invalid UTF-8.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
