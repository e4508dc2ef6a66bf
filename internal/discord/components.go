package discord

import (
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"quidque.com/discord-maestro/internal/lavalink"
	"quidque.com/discord-maestro/internal/panel"
)

const (
	searchEntryTTL      = 10 * time.Minute
	searchSweepInterval = 5 * time.Minute
)

type searchEntry struct {
	tracks    []lavalink.Track
	userID    string
	createdAt time.Time
}

// handleComponent routes every button press and menu selection. Controls
// decode to a tagged action; one switch per guild dispatches them all.
func (c *Client) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.MessageComponentData()

	act, err := panel.ParseAction(data.CustomID, data.Values)
	if err != nil {
		c.log.Warn().Err(err).Str("custom_id", data.CustomID).Msg("unparseable component interaction")
		respondEphemeral(s, i, "Unknown control.")
		return
	}

	player := c.Lava.GetPlayer(i.GuildID)

	switch act.Kind {
	case panel.ActionTogglePause:
		if player.Paused() {
			player.Resume()
		} else {
			player.Pause()
		}
		c.updatePanelMessage(s, i)

	case panel.ActionSkip:
		if err := player.Skip(); err != nil {
			respondEphemeral(s, i, "Nothing to skip.")
			return
		}
		deferUpdate(s, i)

	case panel.ActionStop:
		if err := player.Stop(); err != nil {
			c.log.Warn().Err(err).Str("guild_id", i.GuildID).Msg("stop op failed")
		}
		c.Engine.Stop(i.GuildID)
		deferUpdate(s, i)

	case panel.ActionVolumeDown:
		level := player.Volume() - 10
		if level < 0 {
			level = 0
		}
		player.SetVolume(level)
		deferUpdate(s, i)

	case panel.ActionVolumeUp:
		level := player.Volume() + 10
		if level > 1000 {
			level = 1000
		}
		player.SetVolume(level)
		deferUpdate(s, i)

	case panel.ActionToggleLoop:
		player.ToggleLoop()
		c.updatePanelMessage(s, i)

	case panel.ActionPagePrev:
		c.updateQueueMessage(s, i, act.Page-1)

	case panel.ActionPageNext:
		c.updateQueueMessage(s, i, act.Page+1)

	case panel.ActionRemoveAt:
		// Re-resolve against the live queue: the snapshot the menu was
		// rendered from may be stale, and a vanished index is a no-op.
		player.RemoveAt(act.Index)
		c.updateQueueMessage(s, i, act.Page)

	case panel.ActionSelectTrack:
		c.handleSearchSelect(s, i, act)

	default:
		respondEphemeral(s, i, "Unknown control.")
	}
}

// updatePanelMessage re-renders the panel the pressed button sits on.
func (c *Client) updatePanelMessage(s *discordgo.Session, i *discordgo.InteractionCreate) {
	snap := c.Lava.GetPlayer(i.GuildID).Snapshot()
	embed := panel.NowPlaying(snap)
	if embed == nil {
		deferUpdate(s, i)
		return
	}
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: panel.Controls(snap.Loop, false),
		},
	})
}

// updateQueueMessage rebuilds the queue browser from a fresh snapshot.
func (c *Client) updateQueueMessage(s *discordgo.Session, i *discordgo.InteractionCreate, page int) {
	snap := c.Lava.GetPlayer(i.GuildID).Snapshot()
	embed, components := panel.QueueView(snap, page)
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

func (c *Client) handleSearchSelect(s *discordgo.Session, i *discordgo.InteractionCreate, act panel.Action) {
	entry, ok := c.searches.get(act.Token)
	if !ok {
		respondEphemeral(s, i, "Search results expired. Please search again.")
		return
	}
	if entry.userID != "" && entry.userID != interactionUserID(i) {
		respondEphemeral(s, i, "You can't pick from someone else's search results.")
		return
	}
	if act.Index < 0 || act.Index >= len(entry.tracks) {
		respondEphemeral(s, i, "Invalid selection.")
		return
	}
	track := entry.tracks[act.Index]

	startedNow, queuePos, err := c.Engine.Play(i.GuildID, track)
	if err != nil {
		respondEphemeral(s, i, fmt.Sprintf("❌ Failed to start playback: %s", err.Error()))
		return
	}

	c.Engine.SetAnnounceChannel(i.GuildID, i.ChannelID)

	notice := "Added to queue."
	if startedNow {
		notice = "Playing now."

		c.Engine.RetirePanel(i.GuildID)

		snap := c.Lava.GetPlayer(i.GuildID).Snapshot()
		embed := panel.NowPlaying(snap)
		if embed != nil {
			sent, err := s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
				Embeds:     []*discordgo.MessageEmbed{embed},
				Components: panel.Controls(snap.Loop, false),
			})
			if err == nil {
				c.Engine.BindPanel(i.GuildID, panel.MessageRef{
					ChannelID: sent.ChannelID,
					MessageID: sent.ID,
				}, track.ID)
			}
		}
	} else {
		s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{panel.QueuedNotice(track, queuePos)},
		})
	}

	c.searches.remove(act.Token)

	// Replace the select menu so the same result set cannot be replayed.
	content := fmt.Sprintf("Selected **%s** — %s", track.Title, notice)
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    content,
			Embeds:     []*discordgo.MessageEmbed{},
			Components: []discordgo.MessageComponent{},
		},
	})
}

func deferUpdate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// searchCache holds pending search result sets keyed by an opaque token
// embedded in the select menu's custom ID.
type searchCache struct {
	mu      sync.Mutex
	entries map[string]searchEntry
}

func newSearchCache() *searchCache {
	return &searchCache{entries: make(map[string]searchEntry)}
}

func (sc *searchCache) put(token string, entry searchEntry) {
	entry.createdAt = time.Now()
	sc.mu.Lock()
	sc.entries[token] = entry
	sc.mu.Unlock()
}

func (sc *searchCache) get(token string) (searchEntry, bool) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	entry, ok := sc.entries[token]
	return entry, ok
}

func (sc *searchCache) remove(token string) {
	sc.mu.Lock()
	delete(sc.entries, token)
	sc.mu.Unlock()
}

// startSweeper evicts expired result sets on a fixed interval.
func (sc *searchCache) startSweeper(stop <-chan struct{}, log zerolog.Logger) {
	ticker := time.NewTicker(searchSweepInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-searchEntryTTL)
				sc.mu.Lock()
				for token, entry := range sc.entries {
					if entry.createdAt.Before(cutoff) {
						delete(sc.entries, token)
					}
				}
				sc.mu.Unlock()
				log.Debug().Msg("swept expired search results")
			}
		}
	}()
}
