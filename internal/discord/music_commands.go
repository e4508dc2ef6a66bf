package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"

	"quidque.com/discord-maestro/internal/lavalink"
	"quidque.com/discord-maestro/internal/panel"
)

func registerMusicCommands(registry *CommandRegistry) {
	registry.Register(&PlayCommand{})
	registry.Register(&SkipCommand{})
	registry.Register(&StopCommand{})
	registry.Register(&PauseCommand{})
	registry.Register(&ResumeCommand{})
	registry.Register(&LoopCommand{})
	registry.Register(&NowPlayingCommand{})
	registry.Register(&QueueCommand{})
	registry.Register(&VolumeCommand{})
	registry.Register(&SetPanelCommand{})
}

type PlayCommand struct{}

func (c *PlayCommand) Name() string        { return "play" }
func (c *PlayCommand) Description() string { return "Play a track by URL or search query" }

func (c *PlayCommand) Options() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "query",
			Description: "Track URL or search terms",
			Required:    true,
		},
	}
}

func (c *PlayCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})

	query := i.ApplicationCommandData().Options[0].StringValue()

	if isURL(query) {
		c.playURL(s, i, client, query)
		return
	}
	c.search(s, i, client, query)
}

func (c *PlayCommand) playURL(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client, url string) {
	track, err := client.Lava.LoadTrack(url)
	if err != nil {
		editResponse(s, i, fmt.Sprintf("❌ Failed to load track: %s", err.Error()))
		return
	}
	if track == nil {
		editResponse(s, i, fmt.Sprintf("🔍 Could not load `%s`.", url))
		return
	}

	startTrack(s, i, client, *track)
}

// startTrack runs the shared tail of the play and search-select flows:
// hand the track to the engine, then either surface a panel for an
// immediate start or acknowledge the enqueue.
func startTrack(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client, track lavalink.Track) {
	startedNow, queuePos, err := client.Engine.Play(i.GuildID, track)
	if err != nil {
		editResponse(s, i, fmt.Sprintf("❌ Failed to start playback: %s", err.Error()))
		return
	}

	client.Engine.SetAnnounceChannel(i.GuildID, i.ChannelID)

	if !startedNow {
		embed := panel.QueuedNotice(track, queuePos)
		s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
			Embeds: &[]*discordgo.MessageEmbed{embed},
		})
		return
	}

	client.Engine.RetirePanel(i.GuildID)

	snap := client.Lava.GetPlayer(i.GuildID).Snapshot()
	embed := panel.NowPlaying(snap)
	if embed == nil {
		editResponse(s, i, fmt.Sprintf("🎶 Started playing [%s](%s).", track.Title, track.URI))
		return
	}

	components := panel.Controls(snap.Loop, false)
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})

	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		// Without the message reference the panel cannot be refreshed in
		// place; the next notification cycle will post a fresh one.
		client.log.Debug().Err(err).Str("guild_id", i.GuildID).Msg("could not fetch panel message")
		return
	}
	client.Engine.BindPanel(i.GuildID, panel.MessageRef{
		ChannelID: i.ChannelID,
		MessageID: msg.ID,
	}, track.ID)
}

func (c *PlayCommand) search(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client, query string) {
	results, err := client.Lava.Search(query, client.searchLimit)
	if err != nil {
		editResponse(s, i, fmt.Sprintf("❌ Search failed: %s", err.Error()))
		return
	}
	if len(results) == 0 {
		editResponse(s, i, fmt.Sprintf("🔍 No results for `%s`.", query))
		return
	}

	token := uuid.NewString()
	client.searches.put(token, searchEntry{tracks: results, userID: interactionUserID(i)})

	options := make([]discordgo.SelectMenuOption, 0, len(results))
	for idx, t := range results {
		options = append(options, discordgo.SelectMenuOption{
			Label:       panel.Truncate(t.Title, 90),
			Description: panel.Truncate(t.Author, 90),
			Value:       fmt.Sprintf("%d", idx),
		})
	}

	components := []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    panel.Action{Kind: panel.ActionSelectTrack, Token: token}.CustomID(),
					Placeholder: "Pick a track to play",
					Options:     options,
				},
			},
		},
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🔎 Select a track",
		Description: fmt.Sprintf("Found %d results for `%s`.", len(results), query),
	}
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{embed},
		Components: &components,
	})
}

type SkipCommand struct{}

func (c *SkipCommand) Name() string                                   { return "skip" }
func (c *SkipCommand) Description() string                            { return "Skip the current track" }
func (c *SkipCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *SkipCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client) {
	player := client.Lava.GetPlayer(i.GuildID)
	if player.Current() == nil && player.QueueLength() == 0 {
		respondEphemeral(s, i, "Nothing is playing or queued.")
		return
	}

	if err := player.Skip(); err != nil {
		respondEphemeral(s, i, fmt.Sprintf("❌ Failed to skip: %s", err.Error()))
		return
	}
	respond(s, i, "⏭️ Skipped the current track.")
}

type StopCommand struct{}

func (c *StopCommand) Name() string                                   { return "stop" }
func (c *StopCommand) Description() string                            { return "Stop playback and clear the queue" }
func (c *StopCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *StopCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client) {
	player := client.Lava.GetPlayer(i.GuildID)
	if err := player.Stop(); err != nil {
		client.log.Warn().Err(err).Str("guild_id", i.GuildID).Msg("stop op failed")
	}
	client.Engine.Stop(i.GuildID)

	respond(s, i, "⏹️ Stopped playback and cleared the queue.")
}

type PauseCommand struct{}

func (c *PauseCommand) Name() string                                   { return "pause" }
func (c *PauseCommand) Description() string                            { return "Pause playback" }
func (c *PauseCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *PauseCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client) {
	player := client.Lava.GetPlayer(i.GuildID)
	if player.Current() == nil {
		respondEphemeral(s, i, "Nothing is playing.")
		return
	}
	player.Pause()
	respondEphemeral(s, i, "⏸️ Paused.")
}

type ResumeCommand struct{}

func (c *ResumeCommand) Name() string                                   { return "resume" }
func (c *ResumeCommand) Description() string                            { return "Resume playback" }
func (c *ResumeCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *ResumeCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client) {
	player := client.Lava.GetPlayer(i.GuildID)
	if player.Current() == nil {
		respondEphemeral(s, i, "Nothing is playing.")
		return
	}
	player.Resume()
	respondEphemeral(s, i, "▶️ Resumed.")
}

type LoopCommand struct{}

func (c *LoopCommand) Name() string                                   { return "loop" }
func (c *LoopCommand) Description() string                            { return "Toggle single-track loop" }
func (c *LoopCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *LoopCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client) {
	on := client.Lava.GetPlayer(i.GuildID).ToggleLoop()
	state := "off"
	if on {
		state = "on"
	}
	respondEphemeral(s, i, fmt.Sprintf("🔁 Single-track loop: %s", state))
}

type NowPlayingCommand struct{}

func (c *NowPlayingCommand) Name() string                                   { return "nowplaying" }
func (c *NowPlayingCommand) Description() string                            { return "Show the current track with controls" }
func (c *NowPlayingCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *NowPlayingCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client) {
	snap := client.Lava.GetPlayer(i.GuildID).Snapshot()
	embed := panel.NowPlaying(snap)
	if embed == nil {
		respondEphemeral(s, i, "Nothing is playing.")
		return
	}

	client.Engine.RetirePanel(i.GuildID)

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: panel.Controls(snap.Loop, false),
		},
	})
	if err != nil {
		return
	}

	msg, err := s.InteractionResponse(i.Interaction)
	if err != nil {
		client.log.Debug().Err(err).Str("guild_id", i.GuildID).Msg("could not fetch panel message")
		return
	}
	trackID := ""
	if snap.Current != nil {
		trackID = snap.Current.ID
	}
	client.Engine.BindPanel(i.GuildID, panel.MessageRef{
		ChannelID: i.ChannelID,
		MessageID: msg.ID,
	}, trackID)
}

type QueueCommand struct{}

func (c *QueueCommand) Name() string                                   { return "queue" }
func (c *QueueCommand) Description() string                            { return "Browse the play queue" }
func (c *QueueCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *QueueCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client) {
	snap := client.Lava.GetPlayer(i.GuildID).Snapshot()
	if snap.Current == nil && len(snap.Queue) == 0 {
		respondEphemeral(s, i, "The queue is empty.")
		return
	}

	embed, components := panel.QueueView(snap, 0)
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: components,
		},
	})
}

type VolumeCommand struct{}

func (c *VolumeCommand) Name() string        { return "volume" }
func (c *VolumeCommand) Description() string { return "Set playback volume (0-1000)" }

func (c *VolumeCommand) Options() []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "level",
			Description: "Volume level",
			Required:    true,
		},
	}
}

func (c *VolumeCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client) {
	level := int(i.ApplicationCommandData().Options[0].IntValue())

	if err := client.Lava.GetPlayer(i.GuildID).SetVolume(level); err != nil {
		respondEphemeral(s, i, "Volume must be between 0 and 1000.")
		return
	}
	respond(s, i, fmt.Sprintf("🔊 Volume set to %d%%", level))
}

type SetPanelCommand struct{}

func (c *SetPanelCommand) Name() string                                   { return "setpanel" }
func (c *SetPanelCommand) Description() string                            { return "Post automatic now-playing panels in this channel" }
func (c *SetPanelCommand) Options() []*discordgo.ApplicationCommandOption { return nil }

func (c *SetPanelCommand) Execute(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client) {
	client.Engine.SetAnnounceChannel(i.GuildID, i.ChannelID)
	respondEphemeral(s, i, "✅ Now-playing panels will be posted in this channel.")
}

func isURL(query string) bool {
	return strings.HasPrefix(query, "http://") || strings.HasPrefix(query, "https://")
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: content},
	})
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
}
