package discord

import (
	"github.com/bwmarrin/discordgo"

	"quidque.com/discord-maestro/internal/lavalink"
	"quidque.com/discord-maestro/internal/panel"
)

// sessionSurface adapts a live discordgo session to the panel engine's
// Surface interface.
type sessionSurface struct {
	session *discordgo.Session
}

func (ss *sessionSurface) Send(channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (panel.MessageRef, error) {
	msg, err := ss.session.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: components,
	})
	if err != nil {
		return panel.MessageRef{}, err
	}
	return panel.MessageRef{ChannelID: msg.ChannelID, MessageID: msg.ID}, nil
}

func (ss *sessionSurface) Edit(ref panel.MessageRef, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	edit := &discordgo.MessageEdit{
		Channel:    ref.ChannelID,
		ID:         ref.MessageID,
		Components: &components,
	}
	// A nil embed means the snapshot no longer renders; leave the embed
	// as-is and only swap the components.
	if embed != nil {
		edit.Embeds = &[]*discordgo.MessageEmbed{embed}
	}
	_, err := ss.session.ChannelMessageEditComplex(edit)
	return err
}

func (ss *sessionSurface) Fetch(ref panel.MessageRef) error {
	_, err := ss.session.ChannelMessage(ref.ChannelID, ref.MessageID)
	return err
}

// nodePlayers adapts the lavalink client to the panel engine's
// PlayerSource.
type nodePlayers struct {
	lava *lavalink.Client
}

func (p nodePlayers) Snapshot(guildID string) lavalink.Snapshot {
	return p.lava.GetPlayer(guildID).Snapshot()
}

func (p nodePlayers) Play(guildID string, t lavalink.Track) (bool, int, error) {
	return p.lava.GetPlayer(guildID).Play(t)
}
