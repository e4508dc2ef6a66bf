package panel

import (
	"github.com/bwmarrin/discordgo"

	"quidque.com/discord-maestro/internal/lavalink"
)

// MessageRef identifies a posted panel. Both IDs are kept because the panel
// may live in a different channel than the current announce channel.
type MessageRef struct {
	ChannelID string
	MessageID string
}

// Surface is the front-end the engine posts panels through. The discord
// layer implements it over a live session; tests use an in-memory fake.
type Surface interface {
	Send(channelID string, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) (MessageRef, error)
	Edit(ref MessageRef, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error
	// Fetch confirms the referenced message still exists. Used by the
	// refresh loop's single recovery attempt after a failed edit.
	Fetch(ref MessageRef) error
}

// PlayerSource is the slice of the playback backend the engine consumes.
type PlayerSource interface {
	Snapshot(guildID string) lavalink.Snapshot
	Play(guildID string, t lavalink.Track) (startedNow bool, queuePos int, err error)
}
