package discord

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"quidque.com/discord-maestro/internal/config"
	"quidque.com/discord-maestro/internal/lavalink"
	"quidque.com/discord-maestro/internal/panel"
)

type Client struct {
	Token    string
	ClientID string
	Session  *discordgo.Session

	Lava   *lavalink.Client
	Engine *panel.Engine

	commands    *CommandRegistry
	searches    *searchCache
	searchLimit int
	log         zerolog.Logger
	stopChan    chan struct{}
}

func NewClient(cfg config.Config, log zerolog.Logger) (*Client, error) {
	if cfg.DiscordToken == "" {
		return nil, errors.New("discord token is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	client := &Client{
		Token:       cfg.DiscordToken,
		ClientID:    cfg.ClientID,
		Session:     session,
		commands:    NewCommandRegistry(),
		searches:    newSearchCache(),
		searchLimit: cfg.SearchLimit,
		log:         log.With().Str("component", "discord").Logger(),
		stopChan:    make(chan struct{}),
	}

	client.Lava = lavalink.NewClient(lavalink.NodeConfig{
		Host:     cfg.Lavalink.Host,
		Port:     cfg.Lavalink.Port,
		Password: cfg.Lavalink.Password,
		Secure:   cfg.Lavalink.Secure,
		UserID:   cfg.ClientID,
	}, log)

	client.Engine = panel.NewEngine(
		nodePlayers{lava: client.Lava},
		&sessionSurface{session: session},
		log,
	)
	if cfg.RefreshInterval > 0 {
		client.Engine.RefreshInterval = cfg.RefreshInterval
	}

	// The node's track-started notifications drive the announcement path.
	client.Lava.OnTrackStart(client.Engine.HandleTrackStarted)

	client.registerAllCommands()

	session.AddHandler(client.handleReady)
	session.AddHandler(client.handleInteraction)
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	return client, nil
}

func (c *Client) Connect() error {
	if err := c.Session.Open(); err != nil {
		return fmt.Errorf("failed to connect to Discord: %w", err)
	}

	if err := c.Lava.Connect(); err != nil {
		c.log.Warn().Err(err).Msg("playback node unavailable, will keep retrying")
	}

	if err := c.RefreshSlashCommands(); err != nil {
		c.log.Error().Err(err).Msg("failed to refresh slash commands")
	}

	c.searches.startSweeper(c.stopChan, c.log)

	return nil
}

func (c *Client) Disconnect() error {
	close(c.stopChan)

	if err := c.Lava.Close(); err != nil {
		c.log.Error().Err(err).Msg("error closing node connection")
	}

	return c.Session.Close()
}

func (c *Client) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	c.log.Info().
		Str("user", s.State.User.Username).
		Int("guilds", len(r.Guilds)).
		Msg("logged in")

	s.UpdateGameStatus(0, "music | /play")
}

func (c *Client) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		c.handleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		c.handleComponent(s, i)
	}
}

func (c *Client) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name

	cmd, ok := c.commands.GetCommand(name)
	if !ok {
		c.log.Warn().Str("command", name).Msg("received unknown command")
		s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: fmt.Sprintf("Unknown command: %s", name),
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		return
	}

	c.log.Info().Str("command", name).Str("guild_id", i.GuildID).Msg("command executed")
	cmd.Execute(s, i, c)
}
