package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Command is one slash command: its registration data plus its handler.
type Command interface {
	Name() string
	Description() string
	Options() []*discordgo.ApplicationCommandOption
	Execute(s *discordgo.Session, i *discordgo.InteractionCreate, client *Client)
}

type CommandRegistry struct {
	commands map[string]Command
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{commands: make(map[string]Command)}
}

func (r *CommandRegistry) Register(cmd Command) {
	r.commands[cmd.Name()] = cmd
}

func (r *CommandRegistry) GetCommand(name string) (Command, bool) {
	cmd, ok := r.commands[name]
	return cmd, ok
}

func (r *CommandRegistry) GetAllCommands() []Command {
	cmds := make([]Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (c *Client) registerAllCommands() {
	registerMusicCommands(c.commands)
	c.log.Info().Int("count", len(c.commands.commands)).Msg("registered commands")
}

// RefreshSlashCommands removes every previously registered application
// command and re-creates the current set. Discord rate-limits command
// writes, hence the sleeps between calls.
func (c *Client) RefreshSlashCommands() error {
	c.log.Info().Msg("refreshing slash commands")

	existing, err := c.Session.ApplicationCommands(c.ClientID, "")
	if err != nil {
		return fmt.Errorf("failed to fetch existing commands: %w", err)
	}

	for _, cmd := range existing {
		if err := c.Session.ApplicationCommandDelete(c.ClientID, "", cmd.ID); err != nil {
			c.log.Warn().Err(err).Str("command", cmd.Name).Msg("failed to delete command")
		}
		time.Sleep(100 * time.Millisecond)
	}

	for _, cmd := range c.commands.GetAllCommands() {
		def := &discordgo.ApplicationCommand{
			Name:        cmd.Name(),
			Description: cmd.Description(),
			Options:     cmd.Options(),
		}
		if _, err := c.Session.ApplicationCommandCreate(c.ClientID, "", def); err != nil {
			return fmt.Errorf("failed to create %q command: %w", cmd.Name(), err)
		}
		time.Sleep(200 * time.Millisecond)
	}

	c.log.Info().Msg("slash commands refreshed")
	return nil
}
