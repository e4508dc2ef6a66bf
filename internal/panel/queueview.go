package panel

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"quidque.com/discord-maestro/internal/lavalink"
)

const queuePageSize = 8

// paginate clamps a requested page against the queue length and returns
// the page count plus the slice bounds of the shown window. Page count has
// a floor of one so an empty queue still renders page 1/1.
func paginate(total, page int) (pageCount, clamped, start, end int) {
	pageCount = (total + queuePageSize - 1) / queuePageSize
	if pageCount < 1 {
		pageCount = 1
	}
	clamped = page
	if clamped < 0 {
		clamped = 0
	}
	if clamped > pageCount-1 {
		clamped = pageCount - 1
	}
	start = clamped * queuePageSize
	end = start + queuePageSize
	if end > total {
		end = total
	}
	return pageCount, clamped, start, end
}

// QueueView renders one page of the queue browser from a snapshot. Every
// interaction rebuilds the whole view from a fresh snapshot rather than
// patching, since the queue may have advanced concurrently.
func QueueView(snap lavalink.Snapshot, page int) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	total := len(snap.Queue)
	pageCount, page, start, end := paginate(total, page)
	shown := snap.Queue[start:end]

	var lines []string
	if snap.Current != nil {
		lines = append(lines, fmt.Sprintf("**Now playing**\n%s | %s\n",
			snap.Current.Title, FormatDuration(snap.Current.Length)))
	}
	if total > 0 {
		lines = append(lines, fmt.Sprintf("🎶 **%d tracks queued**\n", total))
	}
	if len(shown) > 0 {
		lines = append(lines, "**Up next:**")
		for i, t := range shown {
			abs := start + i + 1
			lines = append(lines, fmt.Sprintf("`%d.` %s (%s)", abs, t.Title, FormatDuration(t.Length)))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "The queue is empty.")
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🎵 Queue",
		Description: strings.Join(lines, "\n"),
		Color:       colorQueued,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Page %d/%d", page+1, pageCount)},
	}

	var components []discordgo.MessageComponent
	if len(shown) > 0 {
		options := make([]discordgo.SelectMenuOption, 0, len(shown))
		for i, t := range shown {
			abs := start + i + 1
			label := Truncate(fmt.Sprintf("%d. %s", abs, t.Title), 100)
			options = append(options, discordgo.SelectMenuOption{
				Label:       label,
				Description: FormatDuration(t.Length),
				Value:       strconv.Itoa(abs),
			})
		}
		components = append(components, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    Action{Kind: ActionRemoveAt, Page: page}.CustomID(),
					Placeholder: "Select a track to remove",
					Options:     options,
				},
			},
		})
	}

	components = append(components, discordgo.ActionsRow{
		Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "<",
				Style:    discordgo.SecondaryButton,
				CustomID: Action{Kind: ActionPagePrev, Page: page}.CustomID(),
				Disabled: page == 0,
			},
			discordgo.Button{
				Label:    fmt.Sprintf("%d/%d", page+1, pageCount),
				Style:    discordgo.PrimaryButton,
				CustomID: queuePrefix + ":page:0",
				Disabled: true,
			},
			discordgo.Button{
				Label:    ">",
				Style:    discordgo.SecondaryButton,
				CustomID: Action{Kind: ActionPageNext, Page: page}.CustomID(),
				Disabled: page >= pageCount-1,
			},
		},
	})

	return embed, components
}
