package service

import (
	"fmt"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/payload"
)

// BuildTicketEmbed renders a ticket lifecycle event. Returns false when
// the payload has no ticket block.
func BuildTicketEmbed(eventType, raw string) (*domain.Embed, bool) {
	block, ok := payload.ExtractBlock(raw, "ticket")
	if !ok {
		return nil, false
	}

	id, _ := payload.ExtractUint(block, "id")
	player, _ := payload.ExtractString(block, "player")
	message, _ := payload.ExtractString(block, "message")
	status, _ := payload.ExtractString(block, "status")
	assignedTo, _ := payload.ExtractString(block, "assignedTo")
	comment, _ := payload.ExtractString(block, "comment")
	response, _ := payload.ExtractString(block, "response")

	if player == "" {
		player = "unknown"
	}
	if status == "" {
		status = "unknown"
	}
	if assignedTo == "" {
		assignedTo = "unassigned"
	}

	embed := &domain.Embed{
		Title:       fmt.Sprintf("Ticket #%d - %s", id, player),
		Description: message,
	}
	embed.AddField("Status", status, true)
	embed.AddField("Assigned", assignedTo, true)
	if comment != "" {
		embed.AddField("Comment", truncateForDiscord(comment), false)
	}
	if response != "" {
		embed.AddField("Response", truncateForDiscord(response), false)
	}

	switch eventType {
	case domain.EventTicketClose, domain.EventTicketResolve:
		embed.Color = domain.ColorTicketClosed
	case domain.EventTicketUpdate, domain.EventTicketStatus:
		embed.Color = domain.ColorTicketUpdate
	default:
		embed.Color = domain.ColorTicketOpen
	}
	return embed, true
}

// BuildWhisperEmbed renders a whisper relay event in either direction.
func BuildWhisperEmbed(eventType, raw string) (*domain.Embed, bool) {
	block, ok := payload.ExtractBlock(raw, "whisper")
	if !ok {
		return nil, false
	}

	player, _ := payload.ExtractString(block, "player")
	gmName, _ := payload.ExtractString(block, "gmName")
	message, _ := payload.ExtractString(block, "message")
	ticketID, _ := payload.ExtractUint(block, "ticketId")

	if player == "" {
		player = "unknown"
	}
	if gmName == "" {
		gmName = "unknown"
	}

	title := "Player Reply"
	color := domain.ColorPlayerReply
	if eventType == domain.EventGMWhisper {
		title = "GM Reply"
		color = domain.ColorSuccess
	}

	embed := &domain.Embed{Title: title, Description: message, Color: color}
	embed.AddField("Player", player, true)
	embed.AddField("GM", gmName, true)
	embed.AddField("Ticket", fmt.Sprintf("%d", ticketID), true)
	return embed, true
}

// BuildCommandResultEmbed renders a command completion event.
func BuildCommandResultEmbed(raw string) (*domain.Embed, bool) {
	block, ok := payload.ExtractBlock(raw, "command")
	if !ok {
		return nil, false
	}

	id, _ := payload.ExtractUint(block, "id")
	status, _ := payload.ExtractString(block, "status")
	output, _ := payload.ExtractString(block, "output")

	if status == "" {
		status = "unknown"
	}

	color := domain.ColorFailure
	if status == "ok" {
		color = domain.ColorSuccess
	}

	embed := &domain.Embed{
		Title:       fmt.Sprintf("Command Result #%d", id),
		Description: truncateForDiscord(output),
		Color:       color,
	}
	embed.AddField("Status", status, true)
	return embed, true
}

// buildEmbed picks the formatter for an event type.
func buildEmbed(item *domain.OutboxItem) (*domain.Embed, bool) {
	switch {
	case item.EventType == domain.EventCommandResult:
		return BuildCommandResultEmbed(item.Payload)
	case item.IsWhisperEvent():
		return BuildWhisperEmbed(item.EventType, item.Payload)
	case item.IsTicketEvent():
		return BuildTicketEmbed(item.EventType, item.Payload)
	default:
		return nil, false
	}
}
