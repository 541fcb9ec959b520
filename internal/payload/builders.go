package payload

import (
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
)

// BuildTicketPayload encodes a ticket lifecycle event.
func BuildTicketPayload(eventType string, t *domain.Ticket, ts time.Time) string {
	if t == nil {
		return "{}"
	}

	var loc Object
	loc.PutUint("mapId", uint64(t.Location.MapID))
	loc.PutFloat("x", float64(t.Location.X))
	loc.PutFloat("y", float64(t.Location.Y))
	loc.PutFloat("z", float64(t.Location.Z))

	var ticket Object
	ticket.PutUint("id", uint64(t.ID)).
		PutString("player", t.PlayerName).
		PutString("message", t.Message).
		PutString("comment", t.Comment).
		PutString("response", t.Response).
		PutString("assignedTo", t.AssignedToName).
		PutUint("assignedToGuid", t.AssignedToGUID).
		PutString("status", t.Status).
		PutUint("escalationStatus", uint64(t.EscalationStatus)).
		PutFlag("viewed", t.Viewed).
		PutFlag("needResponse", t.NeedResponse).
		PutFlag("needMoreHelp", t.NeedMoreHelp).
		PutInt("createTime", t.CreateTime).
		PutInt("lastModified", t.LastModified).
		PutUint("closedByGuid", t.ClosedByGUID).
		PutUint("resolvedByGuid", t.ResolvedByGUID).
		PutObject("location", &loc)

	return Encode(eventType, "ticket", &ticket, ts)
}

// BuildWhisperPayload encodes a whisper relay event in either direction.
func BuildWhisperPayload(eventType, player string, playerGUID uint64, gmName string, discordUserID uint64, ticketID uint32, message string, ts time.Time) string {
	var whisper Object
	whisper.PutString("player", player).
		PutUint("playerGuid", playerGUID).
		PutString("gmName", gmName).
		PutUint("discordUserId", discordUserID).
		PutUint("ticketId", uint64(ticketID)).
		PutString("message", message)
	return Encode(eventType, "whisper", &whisper, ts)
}

// BuildCommandResultPayload encodes the outcome of an executed command.
func BuildCommandResultPayload(inboxID int64, success bool, output string, ts time.Time) string {
	status := "error"
	if success {
		status = "ok"
	}
	var cmd Object
	cmd.PutInt("id", inboxID).
		PutString("status", status).
		PutString("output", output)
	return Encode(domain.EventCommandResult, "command", &cmd, ts)
}
