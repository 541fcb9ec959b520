package domain

// Embed colors for outbound notifications.
const (
	ColorTicketOpen   = 0x2D9CDB
	ColorTicketUpdate = 0xF2C94C
	ColorTicketClosed = 0xFF5555
	ColorSuccess      = 0x6FCF97
	ColorFailure      = 0xEB5757
	ColorPlayerReply  = 0x9B51E0
)

// EmbedField is one name/value pair inside an Embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich formatted message for the chat platform.
type Embed struct {
	Title       string
	Description string
	Color       int
	Fields      []EmbedField
}

// AddField appends a field and returns the embed for chaining.
func (e *Embed) AddField(name, value string, inline bool) *Embed {
	e.Fields = append(e.Fields, EmbedField{Name: name, Value: value, Inline: inline})
	return e
}
