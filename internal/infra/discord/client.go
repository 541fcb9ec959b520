package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/domain"
	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
)

const apiBase = "https://discord.com/api/v10"

// Client is the Discord gateway implementation: REST for outbound calls
// and a websocket connection for events. It satisfies repo.Gateway.
type Client struct {
	token string
	appID uint64
	http  *http.Client

	ws *wsConn

	onSlash   func(cmd *repo.SlashCommand) string
	onMessage func(msg *repo.ChannelMessage)
}

// NewClient creates a Discord client for the given bot token.
func NewClient(token string, appID uint64) *Client {
	return &Client{
		token: token,
		appID: appID,
		http:  &http.Client{Timeout: 15 * time.Second},
	}
}

// OnSlashCommand sets the slash-command handler.
func (c *Client) OnSlashCommand(handler func(cmd *repo.SlashCommand) string) {
	c.onSlash = handler
}

// OnChannelMessage sets the inbound message handler.
func (c *Client) OnChannelMessage(handler func(msg *repo.ChannelMessage)) {
	c.onMessage = handler
}

// Start connects the event websocket.
func (c *Client) Start() error {
	c.ws = newWSConn(c.token, c.dispatchEvent)
	return c.ws.start()
}

// Stop closes the websocket and joins background work.
func (c *Client) Stop() {
	if c.ws != nil {
		c.ws.stop()
	}
}

// snowflake tolerates Discord's string-encoded ids.
type snowflake uint64

func (s *snowflake) UnmarshalJSON(data []byte) error {
	str := string(bytes.Trim(data, `"`))
	if str == "" || str == "null" {
		*s = 0
		return nil
	}
	v, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		return fmt.Errorf("failed to parse snowflake %q: %w", str, err)
	}
	*s = snowflake(v)
	return nil
}

func (s snowflake) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(s), 10) + `"`), nil
}

// do runs one authenticated REST call and decodes the response into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiBase+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		// One retry after the advertised delay; give up after that.
		if delay, err := strconv.ParseFloat(resp.Header.Get("Retry-After"), 64); err == nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(delay * float64(time.Second))):
			}
			return c.do(ctx, method, path, body, out)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("discord API %s %s returned %d: %s", method, path, resp.StatusCode, detail)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

type wireEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type wireEmbed struct {
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Color       int              `json:"color,omitempty"`
	Fields      []wireEmbedField `json:"fields,omitempty"`
}

func toWireEmbed(e *domain.Embed) *wireEmbed {
	w := &wireEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		w.Fields = append(w.Fields, wireEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return w
}

// PostMessage posts to a channel and returns the created message id.
func (c *Client) PostMessage(ctx context.Context, channelID uint64, msg repo.OutMessage) (uint64, error) {
	body := struct {
		Content string       `json:"content,omitempty"`
		Embeds  []*wireEmbed `json:"embeds,omitempty"`
	}{Content: msg.Content}
	if msg.Embed != nil {
		body.Embeds = []*wireEmbed{toWireEmbed(msg.Embed)}
	}

	var created struct {
		ID snowflake `json:"id"`
	}
	path := fmt.Sprintf("/channels/%d/messages", channelID)
	if err := c.do(ctx, http.MethodPost, path, &body, &created); err != nil {
		return 0, err
	}
	return uint64(created.ID), nil
}

// CreateThread opens a thread attached to an existing message.
func (c *Client) CreateThread(ctx context.Context, channelID, messageID uint64, name string) (uint64, error) {
	body := struct {
		Name                string `json:"name"`
		AutoArchiveDuration int    `json:"auto_archive_duration"`
	}{Name: name, AutoArchiveDuration: 1440}

	var created struct {
		ID snowflake `json:"id"`
	}
	path := fmt.Sprintf("/channels/%d/messages/%d/threads", channelID, messageID)
	if err := c.do(ctx, http.MethodPost, path, &body, &created); err != nil {
		return 0, err
	}
	return uint64(created.ID), nil
}

// ThreadName returns the name of a thread channel.
func (c *Client) ThreadName(ctx context.Context, threadID uint64) (string, error) {
	var channel struct {
		Name string `json:"name"`
	}
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/channels/%d", threadID), nil, &channel); err != nil {
		return "", err
	}
	return channel.Name, nil
}

// ArchiveThread locks and archives a thread.
func (c *Client) ArchiveThread(ctx context.Context, threadID uint64) error {
	body := struct {
		Archived bool `json:"archived"`
		Locked   bool `json:"locked"`
	}{Archived: true, Locked: true}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/channels/%d", threadID), &body, nil)
}

const (
	permViewChannel   = 1 << 10
	channelTypeText   = 0
	overwriteTypeRole = 0
)

type permissionOverwrite struct {
	ID    snowflake `json:"id"`
	Type  int       `json:"type"`
	Allow string    `json:"allow"`
	Deny  string    `json:"deny"`
}

// CreateChannel creates a text channel under a category. When roles are
// given the channel is hidden from everyone else.
func (c *Client) CreateChannel(ctx context.Context, guildID, parentID uint64, name string, allowedRoles []uint64) (uint64, error) {
	body := struct {
		Name       string                `json:"name"`
		Type       int                   `json:"type"`
		ParentID   snowflake             `json:"parent_id,omitempty"`
		Overwrites []permissionOverwrite `json:"permission_overwrites,omitempty"`
	}{Name: name, Type: channelTypeText, ParentID: snowflake(parentID)}

	if len(allowedRoles) > 0 {
		allow := strconv.Itoa(permViewChannel)
		// @everyone shares the guild id.
		body.Overwrites = append(body.Overwrites, permissionOverwrite{
			ID: snowflake(guildID), Type: overwriteTypeRole, Deny: allow,
		})
		for _, roleID := range allowedRoles {
			body.Overwrites = append(body.Overwrites, permissionOverwrite{
				ID: snowflake(roleID), Type: overwriteTypeRole, Allow: allow,
			})
		}
	}

	var created struct {
		ID snowflake `json:"id"`
	}
	path := fmt.Sprintf("/guilds/%d/channels", guildID)
	if err := c.do(ctx, http.MethodPost, path, &body, &created); err != nil {
		return 0, err
	}
	return uint64(created.ID), nil
}

// MoveChannel re-parents a channel to another category.
func (c *Client) MoveChannel(ctx context.Context, channelID, parentID uint64) error {
	body := struct {
		ParentID snowflake `json:"parent_id"`
	}{ParentID: snowflake(parentID)}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/channels/%d", channelID), &body, nil)
}

type commandOption struct {
	Type        int    `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

type commandDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Options     []commandOption `json:"options,omitempty"`
}

const optionTypeString = 3

// RegisterCommands registers the bridge slash commands, guild-scoped when
// guildID is non-zero so updates propagate immediately.
func (c *Client) RegisterCommands(guildID uint64) error {
	commands := []commandDef{
		{
			Name:        "gm-auth",
			Description: "Link this Discord account to a GM account",
			Options: []commandOption{
				{Type: optionTypeString, Name: "secret", Description: "Secret issued in game via .discord link", Required: true},
			},
		},
		{
			Name:        "gm-command",
			Description: "Queue a GM command for execution on the game server",
			Options: []commandOption{
				{Type: optionTypeString, Name: "command", Description: "Command text, e.g. .ticket list", Required: true},
			},
		},
		{
			Name:        "gm-whisper",
			Description: "Whisper an online player as your GM character",
			Options: []commandOption{
				{Type: optionTypeString, Name: "player", Description: "Player character name", Required: true},
				{Type: optionTypeString, Name: "message", Description: "Message text", Required: true},
			},
		},
		{
			Name:        "gm-ticket-assign",
			Description: "Assign a GM ticket to a GM",
			Options: []commandOption{
				{Type: optionTypeString, Name: "ticket_id", Description: "Ticket id", Required: true},
				{Type: optionTypeString, Name: "gm_name", Description: "GM character name", Required: true},
			},
		},
	}

	path := fmt.Sprintf("/applications/%d/commands", c.appID)
	if guildID != 0 {
		path = fmt.Sprintf("/applications/%d/guilds/%d/commands", c.appID, guildID)
	}
	if err := c.do(context.Background(), http.MethodPut, path, commands, nil); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	fmt.Printf("[Discord] Registered %d slash commands\n", len(commands))
	return nil
}

const ephemeralFlag = 1 << 6

// respondEphemeral acknowledges an interaction with a private message.
func (c *Client) respondEphemeral(ctx context.Context, interactionID uint64, token, content string) error {
	body := struct {
		Type int `json:"type"`
		Data struct {
			Content string `json:"content"`
			Flags   int    `json:"flags"`
		} `json:"data"`
	}{Type: 4}
	body.Data.Content = content
	body.Data.Flags = ephemeralFlag

	path := fmt.Sprintf("/interactions/%d/%s/callback", interactionID, token)
	return c.do(ctx, http.MethodPost, path, &body, nil)
}
