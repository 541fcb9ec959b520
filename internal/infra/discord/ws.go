package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/azerothguard/gm-discord-bridge/internal/biz/repo"
)

const gatewayURL = "wss://gateway.discord.gg/?v=10&encoding=json"

// Gateway intents: guilds, guild messages and message content, enough to
// see thread replies and slash commands.
const gatewayIntents = 1<<0 | 1<<9 | 1<<15

// Gateway opcodes.
const (
	opDispatch       = 0
	opHeartbeat      = 1
	opIdentify       = 2
	opReconnect      = 7
	opInvalidSession = 9
	opHello          = 10
	opHeartbeatAck   = 11
)

type gatewayPayload struct {
	Op   int             `json:"op"`
	Type string          `json:"t,omitempty"`
	Seq  *int64          `json:"s,omitempty"`
	Data json.RawMessage `json:"d,omitempty"`
}

// wsConn maintains the event websocket: identify, heartbeat, reconnect
// with backoff, and dispatch of the event types the bridge consumes.
type wsConn struct {
	token    string
	dispatch func(eventType string, data json.RawMessage)

	mu   sync.Mutex
	conn *websocket.Conn
	seq  int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newWSConn(token string, dispatch func(eventType string, data json.RawMessage)) *wsConn {
	return &wsConn{token: token, dispatch: dispatch}
}

func (w *wsConn) start() error {
	w.ctx, w.cancel = context.WithCancel(context.Background())
	w.wg.Add(1)
	go w.run()
	return nil
}

func (w *wsConn) stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.mu.Lock()
	if w.conn != nil {
		w.conn.Close()
	}
	w.mu.Unlock()
	w.wg.Wait()
}

// run owns the connect/read/reconnect cycle.
func (w *wsConn) run() {
	defer w.wg.Done()

	backoff := time.Second
	for {
		select {
		case <-w.ctx.Done():
			return
		default:
		}

		if err := w.session(); err != nil {
			fmt.Printf("[Discord] Gateway session ended: %v (reconnecting in %v)\n", err, backoff)
		}

		select {
		case <-w.ctx.Done():
			return
		case <-time.After(backoff):
		}
		if backoff < 60*time.Second {
			backoff *= 2
		}
	}
}

// session runs one websocket connection until it fails.
func (w *wsConn) session() error {
	conn, _, err := websocket.DefaultDialer.DialContext(w.ctx, gatewayURL, nil)
	if err != nil {
		return fmt.Errorf("failed to dial gateway: %w", err)
	}
	w.mu.Lock()
	w.conn = conn
	w.mu.Unlock()
	defer conn.Close()

	// First frame must be HELLO carrying the heartbeat interval.
	var hello gatewayPayload
	if err := conn.ReadJSON(&hello); err != nil {
		return fmt.Errorf("failed to read hello: %w", err)
	}
	if hello.Op != opHello {
		return fmt.Errorf("expected hello, got op %d", hello.Op)
	}
	var helloData struct {
		HeartbeatInterval int64 `json:"heartbeat_interval"`
	}
	if err := json.Unmarshal(hello.Data, &helloData); err != nil {
		return fmt.Errorf("failed to parse hello: %w", err)
	}

	if err := w.identify(conn); err != nil {
		return err
	}

	hbCtx, stopHeartbeat := context.WithCancel(w.ctx)
	defer stopHeartbeat()
	go w.heartbeat(hbCtx, conn, time.Duration(helloData.HeartbeatInterval)*time.Millisecond)

	fmt.Println("[Discord] Gateway connected")

	for {
		var payload gatewayPayload
		if err := conn.ReadJSON(&payload); err != nil {
			return fmt.Errorf("read failed: %w", err)
		}

		switch payload.Op {
		case opDispatch:
			if payload.Seq != nil {
				w.mu.Lock()
				w.seq = *payload.Seq
				w.mu.Unlock()
			}
			if w.dispatch != nil && payload.Type != "" {
				w.dispatch(payload.Type, payload.Data)
			}
		case opHeartbeat:
			w.sendHeartbeat(conn)
		case opReconnect, opInvalidSession:
			return fmt.Errorf("server requested reconnect (op %d)", payload.Op)
		}
	}
}

func (w *wsConn) identify(conn *websocket.Conn) error {
	identify := map[string]interface{}{
		"op": opIdentify,
		"d": map[string]interface{}{
			"token":   w.token,
			"intents": gatewayIntents,
			"properties": map[string]string{
				"os":      "linux",
				"browser": "gm-discord-bridge",
				"device":  "gm-discord-bridge",
			},
		},
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := conn.WriteJSON(identify); err != nil {
		return fmt.Errorf("failed to identify: %w", err)
	}
	return nil
}

func (w *wsConn) heartbeat(ctx context.Context, conn *websocket.Conn, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sendHeartbeat(conn)
		}
	}
}

func (w *wsConn) sendHeartbeat(conn *websocket.Conn) {
	w.mu.Lock()
	defer w.mu.Unlock()
	seq := w.seq
	payload := map[string]interface{}{"op": opHeartbeat, "d": seq}
	if err := conn.WriteJSON(payload); err != nil {
		fmt.Printf("[Discord] Failed to send heartbeat: %v\n", err)
	}
}

type wireUser struct {
	ID         snowflake `json:"id"`
	Username   string    `json:"username"`
	GlobalName string    `json:"global_name"`
	Bot        bool      `json:"bot"`
}

type wireMember struct {
	Nick  string      `json:"nick"`
	Roles []snowflake `json:"roles"`
	User  *wireUser   `json:"user"`
}

// dispatchEvent fans a raw gateway event out to the registered handlers.
func (c *Client) dispatchEvent(eventType string, data json.RawMessage) {
	switch eventType {
	case "INTERACTION_CREATE":
		c.handleInteraction(data)
	case "MESSAGE_CREATE":
		c.handleMessageCreate(data)
	}
}

const interactionTypeCommand = 2

func (c *Client) handleInteraction(data json.RawMessage) {
	if c.onSlash == nil {
		return
	}

	var event struct {
		ID      snowflake `json:"id"`
		Token   string    `json:"token"`
		Type    int       `json:"type"`
		GuildID snowflake `json:"guild_id"`
		Member  *wireMember `json:"member"`
		Data    struct {
			Name    string `json:"name"`
			Options []struct {
				Name  string          `json:"name"`
				Value json.RawMessage `json:"value"`
			} `json:"options"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &event); err != nil {
		fmt.Printf("[Discord] Failed to parse interaction: %v\n", err)
		return
	}
	if event.Type != interactionTypeCommand || event.Member == nil || event.Member.User == nil {
		return
	}

	cmd := &repo.SlashCommand{
		Name:    event.Data.Name,
		GuildID: uint64(event.GuildID),
		UserID:  uint64(event.Member.User.ID),
		Options: make(map[string]string),
	}
	for _, roleID := range event.Member.Roles {
		cmd.Roles = append(cmd.Roles, uint64(roleID))
	}
	for _, opt := range event.Data.Options {
		var str string
		if err := json.Unmarshal(opt.Value, &str); err != nil {
			// Non-string option values pass through raw.
			str = string(opt.Value)
		}
		cmd.Options[opt.Name] = str
	}

	reply := c.onSlash(cmd)
	if reply == "" {
		reply = "Done."
	}
	if err := c.respondEphemeral(context.Background(), uint64(event.ID), event.Token, reply); err != nil {
		fmt.Printf("[Discord] Failed to respond to interaction: %v\n", err)
	}
}

func (c *Client) handleMessageCreate(data json.RawMessage) {
	if c.onMessage == nil {
		return
	}

	var event struct {
		ChannelID snowflake   `json:"channel_id"`
		Content   string      `json:"content"`
		Author    *wireUser   `json:"author"`
		Member    *wireMember `json:"member"`
	}
	if err := json.Unmarshal(data, &event); err != nil {
		fmt.Printf("[Discord] Failed to parse message: %v\n", err)
		return
	}
	if event.Author == nil {
		return
	}

	displayName := ""
	if event.Member != nil && event.Member.Nick != "" {
		displayName = event.Member.Nick
	} else if event.Author.GlobalName != "" {
		displayName = event.Author.GlobalName
	} else {
		displayName = event.Author.Username
	}

	c.onMessage(&repo.ChannelMessage{
		ChannelID:   uint64(event.ChannelID),
		UserID:      uint64(event.Author.ID),
		DisplayName: displayName,
		Content:     event.Content,
		FromBot:     event.Author.Bot,
	})
}
