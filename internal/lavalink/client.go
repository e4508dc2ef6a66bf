// Package lavalink is a minimal client for a Lavalink-style playback node.
// It keeps one Player per guild, forwards player ops over the node's
// websocket, and fans incoming TrackStart events out to subscribers.
package lavalink

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type NodeConfig struct {
	Host     string
	Port     int
	Password string
	Secure   bool
	UserID   string
}

// TrackStartHandler is invoked from the websocket read pump whenever the
// node reports a new current track for a guild. Handlers must not block.
type TrackStartHandler func(guildID string)

type Client struct {
	cfg  NodeConfig
	http *http.Client
	log  zerolog.Logger

	mu           sync.RWMutex
	conn         *websocket.Conn
	connected    bool
	reconnecting bool
	players      map[string]*Player
	onTrackStart []TrackStartHandler

	stopChan chan struct{}
}

func NewClient(cfg NodeConfig, log zerolog.Logger) *Client {
	return &Client{
		cfg:      cfg,
		http:     &http.Client{Timeout: 10 * time.Second},
		log:      log.With().Str("component", "lavalink").Logger(),
		players:  make(map[string]*Player),
		stopChan: make(chan struct{}),
	}
}

// OnTrackStart registers a handler for track-started notifications.
// Registration is not safe after Connect.
func (c *Client) OnTrackStart(h TrackStartHandler) {
	c.onTrackStart = append(c.onTrackStart, h)
}

// GetPlayer returns the player for a guild, creating it on first use.
func (c *Client) GetPlayer(guildID string) *Player {
	c.mu.Lock()
	defer c.mu.Unlock()

	if p, ok := c.players[guildID]; ok {
		return p
	}
	p := newPlayer(guildID, c)
	c.players[guildID] = p
	return p
}

// DestroyPlayer drops a guild's player and tells the node to release it.
func (c *Client) DestroyPlayer(guildID string) {
	c.mu.Lock()
	delete(c.players, guildID)
	c.mu.Unlock()

	if err := c.sendPlayerOp(guildID, map[string]any{"op": "destroy"}); err != nil {
		c.log.Debug().Err(err).Str("guild_id", guildID).Msg("destroy op failed")
	}
}

func (c *Client) Connect() error {
	return c.connect()
}

func (c *Client) Close() error {
	close(c.stopChan)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) connect() error {
	c.mu.Lock()
	if c.connected || c.reconnecting {
		c.mu.Unlock()
		return nil
	}
	c.reconnecting = true
	c.mu.Unlock()

	scheme := "ws"
	if c.cfg.Secure {
		scheme = "wss"
	}
	endpoint := fmt.Sprintf("%s://%s:%d/v4/websocket", scheme, c.cfg.Host, c.cfg.Port)

	headers := http.Header{}
	headers.Set("Authorization", c.cfg.Password)
	headers.Set("User-Id", c.cfg.UserID)
	headers.Set("Client-Name", "discord-maestro/1.0")

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(endpoint, headers)
	if err != nil {
		c.mu.Lock()
		c.reconnecting = false
		c.mu.Unlock()
		return fmt.Errorf("failed to connect to node: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.reconnecting = false
	c.mu.Unlock()

	c.log.Info().Str("node", endpoint).Msg("connected to playback node")

	go c.readMessages(conn)
	return nil
}

func (c *Client) readMessages(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stopChan:
				return
			default:
			}
			c.log.Warn().Err(err).Msg("node connection lost, reconnecting")
			c.handleDisconnect()
			return
		}

		var payload map[string]any
		if err := json.Unmarshal(message, &payload); err != nil {
			continue
		}
		c.handleMessage(payload)
	}
}

func (c *Client) handleDisconnect() {
	c.mu.Lock()
	c.connected = false
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	select {
	case <-c.stopChan:
		return
	case <-time.After(5 * time.Second):
	}
	if err := c.connect(); err != nil {
		c.log.Error().Err(err).Msg("reconnect failed")
		go c.handleDisconnect()
	}
}

func (c *Client) handleMessage(payload map[string]any) {
	op, _ := payload["op"].(string)

	switch op {
	case "ready":
		c.log.Info().Msg("node ready")
	case "playerUpdate":
		c.handlePlayerUpdate(payload)
	case "event":
		c.handleEvent(payload)
	case "stats":
		// Node statistics are not used.
	}
}

func (c *Client) handlePlayerUpdate(payload map[string]any) {
	guildID, ok := payload["guildId"].(string)
	if !ok {
		return
	}
	state, ok := payload["state"].(map[string]any)
	if !ok {
		return
	}
	position, _ := state["position"].(float64)

	c.mu.RLock()
	player, exists := c.players[guildID]
	c.mu.RUnlock()

	if exists {
		player.updateState(int64(position))
	}
}

func (c *Client) handleEvent(payload map[string]any) {
	eventType, _ := payload["type"].(string)
	guildID, _ := payload["guildId"].(string)
	if guildID == "" {
		return
	}

	switch eventType {
	case "TrackStartEvent":
		c.log.Debug().Str("guild_id", guildID).Msg("track started")
		for _, h := range c.onTrackStart {
			go h(guildID)
		}
	case "TrackEndEvent":
		reason, _ := payload["reason"].(string)
		c.mu.RLock()
		player, exists := c.players[guildID]
		c.mu.RUnlock()
		if exists {
			player.handleTrackEnd(reason)
		}
	case "TrackExceptionEvent":
		c.log.Error().Str("guild_id", guildID).Msg("track exception")
	case "TrackStuckEvent":
		c.log.Warn().Str("guild_id", guildID).Msg("track stuck")
	case "WebSocketClosedEvent":
		c.log.Warn().Str("guild_id", guildID).Msg("voice websocket closed")
	}
}

func (c *Client) sendPlayerOp(guildID string, op map[string]any) error {
	c.mu.RLock()
	conn := c.conn
	connected := c.connected
	c.mu.RUnlock()

	if !connected || conn == nil {
		return fmt.Errorf("not connected to playback node")
	}

	op["guildId"] = guildID
	return conn.WriteJSON(op)
}

type loadResult struct {
	LoadType string          `json:"loadType"`
	Data     json.RawMessage `json:"data"`
}

// LoadTracks resolves an identifier (a direct URL, or a search prefix like
// "ytsearch:query") against the node's REST endpoint.
func (c *Client) LoadTracks(identifier string) ([]Track, error) {
	scheme := "http"
	if c.cfg.Secure {
		scheme = "https"
	}
	endpoint := fmt.Sprintf("%s://%s:%d/v4/loadtracks?identifier=%s",
		scheme, c.cfg.Host, c.cfg.Port, url.QueryEscape(identifier))

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", c.cfg.Password)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loadtracks request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("loadtracks returned status %d", resp.StatusCode)
	}

	var result loadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode loadtracks response: %w", err)
	}

	switch result.LoadType {
	case "track":
		var p trackPayload
		if err := json.Unmarshal(result.Data, &p); err != nil {
			return nil, err
		}
		return []Track{p.toTrack()}, nil
	case "search", "playlist":
		var payloads []trackPayload
		if result.LoadType == "playlist" {
			var pl struct {
				Tracks []trackPayload `json:"tracks"`
			}
			if err := json.Unmarshal(result.Data, &pl); err != nil {
				return nil, err
			}
			payloads = pl.Tracks
		} else if err := json.Unmarshal(result.Data, &payloads); err != nil {
			return nil, err
		}
		tracks := make([]Track, 0, len(payloads))
		for _, p := range payloads {
			tracks = append(tracks, p.toTrack())
		}
		return tracks, nil
	case "empty":
		return nil, nil
	case "error":
		return nil, fmt.Errorf("node failed to load %q", identifier)
	default:
		return nil, fmt.Errorf("unexpected load type %q", result.LoadType)
	}
}

// LoadTrack resolves a URL to a single track.
func (c *Client) LoadTrack(rawURL string) (*Track, error) {
	tracks, err := c.LoadTracks(rawURL)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, nil
	}
	t := tracks[0]
	return &t, nil
}

// Search runs a source-prefixed search and returns at most limit results.
func (c *Client) Search(query string, limit int) ([]Track, error) {
	tracks, err := c.LoadTracks("ytsearch:" + query)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}
