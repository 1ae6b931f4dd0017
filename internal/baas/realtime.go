package baas

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"gigmarket/internal/authctx"
	"gigmarket/internal/domain"
)

const defaultHeartbeatInterval = 30 * time.Second

// ChangeHandler receives row changes for one subscription. Handlers run on the
// connection's read loop, in arrival order, and must not block.
type ChangeHandler func(change domain.Change)

// RealtimeClient subscribes to row-level change notifications over a websocket.
// It connects on the first subscription and does not reconnect: when the
// connection drops, existing subscriptions stop receiving changes.
type RealtimeClient struct {
	mu       sync.Mutex
	url      string
	schema   string
	logger   *logrus.Logger
	conn     *websocket.Conn
	done     chan struct{}
	ref      int
	channels map[string]*Channel
	token    string

	heartbeatInterval time.Duration
}

// Channel is a joined realtime topic.
type Channel struct {
	client  *RealtimeClient
	topic   string
	joinRef string
	handler ChangeHandler
}

// Topic returns the channel's topic name.
func (c *Channel) Topic() string {
	return c.topic
}

// Realtime returns the client's realtime connection, creating it on first use.
func (c *Client) Realtime() *RealtimeClient {
	c.realtimeOnce.Do(func() {
		c.realtime = newRealtimeClient(c.baseURL, c.apiKey, c.schema, c.logger)
	})
	return c.realtime
}

func newRealtimeClient(baseURL, apiKey, schema string, logger *logrus.Logger) *RealtimeClient {
	wsURL := baseURL
	switch {
	case strings.HasPrefix(wsURL, "https://"):
		wsURL = "wss://" + strings.TrimPrefix(wsURL, "https://")
	case strings.HasPrefix(wsURL, "http://"):
		wsURL = "ws://" + strings.TrimPrefix(wsURL, "http://")
	}
	wsURL += "/realtime/v1/websocket?apikey=" + url.QueryEscape(apiKey) + "&vsn=1.0.0"

	return &RealtimeClient{
		url:               wsURL,
		schema:            schema,
		logger:            logger,
		channels:          make(map[string]*Channel),
		heartbeatInterval: defaultHeartbeatInterval,
	}
}

type phoenixMessage struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
	JoinRef *string         `json:"join_ref,omitempty"`
}

// Subscribe joins a new topic that receives the changes selected by f.
// The access token in ctx decides which rows the caller is allowed to see.
func (r *RealtimeClient) Subscribe(ctx context.Context, f domain.ChangeFilter, handler ChangeHandler) (*Channel, error) {
	if strings.TrimSpace(f.Table) == "" {
		return nil, fmt.Errorf("realtime subscription requires a table")
	}
	if handler == nil {
		return nil, fmt.Errorf("realtime subscription requires a handler")
	}
	if f.Schema == "" {
		f.Schema = r.schema
	}
	if f.Event == "" {
		f.Event = "*"
	}

	if err := r.connect(ctx); err != nil {
		return nil, err
	}

	change := map[string]any{
		"event":  f.Event,
		"schema": f.Schema,
		"table":  f.Table,
	}
	if f.Filter != "" {
		change["filter"] = f.Filter
	}
	payload := map[string]any{
		"config": map[string]any{
			"broadcast":        map[string]any{"self": false},
			"presence":         map[string]any{"key": ""},
			"postgres_changes": []any{change},
		},
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	token := authctx.AccessToken(ctx)
	if token == "" {
		token = r.token
	}
	if token != "" {
		payload["access_token"] = token
	}

	ch := &Channel{
		client:  r,
		topic:   fmt.Sprintf("realtime:%s:%s", f.Table, uuid.NewString()),
		handler: handler,
	}
	ch.joinRef = r.nextRef()
	if err := r.writeLocked(ch.topic, "phx_join", payload, ch.joinRef, ch.joinRef); err != nil {
		return nil, fmt.Errorf("send join: %w", err)
	}
	r.channels[ch.topic] = ch
	r.logger.WithField("topic", ch.topic).Debugf("subscribed to %s.%s", f.Schema, f.Table)
	return ch, nil
}

// SetAuth replaces the access token of every joined channel, and of channels
// joined later without a token in their context. Call it after each refresh so
// row visibility keeps being checked against a valid token.
func (r *RealtimeClient) SetAuth(token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.token = token
	if r.conn == nil || token == "" {
		return nil
	}
	var errs []error
	for _, ch := range r.channels {
		if err := r.writeLocked(ch.topic, "access_token", map[string]any{"access_token": token}, r.nextRef(), ch.joinRef); err != nil {
			errs = append(errs, fmt.Errorf("update token on %s: %w", ch.Topic(), err))
		}
	}
	return errors.Join(errs...)
}

// Unsubscribe leaves the channel. Changes already read may still be delivered.
func (c *Channel) Unsubscribe() error {
	r := c.client
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[c.topic]; !ok {
		return nil
	}
	delete(r.channels, c.topic)
	if r.conn == nil {
		return nil
	}
	if err := r.writeLocked(c.topic, "phx_leave", map[string]any{}, r.nextRef(), c.joinRef); err != nil {
		return fmt.Errorf("send leave: %w", err)
	}
	return nil
}

// Close drops every subscription and closes the connection.
func (r *RealtimeClient) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.channels = make(map[string]*Channel)
	if r.conn == nil {
		return nil
	}
	close(r.done)
	conn := r.conn
	r.conn = nil

	err := conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
	)
	closeErr := conn.Close()
	if err != nil {
		return fmt.Errorf("close message: %w", err)
	}
	return closeErr
}

func (r *RealtimeClient) connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, r.url, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}

	r.conn = conn
	r.done = make(chan struct{})
	go r.readLoop(conn, r.done)
	go r.heartbeat(r.done)
	return nil
}

func (r *RealtimeClient) nextRef() string {
	r.ref++
	return strconv.Itoa(r.ref)
}

func (r *RealtimeClient) writeLocked(topic, event string, payload any, ref, joinRef string) error {
	if r.conn == nil {
		return fmt.Errorf("realtime connection closed")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	msg := phoenixMessage{Topic: topic, Event: event, Payload: raw, Ref: &ref}
	if joinRef != "" {
		msg.JoinRef = &joinRef
	}
	return r.conn.WriteJSON(msg)
}

func (r *RealtimeClient) readLoop(conn *websocket.Conn, done chan struct{}) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-done:
			default:
				r.logger.Warnf("realtime connection lost: %v", err)
				r.mu.Lock()
				if r.conn == conn {
					r.conn = nil
					close(r.done)
				}
				r.mu.Unlock()
			}
			return
		}

		var msg phoenixMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			r.logger.Debugf("realtime: skip malformed message: %v", err)
			continue
		}
		r.dispatch(msg)
	}
}

func (r *RealtimeClient) dispatch(msg phoenixMessage) {
	switch msg.Event {
	case "postgres_changes":
	case "phx_reply":
		var reply struct {
			Status   string         `json:"status"`
			Response map[string]any `json:"response"`
		}
		if err := json.Unmarshal(msg.Payload, &reply); err == nil && reply.Status == "error" {
			r.logger.WithField("topic", msg.Topic).Errorf("realtime join rejected: %v", reply.Response)
		}
		return
	case "phx_error", "phx_close":
		r.logger.WithField("topic", msg.Topic).Warnf("realtime channel %s", strings.TrimPrefix(msg.Event, "phx_"))
		return
	default:
		return
	}

	r.mu.Lock()
	ch, ok := r.channels[msg.Topic]
	r.mu.Unlock()
	if !ok {
		return
	}

	change, err := parseChange(msg.Payload)
	if err != nil {
		r.logger.WithField("topic", msg.Topic).Debugf("realtime: %v", err)
		return
	}
	ch.handler(change)
}

func parseChange(payload json.RawMessage) (domain.Change, error) {
	var body struct {
		Data struct {
			Type            string         `json:"type"`
			Schema          string         `json:"schema"`
			Table           string         `json:"table"`
			Record          map[string]any `json:"record"`
			OldRecord       map[string]any `json:"old_record"`
			CommitTimestamp string         `json:"commit_timestamp"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return domain.Change{}, fmt.Errorf("decode change: %w", err)
	}
	if body.Data.Type == "" {
		return domain.Change{}, fmt.Errorf("change without type")
	}

	change := domain.Change{
		Type:      domain.ChangeType(strings.ToUpper(body.Data.Type)),
		Schema:    body.Data.Schema,
		Table:     body.Data.Table,
		Record:    body.Data.Record,
		OldRecord: body.Data.OldRecord,
	}
	if ts, err := time.Parse(time.RFC3339Nano, body.Data.CommitTimestamp); err == nil {
		change.CommitTimestamp = ts
	}
	return change, nil
}

func (r *RealtimeClient) heartbeat(done chan struct{}) {
	ticker := time.NewTicker(r.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			r.mu.Lock()
			if r.conn != nil {
				if err := r.writeLocked("phoenix", "heartbeat", map[string]any{}, r.nextRef(), ""); err != nil {
					r.logger.Warnf("realtime heartbeat: %v", err)
				}
			}
			r.mu.Unlock()
		}
	}
}
