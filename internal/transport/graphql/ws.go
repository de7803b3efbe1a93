package graphqltransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/corray333/backend-labs/delivery/internal/service/models/user"
	"github.com/corray333/backend-labs/delivery/internal/transport/http/middleware/auth"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
)

// Websocket subprotocols.
const (
	// ProtocolGraphQLWS is the subscriptions-transport-ws protocol.
	ProtocolGraphQLWS = "graphql-ws"
	// ProtocolGraphQLTransportWS is the graphql-ws library protocol.
	ProtocolGraphQLTransportWS = "graphql-transport-ws"
)

// Message types of both protocols.
const (
	msgConnectionInit      = "connection_init"
	msgConnectionAck       = "connection_ack"
	msgConnectionError     = "connection_error"
	msgConnectionTerminate = "connection_terminate"
	msgKeepAlive           = "ka"
	msgStart               = "start"
	msgStop                = "stop"
	msgData                = "data"
	msgSubscribe           = "subscribe"
	msgNext                = "next"
	msgError               = "error"
	msgComplete            = "complete"
	msgPing                = "ping"
	msgPong                = "pong"
)

// Close codes of the graphql-transport-ws protocol.
const (
	closeBadRequest      = 4400
	closeUnauthorized    = 4401
	closeForbidden       = 4403
	closeSubscriberTaken = 4409
	closeTooManyInits    = 4429
)

const (
	defaultKeepAlive = 15 * time.Second
	writeTimeout     = 10 * time.Second
	sendBuffer       = 16
)

var errTerminated = errors.New("connection terminated by client")

type subscriber interface {
	Subscribe(ctx context.Context, query, operationName string, variables map[string]any) (<-chan any, error)
}

type authenticator interface {
	Authenticate(ctx context.Context, token string) (*user.User, error)
}

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type operationPayload struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// WSHandler serves GraphQL subscriptions over websocket.
type WSHandler struct {
	schema    subscriber
	auth      authenticator
	upgrader  websocket.Upgrader
	keepAlive time.Duration
}

// wsOption is a function that configures the WSHandler.
type wsOption func(*WSHandler)

// WithKeepAlive sets the keep-alive interval of graphql-ws connections.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithKeepAlive(interval time.Duration) wsOption {
	return func(h *WSHandler) {
		h.keepAlive = interval
	}
}

// WithAllowedOrigins restricts the origins allowed to open a connection. "*" allows any.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithAllowedOrigins(origins []string) wsOption {
	return func(h *WSHandler) {
		if len(origins) == 0 || slices.Contains(origins, "*") {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")

			return origin == "" || slices.Contains(origins, origin)
		}
	}
}

// NewWSHandler creates a WSHandler. Tokens sent in connection_init are checked with auth.
func NewWSHandler(schema subscriber, auth authenticator, opts ...wsOption) *WSHandler {
	h := &WSHandler{
		schema: schema,
		auth:   auth,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{ProtocolGraphQLTransportWS, ProtocolGraphQLWS},
			CheckOrigin:  func(*http.Request) bool { return true },
		},
		keepAlive: defaultKeepAlive,
	}
	for _, opt := range opts {
		opt(h)
	}

	return h
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "Failed to upgrade websocket connection", "error", err)

		return
	}

	c := &wsConn{
		handler:  h,
		ws:       ws,
		protocol: ws.Subprotocol(),
		user:     auth.UserFromContext(r.Context()),
		out:      make(chan wsMessage, sendBuffer),
		subs:     make(map[string]context.CancelFunc),
	}
	if c.protocol == "" {
		c.protocol = ProtocolGraphQLWS
	}

	err = c.serve(r.Context())
	switch {
	case err == nil, errors.Is(err, errTerminated), errors.Is(err, context.Canceled),
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway):
		slog.DebugContext(r.Context(), "Websocket connection closed", "protocol", c.protocol)
	default:
		slog.WarnContext(r.Context(), "Websocket connection failed", "protocol", c.protocol, "error", err)
	}
}

// wsConn is one websocket connection and the subscriptions running on it.
type wsConn struct {
	handler  *WSHandler
	ws       *websocket.Conn
	protocol string

	mu   sync.Mutex
	user *user.User
	subs map[string]context.CancelFunc

	initialized bool
	out         chan wsMessage
}

func (c *wsConn) serve(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return c.readLoop(ctx, g)
	})
	g.Go(func() error {
		return c.writeLoop(ctx)
	})

	return g.Wait()
}

func (c *wsConn) legacy() bool {
	return c.protocol == ProtocolGraphQLWS
}

// readLoop handles client messages. It always returns a non-nil error so the group is cancelled.
func (c *wsConn) readLoop(ctx context.Context, g *errgroup.Group) error {
	for {
		var msg wsMessage
		if err := c.ws.ReadJSON(&msg); err != nil {
			return err
		}

		switch msg.Type {
		case msgConnectionInit:
			if err := c.init(ctx, msg.Payload); err != nil {
				return err
			}
		case msgStart, msgSubscribe:
			if err := c.start(ctx, g, msg); err != nil {
				return err
			}
		case msgStop, msgComplete:
			c.forget(msg.ID)
		case msgPing:
			c.send(ctx, wsMessage{Type: msgPong})
		case msgPong:
		case msgConnectionTerminate:
			return errTerminated
		default:
			if !c.legacy() {
				return c.closeWith(closeBadRequest, "Invalid message type")
			}
			c.sendError(ctx, msg.ID, "Invalid message type "+msg.Type)
		}
	}
}

// writeLoop is the only writer of data frames. Closing the socket on exit unblocks readLoop.
func (c *wsConn) writeLoop(ctx context.Context) error {
	defer func() {
		c.stopAll()
		_ = c.ws.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeTimeout),
		)
		_ = c.ws.Close()
	}()

	var keepAlive <-chan time.Time
	if c.legacy() && c.handler.keepAlive > 0 {
		ticker := time.NewTicker(c.handler.keepAlive)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			c.flush()

			return nil
		case msg := <-c.out:
			if err := c.write(msg); err != nil {
				return err
			}
		case <-keepAlive:
			if c.isInitialized() {
				if err := c.write(wsMessage{Type: msgKeepAlive}); err != nil {
					return err
				}
			}
		}
	}
}

// flush writes the messages queued before the connection started closing.
func (c *wsConn) flush() {
	for {
		select {
		case msg := <-c.out:
			if err := c.write(msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *wsConn) write(msg wsMessage) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}

	return c.ws.WriteJSON(msg)
}

func (c *wsConn) send(ctx context.Context, msg wsMessage) {
	select {
	case c.out <- msg:
	case <-ctx.Done():
	}
}

func (c *wsConn) sendError(ctx context.Context, id, message string) {
	errPayload := []map[string]string{{"message": message}}
	if c.legacy() {
		payload, _ := json.Marshal(errPayload[0])
		c.send(ctx, wsMessage{ID: id, Type: msgError, Payload: payload})

		return
	}
	payload, _ := json.Marshal(errPayload)
	c.send(ctx, wsMessage{ID: id, Type: msgError, Payload: payload})
}

// closeWith closes the connection with a protocol close code and ends the read loop.
func (c *wsConn) closeWith(code int, reason string) error {
	_ = c.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(writeTimeout),
	)

	return errTerminated
}

func (c *wsConn) isInitialized() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.initialized
}

// init acknowledges the connection, authenticating the token carried in the payload if any.
func (c *wsConn) init(ctx context.Context, payload json.RawMessage) error {
	if c.isInitialized() && !c.legacy() {
		return c.closeWith(closeTooManyInits, "Too many initialisation requests")
	}

	if token := tokenFromInit(payload); token != "" {
		u, err := c.handler.auth.Authenticate(ctx, token)
		if err != nil {
			slog.DebugContext(ctx, "Websocket token rejected", "error", err)
			if !c.legacy() {
				return c.closeWith(closeForbidden, "Forbidden")
			}
			msg, _ := json.Marshal(map[string]string{"message": "Forbidden resource"})
			c.send(ctx, wsMessage{Type: msgConnectionError, Payload: msg})

			return errTerminated
		}

		c.mu.Lock()
		c.user = u
		c.mu.Unlock()
	}

	c.mu.Lock()
	c.initialized = true
	c.mu.Unlock()

	c.send(ctx, wsMessage{Type: msgConnectionAck})
	if c.legacy() && c.handler.keepAlive > 0 {
		c.send(ctx, wsMessage{Type: msgKeepAlive})
	}

	return nil
}

// tokenFromInit reads x-jwt or Authorization from a connection_init payload.
func tokenFromInit(payload json.RawMessage) string {
	if len(payload) == 0 {
		return ""
	}

	var params map[string]any
	if err := json.Unmarshal(payload, &params); err != nil {
		return ""
	}

	for key, value := range params {
		s, ok := value.(string)
		if !ok {
			continue
		}
		switch strings.ToLower(key) {
		case auth.HeaderJWT:
			return strings.TrimSpace(s)
		case "authorization":
			if token := auth.BearerToken(s); token != "" {
				return token
			}

			return strings.TrimSpace(s)
		}
	}

	return ""
}

// start runs one subscription operation.
func (c *wsConn) start(ctx context.Context, g *errgroup.Group, msg wsMessage) error {
	if !c.isInitialized() {
		if !c.legacy() {
			return c.closeWith(closeUnauthorized, "Unauthorized")
		}
		c.sendError(ctx, msg.ID, "Connection is not initialized")

		return nil
	}

	var op operationPayload
	if err := json.Unmarshal(msg.Payload, &op); err != nil || msg.ID == "" {
		if !c.legacy() {
			return c.closeWith(closeBadRequest, "Invalid subscribe message")
		}
		c.sendError(ctx, msg.ID, "Invalid subscribe message")

		return nil
	}

	c.mu.Lock()
	if _, taken := c.subs[msg.ID]; taken {
		c.mu.Unlock()
		if !c.legacy() {
			return c.closeWith(closeSubscriberTaken, "Subscriber for "+msg.ID+" already exists")
		}
		c.sendError(ctx, msg.ID, "Subscription "+msg.ID+" already exists")

		return nil
	}
	subCtx, cancel := context.WithCancel(ctx)
	c.subs[msg.ID] = cancel
	u := c.user
	c.mu.Unlock()

	if u != nil {
		subCtx = auth.WithUser(subCtx, u)
	}

	responses, err := c.handler.schema.Subscribe(subCtx, op.Query, op.OperationName, op.Variables)
	if err != nil {
		c.forget(msg.ID)
		c.sendError(ctx, msg.ID, err.Error())

		return nil
	}

	g.Go(func() error {
		c.forward(subCtx, ctx, msg.ID, responses)

		return nil
	})

	return nil
}

// forward relays the responses of one subscription until it ends or is stopped.
func (c *wsConn) forward(subCtx, connCtx context.Context, id string, responses <-chan any) {
	dataType := msgNext
	if c.legacy() {
		dataType = msgData
	}

	for {
		select {
		case <-subCtx.Done():
			return
		case resp, ok := <-responses:
			if !ok {
				if c.forget(id) {
					c.send(connCtx, wsMessage{ID: id, Type: msgComplete})
				}

				return
			}

			payload, err := json.Marshal(resp)
			if err != nil {
				slog.ErrorContext(connCtx, "Failed to encode subscription response", "error", err, "id", id)

				continue
			}
			c.send(connCtx, wsMessage{ID: id, Type: dataType, Payload: payload})
		}
	}
}

// forget drops a subscription and reports whether it was still registered.
func (c *wsConn) forget(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cancel, ok := c.subs[id]
	if !ok {
		return false
	}
	cancel()
	delete(c.subs, id)

	return true
}

func (c *wsConn) stopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, cancel := range c.subs {
		cancel()
		delete(c.subs, id)
	}
}
