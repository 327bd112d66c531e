package subs

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/graphql-go/graphql"
)

// graphql-transport-ws message types (spec.md §4.11).
type msgType string

const (
	msgConnectionInit msgType = "connection_init"
	msgConnectionAck  msgType = "connection_ack"
	msgPing           msgType = "ping"
	msgPong           msgType = "pong"
	msgSubscribe      msgType = "subscribe"
	msgNext           msgType = "next"
	msgComplete       msgType = "complete"
	msgError          msgType = "error"
)

type wireMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    msgType         `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type subscribePayload struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName,omitempty"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

// ContextFactory builds the base context a session's subscriptions run
// under, given the upgrade request, plus a release func called once the
// session ends. Lets a caller attach a request-scoped resource (e.g. a
// role-scoped database connection held open for the subscription's
// lifetime) without this package needing to know about it.
type ContextFactory func(r *http.Request) (context.Context, func(), error)

// Multiplexer upgrades HTTP connections to the graphql-transport-ws
// protocol and serves each one with its own session (spec.md §4.11,
// component C12). Grounded in core/subs.go's per-client bookkeeping,
// swapped from that file's in-process Member/channel pairing onto a
// websocket session holding one cancellation handle per subscription id.
type Multiplexer struct {
	schema     graphql.Schema
	upgrader   websocket.Upgrader
	newContext ContextFactory
}

// New builds a Multiplexer executing subscription documents against
// schema, with every session's subscriptions running under
// context.Background(). Use NewWithContext to attach request-scoped
// resources instead.
func New(schema graphql.Schema) *Multiplexer {
	return NewWithContext(schema, func(r *http.Request) (context.Context, func(), error) {
		return context.Background(), func() {}, nil
	})
}

// NewWithContext is New, but ctxFactory builds the base context (and its
// release func) each upgraded connection's subscriptions run under.
func NewWithContext(schema graphql.Schema, ctxFactory ContextFactory) *Multiplexer {
	return &Multiplexer{
		schema:     schema,
		newContext: ctxFactory,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{"graphql-transport-ws"},
			CheckOrigin:  func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and runs a session until the socket
// closes.
func (m *Multiplexer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	baseCtx, release, err := m.newContext(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	defer release()

	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	newSession(conn, m.schema, baseCtx).run()
}

// wsConn is the narrow slice of *websocket.Conn a session needs; tests
// supply a fake instead of a real socket.
type wsConn interface {
	ReadJSON(v interface{}) error
	WriteJSON(v interface{}) error
	Close() error
}

// handle is one live subscription's cancellation function, identified by
// pointer so a session can tell its own handle apart from a newer one
// installed by a resubscribe on the same id (context.CancelFunc values
// are not comparable with ==).
type handle struct {
	cancel context.CancelFunc
}

// session is the per-connection state graphql-transport-ws needs:
// subscription_id -> cancellation handle, scoped to exactly one socket.
type session struct {
	conn    wsConn
	schema  graphql.Schema
	baseCtx context.Context

	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[string]*handle
}

func newSession(conn wsConn, schema graphql.Schema, baseCtx context.Context) *session {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &session{conn: conn, schema: schema, baseCtx: baseCtx, subs: map[string]*handle{}}
}

func (s *session) run() {
	defer s.conn.Close()
	defer s.cancelAll()

	for {
		var msg wireMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case msgConnectionInit:
			if s.send(wireMessage{Type: msgConnectionAck}) != nil {
				return
			}
		case msgPing:
			if s.send(wireMessage{Type: msgPong}) != nil {
				return
			}
		case msgPong:
			// no action required
		case msgSubscribe:
			s.handleSubscribe(msg)
		case msgComplete:
			s.cancelOne(msg.ID)
		default:
			s.send(wireMessage{ID: msg.ID, Type: msgError, Payload: errorPayload("unknown message type")})
		}
	}
}

func (s *session) handleSubscribe(msg wireMessage) {
	var payload subscribePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.send(wireMessage{ID: msg.ID, Type: msgError, Payload: errorPayload(err.Error())})
		return
	}

	// A subscribe on an id already in use cancels the existing
	// subscription before starting the new one (spec.md §4.11).
	s.cancelOne(msg.ID)

	ctx, cancel := context.WithCancel(s.baseCtx)
	h := &handle{cancel: cancel}
	s.mu.Lock()
	s.subs[msg.ID] = h
	s.mu.Unlock()

	go s.runSubscription(ctx, msg.ID, h, payload)
}

func (s *session) runSubscription(ctx context.Context, id string, h *handle, payload subscribePayload) {
	defer s.finish(id, h)

	results := graphql.Subscribe(graphql.Params{
		Schema:         s.schema,
		RequestString:  payload.Query,
		VariableValues: payload.Variables,
		OperationName:  payload.OperationName,
		Context:        ctx,
	})

	// Backpressure: pull exactly one result from upstream, push it
	// through the transport, and only then ask for the next one.
	for {
		select {
		case <-ctx.Done():
			return
		case res, ok := <-results:
			if !ok {
				s.send(wireMessage{ID: id, Type: msgComplete})
				return
			}
			body, err := json.Marshal(res)
			if err != nil {
				s.send(wireMessage{ID: id, Type: msgError, Payload: errorPayload(err.Error())})
				return
			}
			if err := s.send(wireMessage{ID: id, Type: msgNext, Payload: body}); err != nil {
				return
			}
		}
	}
}

// cancelOne releases and cancels the subscription registered under id,
// if any.
func (s *session) cancelOne(id string) {
	s.mu.Lock()
	h, ok := s.subs[id]
	delete(s.subs, id)
	s.mu.Unlock()
	if ok {
		h.cancel()
	}
}

// finish releases the id's slot only if h is still the handle registered
// there — a resubscribe on the same id may already have replaced it.
func (s *session) finish(id string, h *handle) {
	s.mu.Lock()
	if cur, ok := s.subs[id]; ok && cur == h {
		delete(s.subs, id)
	}
	s.mu.Unlock()
}

// cancelAll cancels every subscription still live on this session —
// never another session's — when the socket closes (spec.md §4.11).
func (s *session) cancelAll() {
	s.mu.Lock()
	handles := make([]*handle, 0, len(s.subs))
	for _, h := range s.subs {
		handles = append(handles, h)
	}
	s.subs = map[string]*handle{}
	s.mu.Unlock()

	for _, h := range handles {
		h.cancel()
	}
}

func (s *session) send(msg wireMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

func errorPayload(message string) json.RawMessage {
	b, _ := json.Marshal([]map[string]string{{"message": message}})
	return b
}
