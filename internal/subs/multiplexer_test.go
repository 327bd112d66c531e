package subs

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is a wsConn backed by Go channels instead of a real socket.
type fakeConn struct {
	in     chan wireMessage
	out    chan wireMessage
	closed chan struct{}
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		in:     make(chan wireMessage, 16),
		out:    make(chan wireMessage, 16),
		closed: make(chan struct{}),
	}
}

func (c *fakeConn) ReadJSON(v interface{}) error {
	msg, ok := <-c.in
	if !ok {
		return io.EOF
	}
	*(v.(*wireMessage)) = msg
	return nil
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	msg, _ := v.(wireMessage)
	select {
	case c.out <- msg:
	default:
	}
	return nil
}

func (c *fakeConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}
	return nil
}

// testSchema builds a minimal schema with one subscription field whose
// Subscribe resolver reports, on the given channel, when graphql-go
// cancels its context — standing in for a real data source so tests can
// observe cancellation without a live database.
func testSchema(t *testing.T, cancelled chan<- string, label string) graphql.Schema {
	t.Helper()

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"ping": &graphql.Field{
				Type:    graphql.String,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) { return "pong", nil },
			},
		},
	})

	subType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Subscription",
		Fields: graphql.Fields{
			"tick": &graphql.Field{
				Type: graphql.Int,
				Subscribe: func(p graphql.ResolveParams) (interface{}, error) {
					ch := make(chan interface{})
					go func() {
						<-p.Context.Done()
						cancelled <- label
						close(ch)
					}()
					return ch, nil
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source, nil
				},
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{Query: queryType, Subscription: subType})
	require.NoError(t, err)
	return schema
}

func subscribeMsg(id string) wireMessage {
	return wireMessage{ID: id, Type: msgSubscribe, Payload: []byte(`{"query":"subscription { tick }"}`)}
}

func TestSessionCloseCancelsOnlyItsOwnSubscriptions(t *testing.T) {
	cancelled := make(chan string, 4)

	connA := newFakeConn()
	sessA := newSession(connA, testSchema(t, cancelled, "A"), context.Background())
	go sessA.run()

	connB := newFakeConn()
	sessB := newSession(connB, testSchema(t, cancelled, "B"), context.Background())
	go sessB.run()

	connA.in <- subscribeMsg("1")
	connB.in <- subscribeMsg("1")

	// give both subscriptions a moment to register before A's socket closes
	time.Sleep(50 * time.Millisecond)

	close(connA.in) // simulate session A's socket closing

	select {
	case label := <-cancelled:
		assert.Equal(t, "A", label, "closing one socket must cancel only that socket's subscriptions")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session A's subscription to be cancelled")
	}

	select {
	case label := <-cancelled:
		t.Fatalf("session B's subscription must not be cancelled by session A's close, got %q", label)
	case <-time.After(200 * time.Millisecond):
	}

	close(connB.in)
}

func TestResubscribeOnSameIDCancelsPreviousHandle(t *testing.T) {
	cancelled := make(chan string, 4)

	conn := newFakeConn()
	sess := newSession(conn, testSchema(t, cancelled, "only"), context.Background())
	go sess.run()

	conn.in <- subscribeMsg("1")
	time.Sleep(50 * time.Millisecond)

	conn.in <- subscribeMsg("1") // resubscribing on id "1" must cancel the first

	select {
	case label := <-cancelled:
		assert.Equal(t, "only", label)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the superseded subscription to be cancelled")
	}

	time.Sleep(50 * time.Millisecond)
	sess.mu.Lock()
	_, stillLive := sess.subs["1"]
	sess.mu.Unlock()
	assert.True(t, stillLive, "the replacement subscription under the same id must still be live")

	close(conn.in)
}

func TestCompleteFromClientReleasesHandle(t *testing.T) {
	cancelled := make(chan string, 4)

	conn := newFakeConn()
	sess := newSession(conn, testSchema(t, cancelled, "only"), context.Background())
	go sess.run()

	conn.in <- subscribeMsg("1")
	time.Sleep(50 * time.Millisecond)

	conn.in <- wireMessage{ID: "1", Type: msgComplete}

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for client-initiated complete to cancel the subscription")
	}

	time.Sleep(50 * time.Millisecond)
	sess.mu.Lock()
	_, stillLive := sess.subs["1"]
	sess.mu.Unlock()
	assert.False(t, stillLive, "complete from the client must release the subscription's handle")

	close(conn.in)
}
