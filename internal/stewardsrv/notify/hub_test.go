package notify

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	json "github.com/json-iterator/go"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/db/models"
	"github.com/stewarddata/steward-internal/internal/stewardsrv/stewcommon"
	"github.com/stewarddata/steward-internal/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	t.Cleanup(hub.Close)
	return hub
}

// newStreamServer mounts the hub behind the same identity resolution the real
// server performs, so clients connect as whoever the forward headers name.
func newStreamServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/notifications/stream", func(w http.ResponseWriter, r *http.Request) {
		user := &stewcommon.UserContext{Email: r.Header.Get("X-Forwarded-Email")}
		r = r.WithContext(stewcommon.SetUserContext(r.Context(), user))
		hub.HandleStream(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func dialStream(t *testing.T, srv *httptest.Server, email string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/notifications/stream"
	header := http.Header{}
	if email != "" {
		header.Set("X-Forwarded-Email", email)
	}
	dialer := websocket.Dialer{
		Subprotocols:     []string{"steward.notify.v1"},
		HandshakeTimeout: 5 * time.Second,
	}
	conn, _, err := dialer.Dial(url, header)
	require.NoError(t, err)
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.ClientCount() == want
	}, 2*time.Second, 10*time.Millisecond)
}

func readEvent(t *testing.T, conn *websocket.Conn) *notificationSchema {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	doc := &notificationSchema{}
	require.NoError(t, json.Unmarshal(payload, doc))
	return doc
}

func streamNotification(recipient string) *models.Notification {
	return &models.Notification{
		NotificationID: uuid.New(),
		Type:           types.NotificationInfo,
		Title:          "Policy Run Finished",
		Description:    "Compliance checks completed for search-queries-all.",
		Recipient:      recipient,
		CanDelete:      true,
		CreatedAt:      time.Now().UTC(),
	}
}

func TestStreamReceivesBroadcast(t *testing.T) {
	hub := newTestHub(t)
	srv := newStreamServer(t, hub)
	conn := dialStream(t, srv, "alice@example.com")
	waitForClients(t, hub, 1)

	n := streamNotification("")
	hub.Broadcast(context.Background(), n)

	doc := readEvent(t, conn)
	assert.Equal(t, n.NotificationID, doc.ID)
	assert.Equal(t, types.NotificationInfo, doc.Type)
	assert.Equal(t, "Policy Run Finished", doc.Title)
	require.NotNil(t, doc.CanDelete)
	assert.True(t, *doc.CanDelete)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

func TestStreamSubprotocol(t *testing.T) {
	hub := newTestHub(t)
	srv := newStreamServer(t, hub)
	conn := dialStream(t, srv, "alice@example.com")
	waitForClients(t, hub, 1)

	assert.Equal(t, "steward.notify.v1", conn.Subprotocol())

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

func TestStreamRecipientFiltering(t *testing.T) {
	hub := newTestHub(t)
	srv := newStreamServer(t, hub)
	alice := dialStream(t, srv, "alice@example.com")
	bob := dialStream(t, srv, "bob@example.com")
	waitForClients(t, hub, 2)

	// An unaddressed notification reaches everyone.
	hub.Broadcast(context.Background(), streamNotification(""))
	assert.Equal(t, "Policy Run Finished", readEvent(t, alice).Title)
	assert.Equal(t, "Policy Run Finished", readEvent(t, bob).Title)

	// An addressed one reaches only its recipient.
	hub.Broadcast(context.Background(), streamNotification("alice@example.com"))
	doc := readEvent(t, alice)
	assert.Equal(t, "alice@example.com", doc.Recipient)

	require.NoError(t, bob.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := bob.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())

	require.NoError(t, alice.Close())
	require.NoError(t, bob.Close())
	waitForClients(t, hub, 0)
}

func TestStreamIgnoresClientMessages(t *testing.T) {
	hub := newTestHub(t)
	srv := newStreamServer(t, hub)
	conn := dialStream(t, srv, "carol@example.com")
	waitForClients(t, hub, 1)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("ping from client")))

	n := streamNotification("")
	hub.Broadcast(context.Background(), n)
	assert.Equal(t, n.NotificationID, readEvent(t, conn).ID)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

func TestStreamDisconnectRemovesClient(t *testing.T) {
	hub := newTestHub(t)
	srv := newStreamServer(t, hub)
	conn := dialStream(t, srv, "dave@example.com")
	waitForClients(t, hub, 1)

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)

	// Broadcasting into an empty hub is a no-op, not a failure.
	hub.Broadcast(context.Background(), streamNotification(""))
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := newTestHub(t)
	srv := newStreamServer(t, hub)
	alice := dialStream(t, srv, "alice@example.com")
	bob := dialStream(t, srv, "bob@example.com")
	waitForClients(t, hub, 2)

	hub.Close()
	assert.Equal(t, 0, hub.ClientCount())

	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := alice.ReadMessage()
	require.Error(t, err)
	require.NoError(t, bob.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = bob.ReadMessage()
	require.Error(t, err)
}

func TestBroadcastDoesNotBlockOnSlowClient(t *testing.T) {
	hub := newTestHub(t)
	srv := newStreamServer(t, hub)
	conn := dialStream(t, srv, "eve@example.com")
	waitForClients(t, hub, 1)

	// Large payloads to a client that never reads fill the socket and then
	// the send buffer; broadcasts past that point must drop, not block.
	n := streamNotification("")
	n.Description = strings.Repeat("x", 64*1024)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			hub.Broadcast(context.Background(), n)
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}

	require.NoError(t, conn.Close())
	waitForClients(t, hub, 0)
}

func TestStreamsSingleton(t *testing.T) {
	assert.Same(t, Streams(), Streams())
}

func TestRecipientFor(t *testing.T) {
	tests := []struct {
		name string
		user *stewcommon.UserContext
		want string
	}{
		{"email preferred", &stewcommon.UserContext{Email: "alice@example.com", Username: "alice"}, "alice@example.com"},
		{"username fallback", &stewcommon.UserContext{Username: "carol"}, "carol"},
		{"proxy user fallback", &stewcommon.UserContext{User: "u-123"}, "u-123"},
		{"anonymous", nil, "unknown"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ctx := context.Background()
			if test.user != nil {
				ctx = stewcommon.SetUserContext(ctx, test.user)
			}
			assert.Equal(t, test.want, RecipientFor(ctx))
		})
	}
}
