package livesink

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/vle-project/devskernel/kernel"
	"github.com/vle-project/devskernel/kernel/devstime"
	"github.com/vle-project/devskernel/kernel/value"
)

func newTestPair(t *testing.T) (*Sink, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverConnCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverConnCh <- conn
	}))
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	serverConn := <-serverConnCh
	t.Cleanup(func() { serverConn.Close() })
	return New(serverConn), client
}

func TestSink_Open_SendsViewHeader(t *testing.T) {
	s, client := newTestPair(t)
	require.NoError(t, s.Open("v1", value.Nil))

	_, msg, err := client.ReadMessage()
	require.NoError(t, err)

	var header map[string]string
	require.NoError(t, json.Unmarshal(msg, &header))
	require.Equal(t, "v1", header["view"])
	require.Equal(t, "nil", header["params"])
}

func TestSink_WriteValues_SendsOneJSONMessagePerBatch(t *testing.T) {
	s, client := newTestPair(t)

	samples := []kernel.Sample{
		{Simulator: 1, Name: "top.gen1", Port: "out", Value: value.Int(3)},
	}
	require.NoError(t, s.WriteValues(devstime.New(1.5), samples))

	_, msg, err := client.ReadMessage()
	require.NoError(t, err)

	var rec record
	require.NoError(t, json.Unmarshal(msg, &rec))
	require.Equal(t, 1.5, rec.Time)
	require.Len(t, rec.Samples, 1)
	require.Equal(t, "top.gen1", rec.Samples[0].Simulator)
	require.Equal(t, "out", rec.Samples[0].Port)
	require.Equal(t, "3", rec.Samples[0].Value)
}

func TestSink_Close_ClosesConnection(t *testing.T) {
	s, client := newTestPair(t)
	require.NoError(t, s.Close())

	_, _, err := client.ReadMessage()
	require.Error(t, err, "client should observe the connection closing")
}
