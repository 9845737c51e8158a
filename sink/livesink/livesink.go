// Package livesink pushes samples to a connected websocket client as
// they're produced, for a live view of a running simulation. Grounded on
// the gorilla/websocket usage in kernel/core/mesh/transport: one
// *websocket.Conn, one TextMessage write per batch, encoded as plain JSON
// lines rather than a custom binary frame.
package livesink

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/vle-project/devskernel/kernel"
	"github.com/vle-project/devskernel/kernel/devstime"
	"github.com/vle-project/devskernel/kernel/value"
)

var _ kernel.Stream = (*Sink)(nil)

// record is the wire shape of one WriteValues batch.
type record struct {
	Time    float64      `json:"t"`
	Samples []wireSample `json:"samples"`
}

type wireSample struct {
	Simulator string `json:"simulator"`
	Port      string `json:"port"`
	Value     string `json:"value"`
}

// Sink writes each batch of samples as one JSON text message. Safe for a
// single coordinator's sequential WriteValues calls; the mutex only guards
// against a concurrent Close from another goroutine (e.g. a client
// disconnect handler).
type Sink struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

// New wraps an already-established websocket connection (typically
// produced by an http.Handler's websocket.Upgrader.Upgrade).
func New(conn *websocket.Conn) *Sink {
	return &Sink{conn: conn}
}

// Open sends a one-time header message naming the view.
func (s *Sink) Open(viewName string, params value.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteJSON(map[string]string{"view": viewName, "params": params.String()})
}

// WriteValues sends one JSON text message per batch.
func (s *Sink) WriteValues(t devstime.Time, samples []kernel.Sample) error {
	rec := record{Time: t.Float64(), Samples: make([]wireSample, len(samples))}
	for i, sample := range samples {
		rec.Samples[i] = wireSample{Simulator: sample.Name, Port: string(sample.Port), Value: sample.Value.String()}
	}
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

// Close closes the underlying connection.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}
