package testsupport

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"framebridge/internal/channel"
	"framebridge/internal/wire"
)

// UIPeer plays the UI process on the far end of a channel connection.
type UIPeer struct {
	t    testing.TB
	conn channel.Conn
}

// NewUIPeer wraps the client side of a connection.
func NewUIPeer(t testing.TB, conn channel.Conn) *UIPeer {
	t.Helper()
	t.Cleanup(func() { _ = conn.Close() })
	return &UIPeer{t: t, conn: conn}
}

// Send writes one envelope to the bridge.
func (p *UIPeer) Send(event string, payload any) {
	p.t.Helper()
	env, err := wire.NewEnvelope(event, payload)
	if err != nil {
		p.t.Fatalf("envelope %s: %v", event, err)
	}
	raw, err := json.Marshal(env)
	if err != nil {
		p.t.Fatalf("marshal %s: %v", event, err)
	}
	if err := p.conn.WriteMessage(context.Background(), raw); err != nil {
		p.t.Fatalf("write %s: %v", event, err)
	}
}

// Next reads the next envelope, failing the test after two seconds.
func (p *UIPeer) Next() wire.Envelope {
	p.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	raw, err := p.conn.ReadMessage(ctx)
	if err != nil {
		p.t.Fatalf("read envelope: %v", err)
	}
	env, err := wire.DecodeEnvelope(raw)
	if err != nil {
		p.t.Fatalf("decode envelope: %v", err)
	}
	return env
}

// Expect reads the next envelope and decodes its data into out after checking
// the event name.
func (p *UIPeer) Expect(event string, out any) {
	p.t.Helper()
	env := p.Next()
	if env.Event != event {
		p.t.Fatalf("expected event %s, got %s (%s)", event, env.Event, env.Data)
	}
	if out == nil {
		return
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		p.t.Fatalf("decode %s data: %v", event, err)
	}
}

// NextFrame reads the next window_request frame.
func (p *UIPeer) NextFrame() wire.Frame {
	p.t.Helper()
	var frame wire.Frame
	p.Expect(wire.EventWindowRequest, &frame)
	return frame
}

// Respond answers frame with result.
func (p *UIPeer) Respond(frame wire.Frame, result any) {
	p.t.Helper()
	p.Send(wire.EventWindowResponse, map[string]any{"id": frame.ID, "result": result})
}

// Fail answers frame with an error payload.
func (p *UIPeer) Fail(frame wire.Frame, message string) {
	p.t.Helper()
	p.Send(wire.EventWindowResponse, map[string]any{"id": frame.ID, "error": message})
}
