package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrConnClosed is returned by operations on a closed connection.
var ErrConnClosed = errors.New("connection closed")

const writeWait = 10 * time.Second

// Conn is one duplex message connection.
type Conn interface {
	ID() string
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(ctx context.Context, data []byte) error
	Close() error
}

type wsConn struct {
	id string
	ws *websocket.Conn

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

// NewWebsocketConn wraps an established websocket.
func NewWebsocketConn(ws *websocket.Conn) Conn {
	return &wsConn{id: uuid.NewString(), ws: ws}
}

// Dial opens a websocket connection to url.
func Dial(ctx context.Context, url string, header http.Header) (Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return NewWebsocketConn(ws), nil
}

func (c *wsConn) ID() string { return c.id }

// ReadMessage returns the next data frame. The read itself does not observe
// ctx; callers close the connection to unblock it.
func (c *wsConn) ReadMessage(ctx context.Context) ([]byte, error) {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

func (c *wsConn) WriteMessage(ctx context.Context, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		c.closeErr = c.ws.Close()
	})
	return c.closeErr
}

type pipeConn struct {
	id     string
	in     <-chan []byte
	out    chan<- []byte
	closed chan struct{}
	peer   *pipeConn
	once   sync.Once
}

// NewPipe returns two connected in-memory ends.
func NewPipe() (Conn, Conn) {
	ab := make(chan []byte, 64)
	ba := make(chan []byte, 64)
	a := &pipeConn{id: uuid.NewString(), in: ba, out: ab, closed: make(chan struct{})}
	b := &pipeConn{id: uuid.NewString(), in: ab, out: ba, closed: make(chan struct{})}
	a.peer, b.peer = b, a
	return a, b
}

func (p *pipeConn) ID() string { return p.id }

func (p *pipeConn) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-p.in:
		return msg, nil
	default:
	}
	select {
	case msg := <-p.in:
		return msg, nil
	case <-p.closed:
		return nil, ErrConnClosed
	case <-p.peer.closed:
		select {
		case msg := <-p.in:
			return msg, nil
		default:
			return nil, ErrConnClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *pipeConn) WriteMessage(ctx context.Context, data []byte) error {
	select {
	case <-p.closed:
		return ErrConnClosed
	case <-p.peer.closed:
		return ErrConnClosed
	default:
	}
	msg := append([]byte(nil), data...)
	select {
	case p.out <- msg:
		return nil
	case <-p.closed:
		return ErrConnClosed
	case <-p.peer.closed:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeConn) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
