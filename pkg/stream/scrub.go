package stream

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-autonate/pkg/protocol"
	"github.com/teslashibe/go-autonate/pkg/scene"
)

// defaultRoundTrip bounds a seek when ctx has no deadline.
const defaultRoundTrip = 10 * time.Second

// Scrubber is a websocket session that evaluates single frames on demand.
// Calls are serialized; each Seek waits for its reply.
type Scrubber struct {
	sceneID string
	conn    *websocket.Conn

	mu     sync.Mutex
	closed bool
}

// DialScrubber opens /ws/scenes/{id}/scrub on the server at baseURL.
// http and https URLs are mapped to ws and wss.
func DialScrubber(ctx context.Context, baseURL, sceneID string) (*Scrubber, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path += "/ws/scenes/" + url.PathEscape(sceneID) + "/scrub"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	return &Scrubber{sceneID: sceneID, conn: conn}, nil
}

// SceneID returns the scene this session scrubs.
func (s *Scrubber) SceneID() string {
	return s.sceneID
}

// Seek evaluates frame. camera, if non-nil, overrides camera fields for
// this seek only (see protocol.SeekData).
func (s *Scrubber) Seek(ctx context.Context, frame int, camera map[string]interface{}) (scene.FrameState, error) {
	msg, err := protocol.NewSeekMessage(frame, camera)
	if err != nil {
		return scene.FrameState{}, err
	}

	reply, err := s.roundTrip(ctx, msg)
	if err != nil {
		return scene.FrameState{}, err
	}

	switch reply.Type {
	case protocol.TypeFrame:
		data, err := reply.GetFrameData()
		if err != nil {
			return scene.FrameState{}, err
		}
		return data.State, nil
	case protocol.TypeError:
		data, err := reply.GetErrorData()
		if err != nil {
			return scene.FrameState{}, err
		}
		return scene.FrameState{}, &SeekError{Frame: frame, Message: data.Message}
	default:
		return scene.FrameState{}, fmt.Errorf("unexpected reply %q", reply.Type)
	}
}

// Ping measures the round trip to the server.
func (s *Scrubber) Ping(ctx context.Context) (time.Duration, error) {
	msg, err := protocol.NewPingMessage(s.sceneID)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	reply, err := s.roundTrip(ctx, msg)
	if err != nil {
		return 0, err
	}
	if reply.Type != protocol.TypePong {
		return 0, fmt.Errorf("unexpected reply %q", reply.Type)
	}
	return time.Since(start), nil
}

// Close ends the session.
func (s *Scrubber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return s.conn.Close()
}

func (s *Scrubber) roundTrip(ctx context.Context, msg *protocol.Message) (*protocol.Message, error) {
	data, err := msg.Bytes()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultRoundTrip)
	}
	s.conn.SetWriteDeadline(deadline)
	s.conn.SetReadDeadline(deadline)
	stop := context.AfterFunc(ctx, func() {
		s.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	_, raw, err := s.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return protocol.ParseMessage(raw)
}
