package web

import (
	"time"

	contribws "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-autonate/pkg/hub"
	"github.com/teslashibe/go-autonate/pkg/protocol"
	"github.com/teslashibe/go-autonate/pkg/render"
	"github.com/teslashibe/go-autonate/pkg/scene"
)

// handlePreviewWS attaches a client to the preview hub. Clients receive
// job and scene_reloaded messages.
func (s *Server) handlePreviewWS(c *websocket.Conn) {
	client := hub.NewClient(s.preview, c)
	client.Run()
}

// handlePreviewMessage answers pings from preview clients. Everything else
// is ignored.
func (s *Server) handlePreviewMessage(c *hub.Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil || msg.Type != protocol.TypePing {
		return
	}
	ping, err := msg.GetPingData()
	if err != nil {
		return
	}
	pong, err := protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli())
	if err != nil {
		return
	}
	if b, err := pong.Bytes(); err == nil {
		c.Send(hub.NewJSONMessage(b))
	}
}

// scrubHandler serves /ws/scenes/:id/scrub. Each seek is answered with a
// frame or an error message. The scene is looked up per seek, so a session
// follows hot reloads and may be opened before its scene exists.
func (s *Server) scrubHandler() fiber.Handler {
	return contribws.New(func(c *contribws.Conn) {
		id := c.Params("id")
		log := s.logger.With("scene", id, "remote", c.RemoteAddr().String())
		log.Debug("scrub session opened")
		defer log.Debug("scrub session closed")

		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			reply := s.handleScrubMessage(id, data)
			if reply == nil {
				continue
			}
			if err := writeMessage(c, reply); err != nil {
				log.Debug("scrub write failed", "error", err)
				return
			}
		}
	})
}

func (s *Server) handleScrubMessage(id string, data []byte) *protocol.Message {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		return orError(protocol.NewErrorMessage(err))
	}

	switch msg.Type {
	case protocol.TypeSeek:
		seek, err := msg.GetSeekData()
		if err != nil {
			return orError(protocol.NewErrorMessage(err))
		}
		fs, err := s.seek(id, seek)
		if err != nil {
			return orError(protocol.NewSeekErrorMessage(seek.Frame, err))
		}
		return orError(protocol.NewFrameMessage(id, fs))

	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			return nil
		}
		return orError(protocol.NewPongMessage(ping.ID, msg.Timestamp, time.Now().UnixMilli()))

	default:
		return orError(protocol.NewErrorMessage(badRequest("unexpected message type %q", msg.Type)))
	}
}

func (s *Server) seek(id string, req *protocol.SeekData) (scene.FrameState, error) {
	sc, err := s.scenes.Get(id)
	if err != nil {
		return scene.FrameState{}, err
	}
	if sc, err = withCamera(sc, req.Camera); err != nil {
		return scene.FrameState{}, err
	}
	return sc.Frame(req.Frame)
}

func writeMessage(c *contribws.Conn, msg *protocol.Message) error {
	b, err := msg.Bytes()
	if err != nil {
		return err
	}
	c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.WriteMessage(contribws.TextMessage, b)
}

// orError replaces a message that failed to encode with an error message.
func orError(msg *protocol.Message, err error) *protocol.Message {
	if err != nil {
		msg, _ = protocol.NewErrorMessage(err)
	}
	return msg
}

// SceneNotifier returns a registry callback that broadcasts scene_reloaded
// messages on h.
func SceneNotifier(h *hub.Hub) scene.ChangeFunc {
	return func(id string, removed bool) {
		msg, err := protocol.NewSceneReloadedMessage(id, removed)
		if err != nil {
			return
		}
		h.BroadcastJSON(msg)
	}
}

// JobNotifier returns a job update callback that broadcasts job messages
// on h.
func JobNotifier(h *hub.Hub) render.UpdateFunc {
	return func(job render.Job) {
		msg, err := protocol.NewJobMessage(job)
		if err != nil {
			return
		}
		h.BroadcastJSON(msg)
	}
}
