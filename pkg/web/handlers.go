package web

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-autonate/pkg/render"
	"github.com/teslashibe/go-autonate/pkg/scene"
	"github.com/teslashibe/go-autonate/pkg/timeline"
)

// errorHandler maps package errors to HTTP statuses.
func errorHandler(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{
		"error": err.Error(),
	})
}

func statusFor(err error) int {
	var fe *fiber.Error
	var ve *scene.ValidationError
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, scene.ErrNotFound), errors.Is(err, render.ErrJobNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, render.ErrJobNotFinished):
		return fiber.StatusConflict
	case errors.Is(err, scene.ErrFrameOutOfRange),
		errors.Is(err, render.ErrInvalidRange),
		errors.Is(err, timeline.ErrInvalidConfig),
		errors.As(err, &ve):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func badRequest(format string, args ...interface{}) error {
	return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf(format, args...))
}

// handleHealth reports server status
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":          "ok",
		"scenes":          s.scenes.Count(),
		"active_jobs":     len(s.jobs.Active()),
		"preview_clients": s.preview.ClientCount(),
		"uptime":          time.Since(s.started).Round(time.Second).String(),
	})
}

// handleListScenes returns every registered scene
func (s *Server) handleListScenes(c *fiber.Ctx) error {
	return c.JSON(s.scenes.List())
}

// handleGetScene returns one scene's summary and description
func (s *Server) handleGetScene(c *fiber.Ctx) error {
	sc, err := s.scenes.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"info":   sc.Info(),
		"camera": sc.Camera(),
		"spec":   sc.Spec(),
	})
}

// handleFrame evaluates a single frame
func (s *Server) handleFrame(c *fiber.Ctx) error {
	sc, err := s.sceneWithCamera(c)
	if err != nil {
		return err
	}
	f, err := strconv.Atoi(c.Params("frame"))
	if err != nil {
		return badRequest("invalid frame %q", c.Params("frame"))
	}

	fs, err := sc.Frame(f)
	if err != nil {
		return err
	}
	return c.JSON(fs)
}

// handleFrameRange evaluates frames [from, to) on the farm. The result is a
// JSON array, or JSON lines with format=jsonl.
func (s *Server) handleFrameRange(c *fiber.Ctx) error {
	sc, err := s.sceneWithCamera(c)
	if err != nil {
		return err
	}
	from := c.QueryInt("from", 0)
	to := c.QueryInt("to", sc.DurationFrames())
	if to > sc.DurationFrames() {
		return fmt.Errorf("%w: %d > %d", scene.ErrFrameOutOfRange, to, sc.DurationFrames())
	}
	if to-from > s.cfg.MaxFrames {
		return badRequest("range of %d frames exceeds %d, submit a render job instead", to-from, s.cfg.MaxFrames)
	}

	frames, err := s.farm.Render(c.UserContext(), sc, from, to)
	if err != nil {
		return err
	}
	if c.Query("format") == "jsonl" {
		return sendJSONL(c, frames)
	}
	return c.JSON(frames)
}

// RenderRequest is the body of POST /api/scenes/:id/render
type RenderRequest struct {
	From   int                    `json:"from"`
	To     int                    `json:"to"`
	Camera map[string]interface{} `json:"camera,omitempty"`
}

// handleSubmitRender queues a render job
func (s *Server) handleSubmitRender(c *fiber.Ctx) error {
	sc, err := s.scenes.Get(c.Params("id"))
	if err != nil {
		return err
	}

	var req RenderRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest("invalid body: %v", err)
		}
	}
	if req.To == 0 {
		req.To = sc.DurationFrames()
	}
	if req.To > sc.DurationFrames() {
		return fmt.Errorf("%w: %d > %d", scene.ErrFrameOutOfRange, req.To, sc.DurationFrames())
	}
	if sc, err = withCamera(sc, req.Camera); err != nil {
		return err
	}

	job, err := s.jobs.Submit(sc, req.From, req.To)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusAccepted).JSON(job)
}

// handleListJobs returns all jobs, newest first
func (s *Server) handleListJobs(c *fiber.Ctx) error {
	return c.JSON(s.jobs.List())
}

// handleGetJob returns one job
func (s *Server) handleGetJob(c *fiber.Ctx) error {
	job, err := s.jobs.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(job)
}

// handleCancelJob cancels a queued or running job
func (s *Server) handleCancelJob(c *fiber.Ctx) error {
	if err := s.jobs.Cancel(c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"status": "canceling"})
}

// handleJobFrames streams a finished job's frames as JSON lines
func (s *Server) handleJobFrames(c *fiber.Ctx) error {
	frames, err := s.jobs.Frames(c.Params("id"))
	if err != nil {
		return err
	}
	return sendJSONL(c, frames)
}

func sendJSONL(c *fiber.Ctx, frames []scene.FrameState) error {
	c.Set(fiber.HeaderContentType, "application/x-ndjson")
	return render.WriteJSONL(c.Response().BodyWriter(), frames)
}

// sceneWithCamera resolves :id and applies camera overrides from the query:
// camera (preset name), mode, target, fov and smoothing.
func (s *Server) sceneWithCamera(c *fiber.Ctx) (*scene.Scene, error) {
	sc, err := s.scenes.Get(c.Params("id"))
	if err != nil {
		return nil, err
	}

	params := make(map[string]interface{})
	if v := c.Query("camera"); v != "" {
		params["preset"] = v
	}
	for _, key := range []string{"mode", "target"} {
		if v := c.Query(key); v != "" {
			params[key] = v
		}
	}
	for _, key := range []string{"fov", "smoothing"} {
		if v := c.Query(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, badRequest("invalid %s %q", key, v)
			}
			params[key] = f
		}
	}
	return withCamera(sc, params)
}

func withCamera(sc *scene.Scene, params map[string]interface{}) (*scene.Scene, error) {
	if len(params) == 0 {
		return sc, nil
	}
	cfg, err := sc.Camera().Apply(params)
	if err != nil {
		return nil, badRequest("camera: %v", err)
	}
	out, err := sc.WithCamera(cfg)
	if err != nil {
		return nil, badRequest("camera: %v", err)
	}
	return out, nil
}
