// Package stream is a Go client for the autonate server: REST calls for
// scenes, frames and render jobs, and a websocket Scrubber for interactive
// seeking.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teslashibe/go-autonate/internal/httpc"
	"github.com/teslashibe/go-autonate/pkg/camera"
	"github.com/teslashibe/go-autonate/pkg/render"
	"github.com/teslashibe/go-autonate/pkg/scene"
)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the shared HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// Client talks to an autonate server over HTTP.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the server at baseURL,
// e.g. "http://localhost:8080".
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: httpc.Client,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health is the server status report.
type Health struct {
	Status         string `json:"status"`
	Scenes         int    `json:"scenes"`
	ActiveJobs     int    `json:"active_jobs"`
	PreviewClients int    `json:"preview_clients"`
	Uptime         string `json:"uptime"`
}

// SceneDetail is a scene's summary, camera and description.
type SceneDetail struct {
	Info   scene.Info    `json:"info"`
	Camera camera.Config `json:"camera"`
	Spec   scene.Spec    `json:"spec"`
}

// Health checks the server.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.getJSON(ctx, "/api/health", nil, &h)
	return h, err
}

// Scenes lists registered scenes.
func (c *Client) Scenes(ctx context.Context) ([]scene.Info, error) {
	var out []scene.Info
	err := c.getJSON(ctx, "/api/scenes", nil, &out)
	return out, err
}

// Scene returns one scene.
func (c *Client) Scene(ctx context.Context, id string) (SceneDetail, error) {
	var out SceneDetail
	err := c.getJSON(ctx, "/api/scenes/"+url.PathEscape(id), nil, &out)
	return out, err
}

// Frame evaluates one frame. preset, if non-empty, overrides the camera.
func (c *Client) Frame(ctx context.Context, id string, frame int, preset string) (scene.FrameState, error) {
	q := url.Values{}
	if preset != "" {
		q.Set("camera", preset)
	}
	var fs scene.FrameState
	err := c.getJSON(ctx, fmt.Sprintf("/api/scenes/%s/frames/%d", url.PathEscape(id), frame), q, &fs)
	return fs, err
}

// Frames evaluates frames [from, to) on the server.
func (c *Client) Frames(ctx context.Context, id string, from, to int) ([]scene.FrameState, error) {
	q := url.Values{}
	q.Set("from", fmt.Sprint(from))
	q.Set("to", fmt.Sprint(to))
	q.Set("format", "jsonl")
	return c.getJSONL(ctx, "/api/scenes/"+url.PathEscape(id)+"/frames", q)
}

// Render submits a render job for frames [from, to). A zero to renders to
// the end of the scene.
func (c *Client) Render(ctx context.Context, id string, from, to int) (render.Job, error) {
	body, err := json.Marshal(map[string]int{"from": from, "to": to})
	if err != nil {
		return render.Job{}, err
	}
	var job render.Job
	err = c.do(ctx, http.MethodPost, "/api/scenes/"+url.PathEscape(id)+"/render", nil, body, &job)
	return job, err
}

// Jobs lists render jobs, newest first.
func (c *Client) Jobs(ctx context.Context) ([]render.Job, error) {
	var out []render.Job
	err := c.getJSON(ctx, "/api/jobs", nil, &out)
	return out, err
}

// Job returns one render job.
func (c *Client) Job(ctx context.Context, id string) (render.Job, error) {
	var job render.Job
	err := c.getJSON(ctx, "/api/jobs/"+url.PathEscape(id), nil, &job)
	return job, err
}

// CancelJob cancels a queued or running job.
func (c *Client) CancelJob(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/jobs/"+url.PathEscape(id), nil, nil, nil)
}

// JobFrames downloads a finished job's frames.
func (c *Client) JobFrames(ctx context.Context, id string) ([]scene.FrameState, error) {
	return c.getJSONL(ctx, "/api/jobs/"+url.PathEscape(id)+"/frames", nil)
}

// WaitJob polls until the job reaches a terminal status or ctx is done.
func (c *Client) WaitJob(ctx context.Context, id string, interval time.Duration) (render.Job, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := c.Job(ctx, id)
		if err != nil {
			return job, err
		}
		if job.Status.Terminal() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Scrub opens a scrubbing session for a scene.
func (c *Client) Scrub(ctx context.Context, id string) (*Scrubber, error) {
	return DialScrubber(ctx, c.base, id)
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, q, nil, out)
}

func (c *Client) getJSONL(ctx context.Context, path string, q url.Values) ([]scene.FrameState, error) {
	resp, err := c.send(ctx, http.MethodGet, path, q, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return render.ReadJSONL(resp.Body)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body []byte, out interface{}) error {
	resp, err := c.send(ctx, method, path, q, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, err := io.Copy(io.Discard, resp.Body)
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, q url.Values, body []byte) (*http.Response, error) {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if err := httpc.CheckResponse(resp); err != nil {
		return nil, apiError(err)
	}
	return resp, nil
}

// apiError unwraps the server's {"error": "..."} body.
func apiError(err error) error {
	var se *httpc.StatusError
	if !errors.As(err, &se) {
		return err
	}
	msg := se.Body
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error != "" {
		msg = body.Error
	}
	return &APIError{StatusCode: se.Code, Message: msg}
}
