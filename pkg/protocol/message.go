// Package protocol defines the WebSocket message types exchanged between the
// autonate server and preview/scrubbing clients.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-autonate/pkg/render"
	"github.com/teslashibe/go-autonate/pkg/scene"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Server → Client messages
	TypeFrame         MessageType = "frame"          // Evaluated frame
	TypeJob           MessageType = "job"            // Render job update
	TypeSceneReloaded MessageType = "scene_reloaded" // Scene added, replaced or removed
	TypeError         MessageType = "error"          // Request failed

	// Client → Server messages
	TypeSeek MessageType = "seek" // Evaluate a frame

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// FrameData carries one evaluated frame of a scene
type FrameData struct {
	SceneID string           `json:"scene_id"`
	State   scene.FrameState `json:"state"`
}

// JobData carries a render job snapshot
type JobData struct {
	Job      render.Job `json:"job"`
	Progress float64    `json:"progress"`
}

// SceneReloadedData reports a registry change
type SceneReloadedData struct {
	ID      string `json:"id"`
	Removed bool   `json:"removed,omitempty"`
}

// ErrorData reports a failed request
type ErrorData struct {
	Message string `json:"message"`
	Frame   *int   `json:"frame,omitempty"` // Set when a seek failed
}

// =============================================================================
// Client → Server Message Types
// =============================================================================

// SeekData asks for a single frame, optionally through a camera override.
// Camera takes the same fields as the REST override: preset, mode, target,
// smoothing, fov, offset, look_at_offset, position, look_at.
type SeekData struct {
	Frame  int                    `json:"frame"`
	Camera map[string]interface{} `json:"camera,omitempty"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData is a health check request
type PingData struct {
	ID string `json:"id,omitempty"`
}

// PongData is a health check response
type PongData struct {
	ID        string `json:"id,omitempty"`
	PingTS    int64  `json:"ping_ts"` // Original ping timestamp
	PongTS    int64  `json:"pong_ts"` // Pong timestamp
	LatencyMs int64  `json:"latency_ms"`
}
