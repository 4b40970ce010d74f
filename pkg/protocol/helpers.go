package protocol

import (
	"github.com/teslashibe/go-autonate/pkg/render"
	"github.com/teslashibe/go-autonate/pkg/scene"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewFrameMessage creates a frame message for one evaluated frame
func NewFrameMessage(sceneID string, state scene.FrameState) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		SceneID: sceneID,
		State:   state,
	})
}

// NewSeekMessage creates a seek request. camera may be nil.
func NewSeekMessage(frame int, camera map[string]interface{}) (*Message, error) {
	return NewMessage(TypeSeek, SeekData{
		Frame:  frame,
		Camera: camera,
	})
}

// NewJobMessage creates a job update message
func NewJobMessage(job render.Job) (*Message, error) {
	return NewMessage(TypeJob, JobData{
		Job:      job,
		Progress: job.Progress(),
	})
}

// NewSceneReloadedMessage creates a registry change message
func NewSceneReloadedMessage(id string, removed bool) (*Message, error) {
	return NewMessage(TypeSceneReloaded, SceneReloadedData{
		ID:      id,
		Removed: removed,
	})
}

// NewErrorMessage creates an error message
func NewErrorMessage(err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: err.Error()})
}

// NewSeekErrorMessage creates an error message for a failed seek
func NewSeekErrorMessage(frame int, err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{
		Message: err.Error(),
		Frame:   &frame,
	})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSeekData extracts a seek request from a message
func (m *Message) GetSeekData() (*SeekData, error) {
	var data SeekData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetJobData extracts a job update from a message
func (m *Message) GetJobData() (*JobData, error) {
	var data JobData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetSceneReloadedData extracts a registry change from a message
func (m *Message) GetSceneReloadedData() (*SceneReloadedData, error) {
	var data SceneReloadedData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
