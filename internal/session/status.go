package session

import (
	"encoding/json"
)

// Status is the analysis lifecycle state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusIdle, StatusProcessing, StatusComplete, StatusError:
		return true
	}
	return false
}

// AnalysisState is the advisory progress of the current analysis.
type AnalysisState struct {
	Status     Status  `json:"status" yaml:"status"`
	Progress   int     `json:"progress" yaml:"progress"`
	Message    string  `json:"message" yaml:"message"`
	AnalysisID *string `json:"analysis_id,omitempty" yaml:"analysis_id,omitempty"`
}

// IdleState is the state of a session with no analysis.
func IdleState() AnalysisState {
	return AnalysisState{Status: StatusIdle}
}

// StatusUpdate is a partial AnalysisState. Nil fields are left unchanged.
// SetAnalysisID distinguishes clearing the id (AnalysisID nil) from leaving
// it alone.
type StatusUpdate struct {
	Status        *Status
	Progress      *int
	Message       *string
	AnalysisID    *string
	SetAnalysisID bool
}

// Transition builds an update that sets status, progress and message.
func Transition(status Status, progress int, message string) StatusUpdate {
	return StatusUpdate{Status: &status, Progress: &progress, Message: &message}
}

// UnmarshalJSON decodes only the recognized keys. Unknown keys and values of
// the wrong type are ignored; "analysis_id": null clears the id.
func (u *StatusUpdate) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*u = StatusUpdate{}

	if raw, ok := fields["status"]; ok {
		var s Status
		if json.Unmarshal(raw, &s) == nil && s.Valid() {
			u.Status = &s
		}
	}
	if raw, ok := fields["progress"]; ok {
		var f float64
		if json.Unmarshal(raw, &f) == nil {
			p := int(f)
			u.Progress = &p
		}
	}
	if raw, ok := fields["message"]; ok {
		var m string
		if json.Unmarshal(raw, &m) == nil {
			u.Message = &m
		}
	}
	if raw, ok := fields["analysis_id"]; ok {
		if string(raw) == "null" {
			u.SetAnalysisID = true
		} else {
			var id string
			if json.Unmarshal(raw, &id) == nil {
				u.AnalysisID = &id
				u.SetAnalysisID = true
			}
		}
	}
	return nil
}

// apply merges u into st. Invalid statuses are ignored and progress is
// clamped to 0..100.
func (u StatusUpdate) apply(st *AnalysisState) {
	if u.Status != nil && u.Status.Valid() {
		st.Status = *u.Status
	}
	if u.Progress != nil {
		st.Progress = clamp(*u.Progress)
	}
	if u.Message != nil {
		st.Message = *u.Message
	}
	if u.SetAnalysisID || u.AnalysisID != nil {
		if u.AnalysisID == nil {
			st.AnalysisID = nil
		} else {
			id := *u.AnalysisID
			st.AnalysisID = &id
		}
	}
}

func clamp(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
