package ipc

import "time"

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running         bool   `json:"running"`
	PID             int    `json:"pid"`
	Current         string `json:"current"`
	Staged          string `json:"staged"`
	HelperConnected bool   `json:"helper_connected"`
	LockPath        string `json:"lock_path"`
	HistoryPath     string `json:"history_path"`
	APIBind         string `json:"api_bind"`
}

// StopRequest asks the daemon process to shut down.
type StopRequest struct{}

// StopResponse indicates shutdown has begun.
type StopResponse struct {
	Stopping bool `json:"stopping"`
}

// CheckRequest forces an immediate update check.
type CheckRequest struct{}

// CheckResponse reports the status after the check completed.
type CheckResponse struct {
	Status StatusResponse `json:"status"`
}

// HistoryRequest fetches recent update events, newest first.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// UpdateEvent is the wire representation of a recorded update event.
type UpdateEvent struct {
	RecordedAt time.Time `json:"recorded_at"`
	Current    string    `json:"current"`
	Candidate  string    `json:"candidate"`
	Action     string    `json:"action"`
	Detail     string    `json:"detail"`
}

// HistoryResponse contains recorded update events.
type HistoryResponse struct {
	Events []UpdateEvent `json:"events"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
