package database

import "time"

// CallState is the final (or current) state of a recorded call.
type CallState string

const (
	CallStateRunning CallState = "running"
	CallStateDone    CallState = "done"
	CallStateFailed  CallState = "failed"
)

// Call is one row of the call history.
type Call struct {
	ID              string     `json:"id"`
	Peer            string     `json:"peer,omitempty"`
	Extension       string     `json:"extension,omitempty"`
	TargetWidth     int        `json:"targetWidth"`
	TargetHeight    int        `json:"targetHeight"`
	State           CallState  `json:"state"`
	ErrorKind       string     `json:"errorKind,omitempty"`
	Error           string     `json:"error,omitempty"`
	BytesIn         int64      `json:"bytesIn"`
	BytesOut        int64      `json:"bytesOut"`
	Width           int        `json:"width"`
	Height          int        `json:"height"`
	DurationSeconds int64      `json:"durationSeconds"`
	Degraded        bool       `json:"degraded"`
	StartedAt       time.Time  `json:"startedAt"`
	FinishedAt      *time.Time `json:"finishedAt,omitempty"`
}
