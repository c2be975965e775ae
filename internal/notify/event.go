package notify

import "time"

// FailureEvent describes one file that failed a task stage, or a task run
// that failed as a whole (File empty, Stage "task").
type FailureEvent struct {
	Task      string    `json:"task"`
	RunID     string    `json:"run_id"`
	Mode      string    `json:"mode"`
	File      string    `json:"file,omitempty"`
	Stage     string    `json:"stage"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}
