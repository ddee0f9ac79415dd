package payment

import "time"

// ErrorLog is the operator-facing record of a failed submission
type ErrorLog struct {
	Method    string
	Title     string
	Error     string
	Context   map[string]any
	CreatedAt time.Time
}
