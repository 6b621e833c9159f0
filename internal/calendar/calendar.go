// Package calendar pushes extracted day-plan tasks to an external calendar.
// The backend is a plain HTTP endpoint accepting event JSON, so any CalDAV
// bridge or webhook automation can sit behind it. When no endpoint is
// configured every insert fails and the task handler reports a partial add.
package calendar

import "context"

// Event a calendar entry to insert
type Event struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Timezone    string `json:"timezone"`
}

// Service inserts events into a calendar backend
type Service interface {
	Name() string
	AddEvent(ctx context.Context, event Event) error
}
