package model

import "time"

// JobEventType names a job lifecycle transition.
type JobEventType string

const (
	JobEventCreated   JobEventType = "created"
	JobEventStarted   JobEventType = "started"
	JobEventCompleted JobEventType = "completed"
	JobEventCanceled  JobEventType = "canceled"
	JobEventDeleted   JobEventType = "deleted"
	JobEventShared    JobEventType = "shared"
	JobEventUnshared  JobEventType = "unshared"
)

// JobEvent is published after a job mutation succeeds.
type JobEvent struct {
	Type    JobEventType `json:"type"`
	JobID   string       `json:"job_id"`
	Actor   string       `json:"actor"`
	Service string       `json:"service,omitempty"`
	Error   bool         `json:"error,omitempty"`
	Users   []string     `json:"users,omitempty"`
	At      time.Time    `json:"at"`
}

// RoutingKey returns the broker routing key for the event.
func (e JobEvent) RoutingKey() string {
	return "job." + string(e.Type)
}
