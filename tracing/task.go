// Package tracing turns truck trips into traced tasks and writes them to CSV,
// JSON or a data recorder.
package tracing

import "github.com/sarchlab/tankersim/timing"

// A TaskStep represents a milestone in the processing of task
type TaskStep struct {
	Time timing.VTimeInHour `json:"time"`
	What string             `json:"what"`
}

// A Task is a traced piece of work. For trips, Where is the truck and What is
// the target tank.
type Task struct {
	ID        string             `json:"id"`
	Kind      string             `json:"kind"`
	What      string             `json:"what"`
	Where     string             `json:"where"`
	StartTime timing.VTimeInHour `json:"start_time"`
	EndTime   timing.VTimeInHour `json:"end_time"`
	Steps     []TaskStep         `json:"steps"`
	Completed bool               `json:"completed"`
	Detail    any                `json:"-"`
}

// TaskFilter is a function that can filter interesting tasks. If this function
// returns true, the task is considered useful.
type TaskFilter func(t Task) bool
