package domain

import (
	"fmt"
	"time"
)

// TimeOfDay selects the brief path of a notification run
type TimeOfDay string

const (
	TimeOfDayMorning TimeOfDay = "morning"
	TimeOfDayEvening TimeOfDay = "evening"
	TimeOfDayTest    TimeOfDay = "test_notification"
)

func (t TimeOfDay) IsValid() bool {
	switch t {
	case TimeOfDayMorning, TimeOfDayEvening, TimeOfDayTest:
		return true
	default:
		return false
	}
}

// RunRequest is one invocation of the notification pass. An empty UserID
// means every user with an enabled channel; a non-empty TimeOfDay runs the
// brief path instead of per-task reminders.
type RunRequest struct {
	UserID    string    `json:"user_id,omitempty"`
	TimeOfDay TimeOfDay `json:"time_of_day,omitempty"`
}

func (r RunRequest) Validate() error {
	if r.TimeOfDay != "" && !r.TimeOfDay.IsValid() {
		return fmt.Errorf("invalid time_of_day %q", r.TimeOfDay)
	}
	return nil
}

// RunReport summarises one invocation.
type RunReport struct {
	StartedAt          time.Time `json:"started_at"`
	FinishedAt         time.Time `json:"finished_at"`
	Users              int       `json:"users"`
	TasksEvaluated     int       `json:"tasks_evaluated"`
	TriggersFired      int       `json:"triggers_fired"`
	BriefsSent         int       `json:"briefs_sent"`
	Deliveries         int       `json:"deliveries"`
	ChannelFailures    int       `json:"channel_failures"`
	SubscriptionsPrune int       `json:"subscriptions_pruned"`
	TaskErrors         int       `json:"task_errors"`
	WatermarksHeld     int       `json:"watermarks_held"`
}

// Merge folds a per-user report into r.
func (r *RunReport) Merge(o RunReport) {
	r.Users += o.Users
	r.TasksEvaluated += o.TasksEvaluated
	r.TriggersFired += o.TriggersFired
	r.BriefsSent += o.BriefsSent
	r.Deliveries += o.Deliveries
	r.ChannelFailures += o.ChannelFailures
	r.SubscriptionsPrune += o.SubscriptionsPrune
	r.TaskErrors += o.TaskErrors
	r.WatermarksHeld += o.WatermarksHeld
}
