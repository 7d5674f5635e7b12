package domain

import "time"

// RecurrenceType is how often a task repeats
type RecurrenceType string

const (
	RecurrenceNone    RecurrenceType = "none"
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

// IsRecurring reports whether completion is tracked per cycle instead of by is_completed.
// Unknown values are treated as one-off.
func (r RecurrenceType) IsRecurring() bool {
	switch r {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	default:
		return false
	}
}

// Board is the kanban column a task currently sits in
type Board string

const (
	BoardTodayHigh   Board = "today_high_priority"
	BoardTodayMedium Board = "today_medium_priority"
	BoardWeekLow     Board = "week_low_priority"
	BoardGeneral     Board = "general"
	BoardCompleted   Board = "completed"
	BoardOverdue     Board = "overdue"
)

// DateLayout is the wire format of due_date.
const DateLayout = "2006-01-02"

// Task is the subset of the tasks table the reminder engine reads and writes.
type Task struct {
	ID                           string         `json:"id" gorm:"primaryKey"`
	UserID                       string         `json:"user_id" gorm:"index;not null"`
	Title                        string         `json:"title" gorm:"not null"`
	Description                  string         `json:"description,omitempty"`
	DueDate                      *time.Time     `json:"due_date,omitempty" gorm:"type:date"`
	Time                         *string        `json:"time,omitempty"` // HH:MM
	RecurrenceType               RecurrenceType `json:"recurrence_type" gorm:"default:none"`
	RecurrenceDetails            *string        `json:"recurrence_details,omitempty"`
	IsCompleted                  bool           `json:"is_completed" gorm:"default:false"`
	LastSuccessfulCompletionDate *time.Time     `json:"last_successful_completion_date,omitempty"`
	LastNotifiedAt               *time.Time     `json:"last_notified_at,omitempty"`
	IsPriority                   bool           `json:"is_priority" gorm:"default:false"`
	CurrentBoard                 Board          `json:"current_board" gorm:"default:general"`
	CreatedAt                    time.Time      `json:"created_at"`
	UpdatedAt                    time.Time      `json:"updated_at"`
}

// DueDateString returns due_date as YYYY-MM-DD. Date columns carry no zone,
// so the calendar fields are read in UTC.
func (t *Task) DueDateString() string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.UTC().Format(DateLayout)
}

func (t *Task) TimeOfDay() string {
	if t.Time == nil {
		return ""
	}
	return *t.Time
}

func (t *Task) Details() string {
	if t.RecurrenceDetails == nil {
		return ""
	}
	return *t.RecurrenceDetails
}

// IsOverdueBoard reports the overdue column regardless of due_date.
func (t *Task) IsOverdueBoard() bool {
	return t.CurrentBoard == BoardOverdue
}
