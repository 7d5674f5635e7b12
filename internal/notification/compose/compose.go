// Package compose renders reminders and daily briefs into channel-agnostic
// payloads. Bodies may carry Telegram-style *bold* markers; channels that
// cannot render them call StripMarkdown.
package compose

import (
	"fmt"
	"strings"
	"time"

	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/reminder"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/domain"
)

// TasksURL is the deep link every notification opens.
const TasksURL = "/tasks"

const (
	TitleReminder = "Lembrete"
	TitlePending  = "Tarefa Pendente"
)

// Payload is what every channel receives.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url"`
}

// Text joins title and body for chat channels.
func (p Payload) Text() string {
	if p.Body == "" {
		return Bold(p.Title)
	}
	return Bold(p.Title) + "\n\n" + p.Body
}

var weekdayLabels = [7]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// Reminder composes the message for one fired trigger.
func Reminder(task *domain.Task, trigger reminder.Trigger, state reminder.CycleState) Payload {
	title := TitleReminder
	if trigger.Kind == reminder.TriggerPostDue {
		title = TitlePending
	}

	var lead string
	switch trigger.Kind {
	case reminder.TriggerPreDue:
		lead = fmt.Sprintf("%s começa em %d minutos.", Bold(task.Title), int(reminder.PreDueLead/time.Minute))
	case reminder.TriggerAtDue:
		lead = fmt.Sprintf("Está na hora de %s.", Bold(task.Title))
	default:
		lead = fmt.Sprintf("%s ainda não foi concluída.", Bold(task.Title))
		if state.SatisfiedForCycle {
			lead = Bold(task.Title)
		}
	}

	lines := []string{lead}
	if d := strings.TrimSpace(task.Description); d != "" {
		lines = append(lines, EscapeMarkdown(d))
	}
	if t := task.TimeOfDay(); t != "" {
		lines = append(lines, "Horário: "+t)
	}
	if summary := RecurrenceSummary(task); summary != "" {
		lines = append(lines, "Recorrência: "+summary)
	} else if task.DueDate != nil {
		lines = append(lines, "Vencimento: "+task.DueDate.UTC().Format("02/01/2006"))
	}
	if task.IsPriority {
		lines = append(lines, "Prioridade alta")
	}

	return Payload{Title: title, Body: strings.Join(lines, "\n"), URL: TasksURL}
}

// RecurrenceSummary describes the recurrence rule in Portuguese, empty for
// one-off tasks. Unparseable details fall back to the raw text.
func RecurrenceSummary(task *domain.Task) string {
	switch task.RecurrenceType {
	case domain.RecurrenceDaily:
		return "Diariamente"
	case domain.RecurrenceWeekly:
		days, err := domain.ParseWeekdays(task.Details())
		if err != nil {
			return "Semanalmente"
		}
		labels := make([]string, 0, 7)
		for _, d := range days.Days() {
			labels = append(labels, weekdayLabels[d])
		}
		return "Semanalmente nos dias " + strings.Join(labels, ", ")
	case domain.RecurrenceMonthly:
		day, err := domain.ParseMonthDay(task.Details())
		if err != nil {
			return "Mensalmente"
		}
		return fmt.Sprintf("Mensalmente no dia %d", day)
	default:
		return ""
	}
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// EscapeMarkdown makes user text safe outside an entity in Telegram's
// legacy Markdown.
func EscapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// Bold wraps user text in *...*. Entities cannot nest or hold escapes, so a
// literal '*' closes the entity, is emitted escaped, and a new one opens.
func Bold(s string) string {
	var b strings.Builder
	for i, part := range strings.Split(s, "*") {
		if i > 0 {
			b.WriteString("\\*")
		}
		if part != "" {
			b.WriteString("*" + part + "*")
		}
	}
	return b.String()
}

func isMarker(r rune) bool {
	return r == '*' || r == '_' || r == '`' || r == '['
}

// StripMarkdown removes bold markers for plain-text channels. Escaped
// characters are kept literally; '_' inside bold text is literal already.
func StripMarkdown(s string) string {
	return rewriteMarkdown(s, true)
}

// UnescapeMarkdown drops the escapes but keeps emphasis, for chat channels
// without an escape syntax.
func UnescapeMarkdown(s string) string {
	return rewriteMarkdown(s, false)
}

func rewriteMarkdown(s string, strip bool) string {
	var b strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch {
		case r == '\\' && i+1 < len(rs) && isMarker(rs[i+1]):
			b.WriteRune(rs[i+1])
			i++
		case strip && r == '*':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
