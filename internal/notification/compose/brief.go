package compose

import (
	"fmt"
	"strings"

	notifdomain "github.com/GamaDigital-7l/Gama-todoist-sub000/internal/notification/domain"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/reminder"
	"github.com/GamaDigital-7l/Gama-todoist-sub000/internal/task/domain"
)

// maxBriefItems caps the task titles listed in a brief.
const maxBriefItems = 5

// BriefItem is a candidate task with its resolved cycle state.
type BriefItem struct {
	Task  *domain.Task
	State reminder.CycleState
}

// BriefCounts aggregates a user's day.
type BriefCounts struct {
	Pending   int `json:"pending"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
	Priority  int `json:"priority"`
}

// Total is every task that belongs to today, overdue ones included.
func (c BriefCounts) Total() int {
	return c.Pending + c.Completed + c.Overdue
}

// CountBrief buckets items. A task on the overdue board counts as overdue
// until completed, whatever its due date, and is not counted again as
// pending. Priority counts open tasks only.
func CountBrief(items []BriefItem) (BriefCounts, []*domain.Task) {
	var c BriefCounts
	var open []*domain.Task
	for _, it := range items {
		t := it.Task
		switch {
		case t.IsOverdueBoard():
			if t.IsCompleted || it.State.SatisfiedForCycle {
				continue
			}
			c.Overdue++
		case !it.State.DueToday:
			continue
		case it.State.SatisfiedForCycle:
			c.Completed++
			continue
		default:
			c.Pending++
		}
		if t.IsPriority {
			c.Priority++
		}
		open = append(open, t)
	}
	return c, open
}

// Brief composes the morning, evening or test summary.
func Brief(kind notifdomain.TimeOfDay, items []BriefItem) Payload {
	c, open := CountBrief(items)

	switch kind {
	case notifdomain.TimeOfDayTest:
		return Payload{
			Title: "Notificação de teste",
			Body:  fmt.Sprintf("Suas notificações estão funcionando. Hoje: %d pendentes, %d concluídas, %d atrasadas.", c.Pending, c.Completed, c.Overdue),
			URL:   TasksURL,
		}

	case notifdomain.TimeOfDayEvening:
		lines := []string{
			fmt.Sprintf("Você concluiu *%d* de %d tarefas hoje.", c.Completed, c.Completed+c.Pending),
		}
		if c.Pending > 0 {
			lines = append(lines, fmt.Sprintf("Ficaram pendentes: %d", c.Pending))
		}
		if c.Overdue > 0 {
			lines = append(lines, fmt.Sprintf("Atrasadas: %d", c.Overdue))
		}
		if c.Pending == 0 && c.Overdue == 0 {
			lines = append(lines, "Tudo em dia. Bom descanso!")
		}
		return Payload{Title: "Resumo do dia", Body: strings.Join(lines, "\n"), URL: TasksURL}

	default:
		lines := []string{
			fmt.Sprintf("Você tem *%d* tarefas para hoje.", c.Pending),
		}
		if c.Overdue > 0 {
			lines = append(lines, fmt.Sprintf("Atrasadas: %d", c.Overdue))
		}
		if c.Priority > 0 {
			lines = append(lines, fmt.Sprintf("Prioritárias: %d", c.Priority))
		}
		if c.Completed > 0 {
			lines = append(lines, fmt.Sprintf("Já concluídas: %d", c.Completed))
		}
		lines = append(lines, briefList(open)...)
		return Payload{Title: "Bom dia!", Body: strings.Join(lines, "\n"), URL: TasksURL}
	}
}

// briefList renders open tasks, priority ones first.
func briefList(open []*domain.Task) []string {
	if len(open) == 0 {
		return nil
	}
	ordered := make([]*domain.Task, 0, len(open))
	for _, t := range open {
		if t.IsPriority {
			ordered = append(ordered, t)
		}
	}
	for _, t := range open {
		if !t.IsPriority {
			ordered = append(ordered, t)
		}
	}

	lines := []string{""}
	for i, t := range ordered {
		if i == maxBriefItems {
			lines = append(lines, fmt.Sprintf("... e mais %d", len(ordered)-maxBriefItems))
			break
		}
		title := EscapeMarkdown(t.Title)
		if t.IsPriority {
			title = Bold(t.Title)
		}
		line := "- " + title
		if tod := t.TimeOfDay(); tod != "" {
			line += " (" + tod + ")"
		}
		lines = append(lines, line)
	}
	return lines
}
