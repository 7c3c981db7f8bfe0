package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/aristath/planner/internal/scheduler"
)

var (
	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	styleIndex = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Width(4)

	styleTitle = lipgloss.NewStyle().
			Bold(true)

	styleOverdue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("red"))

	styleMuted = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// renderSchedule formats the recommended order with each task's due date
// (relative to ref) and estimate.
func renderSchedule(req scheduler.ScheduleRequest, resp scheduler.ScheduleResponse, ref time.Time) string {
	if len(resp.RecommendedOrder) == 0 {
		return styleMuted.Render("No tasks to schedule.") + "\n"
	}

	byTitle := make(map[string]scheduler.TaskInput, len(req.Tasks))
	for _, task := range req.Tasks {
		byTitle[task.Title] = task
	}

	width := 0
	for _, title := range resp.RecommendedOrder {
		width = max(width, lipgloss.Width(title))
	}

	var b strings.Builder
	b.WriteString(styleHeader.Render(fmt.Sprintf("Recommended order (%d tasks)", len(resp.RecommendedOrder))))
	b.WriteString("\n\n")

	for i, title := range resp.RecommendedOrder {
		task := byTitle[title]

		b.WriteString(styleIndex.Render(fmt.Sprintf("%d.", i+1)))
		b.WriteString(styleTitle.Width(width + 2).Render(title))
		b.WriteString(describeDue(task.DueDate, ref))
		b.WriteString(styleMuted.Render(fmt.Sprintf("  %sh", humanize.Ftoa(task.EstimatedHours))))
		b.WriteString("\n")
	}
	return b.String()
}

func describeDue(raw string, ref time.Time) string {
	due, ok := scheduler.ParseDueDate(raw)
	if !ok {
		return styleMuted.Render("no due date")
	}

	label := fmt.Sprintf("due %s (%s)", due.Format("2006-01-02"), humanize.RelTime(due, ref, "ago", "from now"))
	if due.Before(ref) {
		return styleOverdue.Render(label)
	}
	return label
}
