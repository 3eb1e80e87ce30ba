package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ilkoid/pilates-vision/pkg/clinical"
	"github.com/ilkoid/pilates-vision/pkg/planner"
	"github.com/ilkoid/pilates-vision/pkg/posture"
	"github.com/muesli/reflow/wrap"
)

const renderWidth = 80

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")). // Cyan
			Bold(true)
	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")). // Yellow
			Bold(true)
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

func divider() string {
	return dimStyle.Render(strings.Repeat("─", renderWidth))
}

// renderAnalysis печатает углы, отклонения и клинический текст.
func renderAnalysis(res *clinical.Result, lang posture.Language) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Posture angles"))
	b.WriteString("\n")
	b.WriteString(posture.Summarize(res.Angles, lang))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Detected deviations"))
	b.WriteString("\n")
	if len(res.DetectedDeviations) == 0 {
		b.WriteString(dimStyle.Render("none"))
		b.WriteString("\n")
	}
	for _, d := range res.DetectedDeviations {
		b.WriteString("  • " + d + "\n")
	}
	b.WriteString("\n")

	b.WriteString(labelStyle.Render("Clinical analysis"))
	b.WriteString("\n")
	b.WriteString(wrap.String(res.ClinicalAnalysis, renderWidth-4))

	return boxStyle.Render(b.String())
}

// renderPlan печатает план из пяти упражнений.
func renderPlan(plan *planner.Plan) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Workout plan"))
	b.WriteString("\n")

	for i, item := range plan.WorkoutPlan {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("%d. %s", i+1, item.ExerciseName)))
		b.WriteString(dimStyle.Render(fmt.Sprintf("  %s × %s", item.Sets, item.Reps)))
		b.WriteString("\n")
		if item.ClinicalReason != "" {
			b.WriteString(wrap.String(item.ClinicalReason, renderWidth-4))
			b.WriteString("\n")
		}
	}

	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderError(err error) string {
	return errorStyle.Render("Error: ") + wrap.String(err.Error(), renderWidth)
}
