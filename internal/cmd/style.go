package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/comalice/procession/internal/primitives"
)

var (
	colorAccent  = lipgloss.AdaptiveColor{Light: "#399ee6", Dark: "#59c2ff"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#86b300", Dark: "#aad94c"}
	colorWarning = lipgloss.AdaptiveColor{Light: "#f2ae49", Dark: "#ffb454"}
	colorError   = lipgloss.AdaptiveColor{Light: "#f07171", Dark: "#f07178"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#8a9199", Dark: "#6c7380"}
	colorGold    = lipgloss.AdaptiveColor{Light: "#b8860b", Dark: "#ffd700"}
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorGold)

	DimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	RouteEventStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	StartStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	ProgressStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	CompleteStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	WarnStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	SummaryStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Width(14)
)

var titleCaser = cases.Title(language.Spanish)

// displayName title-cases an actor name, falling back to its id.
func displayName(a *primitives.Actor) string {
	if a == nil {
		return "(no actor)"
	}
	if strings.TrimSpace(a.Name) == "" {
		return a.ID
	}
	return titleCaser.String(a.Name)
}

// formatEvent renders one bus event as a styled line.
func formatEvent(ev primitives.Event) string {
	name := fmt.Sprintf("%-24s", ev.Name)
	seq := DimStyle.Render(fmt.Sprintf("#%03d", ev.Seq))
	switch p := ev.Payload.(type) {
	case primitives.RouteCreationStarted:
		return fmt.Sprintf("%s %s actor=%s anchor=(%.0f,%.0f)", seq, RouteEventStyle.Render(name), p.ActorID, p.Anchor.X, p.Anchor.Y)
	case primitives.RoutePointAdded:
		return fmt.Sprintf("%s %s #%d (%.0f,%.0f) total=%d", seq, RouteEventStyle.Render(name), p.PointIndex, p.Point.X, p.Point.Y, p.TotalPoints)
	case primitives.RoutePointRemoved:
		return fmt.Sprintf("%s %s (%.0f,%.0f) remaining=%d", seq, RouteEventStyle.Render(name), p.Point.X, p.Point.Y, p.RemainingPoints)
	case primitives.RouteFinishSuggested:
		return fmt.Sprintf("%s %s points=%d", seq, WarnStyle.Render(name), p.PointCount)
	case primitives.RouteCreated:
		return fmt.Sprintf("%s %s id=%s points=%d length=%.1f", seq, StartStyle.Render(name), p.Route.ID, len(p.Route.Points), p.Route.Length())
	case primitives.RouteCreationCancelled:
		return fmt.Sprintf("%s %s actor=%s", seq, WarnStyle.Render(name), p.ActorID)
	case primitives.RouteCreationError:
		return fmt.Sprintf("%s %s %s", seq, ErrorStyle.Render(name), p.Reason)
	case primitives.Started:
		return fmt.Sprintf("%s %s actor=%s route=%s participants=%d length=%.1f", seq, StartStyle.Render(name), p.ActorID, p.RouteID, p.ParticipantCount, p.RouteLength)
	case primitives.Progress:
		return fmt.Sprintf("%s %s %5.1f%% elapsed=%s home=%d/%d", seq, ProgressStyle.Render(name), p.Progress*100, elapsed(p.ElapsedMs), p.CompletedCount, p.ParticipantCount)
	case primitives.Completed:
		return fmt.Sprintf("%s %s elapsed=%s participants=%d", seq, CompleteStyle.Render(name), elapsed(p.ElapsedMs), p.ParticipantCount)
	case primitives.Cancelled:
		return fmt.Sprintf("%s %s elapsed=%s", seq, WarnStyle.Render(name), elapsed(p.ElapsedMs))
	case primitives.PauseChanged:
		return fmt.Sprintf("%s %s paused=%t elapsed=%s", seq, WarnStyle.Render(name), p.IsPaused, elapsed(p.ElapsedMs))
	case primitives.Error:
		return fmt.Sprintf("%s %s [%s/%s] %s", seq, ErrorStyle.Render(name), p.Source, p.Kind, p.Reason)
	case primitives.TimeAdvanced:
		line := fmt.Sprintf("%s %s %d->%d popularity=%d members=%d", seq, ProgressStyle.Render(name), p.FromYear, p.ToYear, p.Popularity, p.Members)
		for _, h := range p.Events {
			line += "\n" + DimStyle.Render(fmt.Sprintf("      %d %s", h.Year, h.Description))
		}
		return line
	default:
		return fmt.Sprintf("%s %s", seq, name)
	}
}

// elapsed renders simulated milliseconds as a duration.
func elapsed(ms float64) time.Duration {
	return (time.Duration(ms) * time.Millisecond).Round(time.Millisecond)
}

// summary renders labelled rows inside a rounded box.
func summary(title string, rows [][2]string) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(title))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(LabelStyle.Render(r[0]))
		b.WriteString(r[1])
	}
	return SummaryStyle.Render(b.String())
}
