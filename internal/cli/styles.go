// Package cli renders dashboard pages for the terminal with lipgloss.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Dashboard palette. Each color has a light and dark terminal variant.
var (
	Brand   = lipgloss.AdaptiveColor{Light: "#1F4E9E", Dark: "#4C8DFF"}
	Good    = lipgloss.AdaptiveColor{Light: "#13795B", Dark: "#4ECDC4"}
	Caution = lipgloss.AdaptiveColor{Light: "#8A6100", Dark: "#FFE66D"}
	Bad     = lipgloss.AdaptiveColor{Light: "#B42318", Dark: "#FF6B6B"}
	Muted   = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#8B8B8B"}
	Frame   = lipgloss.AdaptiveColor{Light: "#D0D5DD", Dark: "#3A3A3A"}
)

var (
	TitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(Brand).MarginBottom(1)
	SubtitleStyle = lipgloss.NewStyle().Italic(true).Foreground(Muted)
	SuccessStyle  = lipgloss.NewStyle().Foreground(Good)
	WarningStyle  = lipgloss.NewStyle().Foreground(Caution)
	ErrorStyle    = lipgloss.NewStyle().Bold(true).Foreground(Bad)
	InfoStyle     = lipgloss.NewStyle().Foreground(Brand)
	SubtleStyle   = lipgloss.NewStyle().Foreground(Muted)
	BoldStyle     = lipgloss.NewStyle().Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Frame).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(Brand).PaddingRight(2)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// Message icons.
const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "!"
	InfoIcon    = "›"
	ChartIcon   = "📊"
)

func FormatSuccess(message string) string { return SuccessStyle.Render(SuccessIcon + " " + message) }
func FormatError(message string) string   { return ErrorStyle.Render(ErrorIcon + " " + message) }
func FormatWarning(message string) string { return WarningStyle.Render(WarningIcon + " " + message) }
func FormatInfo(message string) string    { return InfoStyle.Render(InfoIcon + " " + message) }

// FormatTitle renders a page heading.
func FormatTitle(title string) string {
	return TitleStyle.Render(ChartIcon + " " + title)
}

// RenderBox frames content under a title.
func RenderBox(title, content string) string {
	heading := TitleStyle.UnsetMargins().Render(title)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, heading, content))
}

// severity groups the risk and status labels the service and dashboard use.
var severity = map[string]lipgloss.Style{
	"high risk": ErrorStyle, "high": ErrorStyle, "critical": ErrorStyle,
	"medium risk": WarningStyle, "medium": WarningStyle,
	"low risk": SuccessStyle, "low": SuccessStyle,

	"healthy": SuccessStyle, "ready": SuccessStyle, "alive": SuccessStyle,
	"loaded": SuccessStyle, "success": SuccessStyle, "stable": SuccessStyle, "ok": SuccessStyle,
	"warning": WarningStyle, "degraded": WarningStyle, "drifting": WarningStyle,
	"unhealthy": ErrorStyle, "error": ErrorStyle, "unreachable": ErrorStyle, "not_ready": ErrorStyle,
}

// RiskStyle colors a churn or fraud risk label. Unknown labels are plain.
func RiskStyle(level string) lipgloss.Style {
	if s, ok := severity[strings.ToLower(level)]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// StatusStyle colors a service or model status. Unknown statuses render as
// info.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := severity[strings.ToLower(status)]; ok {
		return s
	}
	return InfoStyle
}
