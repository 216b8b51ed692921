package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	out := Table(
		[]string{"Customer", "Risk"},
		[][]string{{"CUST_000001", "High Risk"}, {"CUST_000002", "Low Risk"}},
		func(_, col int, value string) *lipgloss.Style {
			if col == 1 {
				s := RiskStyle(value)
				return &s
			}
			return nil
		},
	)

	assert.Contains(t, out, "Customer")
	assert.Contains(t, out, "CUST_000001")
	assert.Contains(t, out, "Low Risk")
	assert.Less(t, strings.Index(out, "CUST_000001"), strings.Index(out, "CUST_000002"))
}

func TestKeyValues(t *testing.T) {
	out := KeyValues([][2]string{{"Status", "healthy"}, {"Uptime", "12.0h"}})
	lines := strings.Split(out, "\n")
	assert.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Status:")
	assert.Contains(t, lines[1], "12.0h")
	assert.Equal(t, strings.Index(lines[0], "healthy"), strings.Index(lines[1], "12.0h"))
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 5, "Scoring")
	p.Set(2)
	assert.False(t, p.Done())
	p.Set(5)
	assert.True(t, p.Done())
	assert.Contains(t, buf.String(), "Scoring")
}

func TestRiskAndStatusStyles(t *testing.T) {
	assert.Equal(t, ErrorStyle.GetForeground(), RiskStyle("High Risk").GetForeground())
	assert.Equal(t, WarningStyle.GetForeground(), RiskStyle("Medium").GetForeground())
	assert.Equal(t, SuccessStyle.GetForeground(), RiskStyle("low").GetForeground())
	assert.Equal(t, SuccessStyle.GetForeground(), StatusStyle("healthy").GetForeground())
	assert.Equal(t, ErrorStyle.GetForeground(), StatusStyle("unreachable").GetForeground())
	assert.Equal(t, WarningStyle.GetForeground(), StatusStyle("Degraded").GetForeground())
	assert.Equal(t, InfoStyle.GetForeground(), StatusStyle("starting").GetForeground())
	assert.Equal(t, lipgloss.NewStyle().GetForeground(), RiskStyle("unknown").GetForeground())
}

func TestFormatters(t *testing.T) {
	assert.Contains(t, FormatSuccess("done"), "done")
	assert.Contains(t, FormatError("failed"), ErrorIcon)
	assert.Contains(t, RenderBox("Summary", "body"), "Summary")
}
