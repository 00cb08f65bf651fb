package watch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/cogniac/cogstats/internal/ui/components"
	"github.com/cogniac/cogstats/internal/ui/styles"
)

// View renders the dashboard.
func (m Model) View() string {
	var b strings.Builder

	title := "Cogniac Detection Watch"
	if name := m.opts.TenantName; name != "" {
		title += " / " + name
	} else if m.opts.TenantID != "" {
		title += " / " + m.opts.TenantID
	}
	b.WriteString(styles.TitleStyle.Render(title))
	b.WriteString("\n")

	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(styles.ErrorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n\n")
	}

	for _, entry := range m.entries {
		b.WriteString(m.renderCard(entry))
		b.WriteString("\n")
	}

	if len(m.totalSeries) > 1 {
		b.WriteString(components.RenderLineChart(m.totalSeries, m.chartWidth(), 6, "total model detections"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.footer())

	if m.width > 0 {
		return truncateLines(b.String(), m.width)
	}
	return b.String()
}

func (m Model) statusLine() string {
	if m.fetching || m.lastUpdated.IsZero() {
		return m.spinner.ViewWithLabel()
	}
	return styles.StatusStyle.Render("Last updated " + m.lastUpdated.Format("15:04:05"))
}

func (m Model) renderCard(entry Entry) string {
	var b strings.Builder
	b.WriteString(styles.CardTitleStyle.Render(entry.EdgeFlow.String()))
	b.WriteString("\n")

	if entry.Err != nil {
		b.WriteString(styles.ErrorStyle.Render(entry.Err.Error()))
		return styles.CardStyle.Render(b.String())
	}

	total := entry.Stats.Total
	b.WriteString(counterLine("Model Detections", fmt.Sprintf("%d", total.ModelDetections)))
	b.WriteString(counterLine("Media Pixels", total.AggregatedMediaPixels.String()))
	b.WriteString(counterLine("GPU Pixels", total.AggregatedGPUPixels.String()))

	if series := m.series[entry.EdgeFlow.GatewayID]; len(series) > 1 {
		b.WriteString(styles.LabelStyle.Render("Trend: "))
		b.WriteString(components.RenderSparkline(series, 30))
		b.WriteString("\n")
	}

	if len(entry.Stats.App) > 0 {
		b.WriteString(styles.LabelStyle.Render("By application:"))
		b.WriteString("\n")
		b.WriteString(appBreakdown(entry))
	}

	return styles.CardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func counterLine(label, value string) string {
	return styles.LabelStyle.Render(label+": ") + styles.ValueStyle.Render(value) + "\n"
}

func appBreakdown(entry Entry) string {
	ids := make([]string, 0, len(entry.Stats.App))
	for id := range entry.Stats.App {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	values := make([]float64, 0, len(ids))
	for _, id := range ids {
		values = append(values, float64(entry.Stats.App[id].ModelDetections))
	}
	return components.RenderBarChart(values, ids, 50)
}

func (m Model) footer() string {
	help := "r refresh • q quit"
	if m.envChanged {
		help += "  •  " + styles.NoticeStyle.Render("config file changed; restart to apply credentials")
	}
	return styles.HelpStyle.Render(help)
}

func (m Model) chartWidth() int {
	if m.width > 20 {
		return m.width - 10
	}
	return 60
}

// truncateLines clips every line to the terminal width, preserving ANSI
// styling sequences.
func truncateLines(s string, width int) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, width, "")
	}
	return strings.Join(lines, "\n")
}
