// Package report renders aggregated detection statistics as plain text.
// The output format is a stable contract: identical input produces
// byte-identical output.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cogniac/cogstats/internal/cogniac"
)

const (
	headerRule  = 50
	sectionRule = 40
	indent      = "    "
)

// Render writes one report block for a single EdgeFlow to w.
func Render(w io.Writer, ef *cogniac.EdgeFlow, stats *cogniac.AggregatedStats) {
	fmt.Fprintln(w, strings.Repeat("=", headerRule))
	fmt.Fprintf(w, "EdgeFlow: %s(%s)\n", ef.Name, ef.GatewayID)
	fmt.Fprintln(w, strings.Repeat("-", sectionRule))

	fmt.Fprintln(w, "Total Detections:")
	renderCounters(w, stats.Total)

	// App IDs are sorted so the mapping's iteration order cannot leak
	// into the output.
	for _, appID := range sortedAppIDs(stats.App) {
		fmt.Fprintf(w, "App ID: %s\n", appID)
		renderCounters(w, stats.App[appID])
	}

	fmt.Fprintf(w, "Start Time: %s\n", stats.StartTimestamp)
	fmt.Fprintf(w, "End Time: %s\n", stats.EndTimestamp)
}

func renderCounters(w io.Writer, counters cogniac.StatCounters) {
	fmt.Fprintf(w, "%sModel Detections: %d\n", indent, counters.ModelDetections)
	fmt.Fprintf(w, "%sAggregated Media Pixels: %s\n", indent, counters.AggregatedMediaPixels)
	fmt.Fprintf(w, "%sAggregated GPU Pixels: %s\n", indent, counters.AggregatedGPUPixels)
}

func sortedAppIDs(app map[string]cogniac.StatCounters) []string {
	if len(app) == 0 {
		return nil
	}
	ids := make([]string, 0, len(app))
	for id := range app {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
