// Package watch implements the live detection dashboard.
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"

	"github.com/cogniac/cogstats/internal/cogniac"
	"github.com/cogniac/cogstats/internal/history"
	"github.com/cogniac/cogstats/internal/logger"
	"github.com/cogniac/cogstats/internal/ui/components"
)

// Entry is the latest fetch result for one EdgeFlow.
type Entry struct {
	EdgeFlow *cogniac.EdgeFlow
	Stats    *cogniac.AggregatedStats
	Err      error
}

// Options configure the dashboard.
type Options struct {
	TenantID       string
	TenantName     string
	GatewayID      string
	Interval       time.Duration
	AlertThreshold int64
}

// KeyMap defines the dashboard keybindings.
type KeyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Refresh: key.NewBinding(key.WithKeys("r", "ctrl+r"), key.WithHelp("r", "refresh")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

type (
	statsMsg struct {
		entries []Entry
		// seed backfills per-EdgeFlow chart series from recorded history
		// on the first successful fetch.
		seed map[string][]float64
		err  error
	}
	tickMsg       time.Time
	envChangedMsg struct{}
)

// Model is the bubbletea model for the dashboard.
type Model struct {
	ctx     context.Context
	client  *cogniac.Client
	store   *history.DB // nil when history is disabled
	opts    Options
	keys    KeyMap
	spinner components.LoadingSpinner

	entries     []Entry
	totalSeries []float64
	series      map[string][]float64
	prev        map[string]int64
	fetching    bool
	lastUpdated time.Time
	err         error

	envEvents  <-chan struct{}
	envChanged bool

	width  int
	height int
}

// New creates a dashboard model. ctx bounds the fetches so they are
// cancelled when the program exits. envEvents may be nil when no .env file
// is being watched.
func New(ctx context.Context, client *cogniac.Client, store *history.DB, opts Options, envEvents <-chan struct{}) Model {
	if opts.Interval <= 0 {
		opts.Interval = 30 * time.Second
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return Model{
		ctx:       ctx,
		client:    client,
		store:     store,
		opts:      opts,
		keys:      DefaultKeyMap(),
		spinner:   components.NewSpinner("Fetching detection statistics..."),
		series:    make(map[string][]float64),
		prev:      make(map[string]int64),
		envEvents: envEvents,
	}
}

// Init starts the initial fetch and the poll ticker.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick(), m.fetchCmd(), m.tickCmd()}
	if m.envEvents != nil {
		cmds = append(cmds, m.waitEnvCmd())
	}
	return tea.Batch(cmds...)
}

// fetchCmd resolves the target EdgeFlows and fetches their stats.
func (m Model) fetchCmd() tea.Cmd {
	ctx := m.ctx
	client := m.client
	opts := m.opts
	store := m.store
	needSeed := store != nil && len(m.series) == 0

	return func() tea.Msg {
		var edgeflows []*cogniac.EdgeFlow
		if opts.GatewayID != "" {
			ef, err := client.EdgeFlow(ctx, opts.GatewayID)
			if err != nil {
				return statsMsg{err: err}
			}
			edgeflows = []*cogniac.EdgeFlow{ef}
		} else {
			var err error
			edgeflows, err = client.EdgeFlows(ctx)
			if err != nil {
				return statsMsg{err: err}
			}
		}

		var seed map[string][]float64
		if needSeed {
			seed = make(map[string][]float64, len(edgeflows))
			for _, ef := range edgeflows {
				series, err := store.DetectionSeries(ctx, opts.TenantID, ef.GatewayID, maxSeriesLen)
				if err != nil {
					logger.Debug("failed to load detection series", "gateway_id", ef.GatewayID, "error", err)
					continue
				}
				if len(series) > 0 {
					seed[ef.GatewayID] = series
				}
			}
		}

		entries := make([]Entry, 0, len(edgeflows))
		for _, ef := range edgeflows {
			stats, err := ef.AggregatedStats(ctx, nil, nil)
			entries = append(entries, Entry{EdgeFlow: ef, Stats: stats, Err: err})
			if err != nil || store == nil {
				continue
			}
			snap := history.NewSnapshot(opts.TenantID, ef, stats)
			if err := store.RecordSnapshot(ctx, snap); err != nil {
				logger.Warn("failed to record snapshot", "gateway_id", ef.GatewayID, "error", err)
			}
		}
		return statsMsg{entries: entries, seed: seed}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) waitEnvCmd() tea.Cmd {
	events := m.envEvents
	return func() tea.Msg {
		if _, ok := <-events; !ok {
			return nil
		}
		return envChangedMsg{}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			if m.fetching {
				return m, nil
			}
			m.fetching = true
			return m, tea.Batch(m.fetchCmd(), m.spinner.Tick())
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case spinner.TickMsg:
		if m.fetching || m.lastUpdated.IsZero() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case tickMsg:
		if m.fetching {
			return m, m.tickCmd()
		}
		m.fetching = true
		return m, tea.Batch(m.fetchCmd(), m.spinner.Tick(), m.tickCmd())

	case statsMsg:
		m.fetching = false
		m.lastUpdated = time.Now()
		m.err = msg.err
		if msg.err == nil {
			m.entries = msg.entries
			for id, series := range msg.seed {
				if len(m.series[id]) == 0 {
					m.series[id] = series
				}
			}
			m.recordSeries(msg.entries)
			m.notifyAlerts(msg.entries)
		}
		return m, nil

	case envChangedMsg:
		m.envChanged = true
		return m, m.waitEnvCmd()
	}

	return m, nil
}

// recordSeries appends the current counts to the in-session chart series.
func (m *Model) recordSeries(entries []Entry) {
	var total int64
	for _, entry := range entries {
		if entry.Err != nil {
			continue
		}
		count := entry.Stats.Total.ModelDetections
		total += count
		id := entry.EdgeFlow.GatewayID
		m.series[id] = appendBounded(m.series[id], float64(count))
	}
	m.totalSeries = appendBounded(m.totalSeries, float64(total))
}

const maxSeriesLen = 120

func appendBounded(series []float64, v float64) []float64 {
	series = append(series, v)
	if len(series) > maxSeriesLen {
		series = series[len(series)-maxSeriesLen:]
	}
	return series
}

// notifyAlerts sends a desktop notification when an EdgeFlow's detection
// count grew by at least the configured threshold since the last poll.
func (m *Model) notifyAlerts(entries []Entry) {
	threshold := m.opts.AlertThreshold
	for _, entry := range entries {
		if entry.Err != nil {
			continue
		}
		id := entry.EdgeFlow.GatewayID
		count := entry.Stats.Total.ModelDetections
		prev, seen := m.prev[id]
		m.prev[id] = count

		if threshold <= 0 || !seen || count-prev < threshold {
			continue
		}
		title := "cogstats: detection spike"
		body := fmt.Sprintf("%s: +%d model detections since last poll", entry.EdgeFlow, count-prev)
		if err := beeep.Notify(title, body, ""); err != nil {
			logger.Debug("notification failed", "error", err)
		}
	}
}
