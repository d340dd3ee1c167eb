// Package tui provides the interactive Bubble Tea dashboard for budgetlens.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/budgetlens/internal/cli"
	"github.com/theirongolddev/budgetlens/internal/config"
	"github.com/theirongolddev/budgetlens/internal/model"
	"github.com/theirongolddev/budgetlens/internal/pipeline"
	"github.com/theirongolddev/budgetlens/internal/store"
	"github.com/theirongolddev/budgetlens/internal/tui/components"
	"github.com/theirongolddev/budgetlens/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// DataLoadedMsg is sent when the input files have been read and merged.
type DataLoadedMsg struct {
	Raw        *model.Table
	Files      int
	FileErrors []string
	CacheHits  int
	LoadTime   time.Duration
	Reload     bool
}

// ProgressMsg reports file parsing progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// Options configures the dashboard.
type Options struct {
	Paths   []string
	Run     pipeline.Options
	Scale   cli.Scale
	NoCache bool
}

// App is the root Bubble Tea model.
type App struct {
	// Inputs
	paths   []string
	opts    pipeline.Options
	scale   cli.Scale
	noCache bool

	// Data
	raw        *model.Table
	res        *pipeline.Result
	runErr     error
	loaded     bool
	loadTime   time.Duration
	files      int
	fileErrors []string
	cacheHits  int
	reloading  bool

	// Groups tab dimension, cycled with [ and ]
	dims   []string
	dimIdx int

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	viewport  viewport.Model

	// Settings form (huh)
	setupForm *huh.Form
	setupVals setupValues

	// Loading: channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5

	thresholdStep = 0.01
)

// NewApp creates a new TUI app model.
func NewApp(o Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		paths:    o.Paths,
		opts:     o.Run,
		scale:    o.Scale,
		noCache:  o.NoCache,
		spinner:  sp,
		viewport: viewport.New(0, 0),
		loadSub:  make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.paths, a.noCache, false, a.loadSub),
		a.spinner.Tick,
	)
}

// recompute reruns the pipeline over the loaded table with the current
// options and refreshes the dimensions available to the Groups tab.
func (a *App) recompute() {
	if a.raw == nil {
		return
	}
	res, err := pipeline.Run(a.raw, a.opts)
	a.res, a.runErr = res, err
	if err != nil {
		a.dims = nil
		return
	}

	var dims []string
	for _, d := range append([]string{model.ColCostCenter}, a.opts.Columns.Drilldown...) {
		if res.Table.Supplied(d) {
			dims = append(dims, d)
		}
	}
	a.dims = dims
	if a.dimIdx >= len(a.dims) {
		a.dimIdx = 0
	}
}

// tabEnabled reports which tabs have data under the current tier.
func (a App) tabEnabled() []bool {
	f := a.opts.Features
	return []bool{true, true, f.Scenarios, f.Alerts, f.Recommendations || f.Playbooks}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		a.refreshViewport()
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil {
			return a, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.setTab(tab)
			}
			return a, nil
		}
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}

		// Settings form intercepts all keys
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "r":
			if a.reloading {
				return a, nil
			}
			a.reloading = true
			return a, tea.Batch(loadDataCmd(a.paths, a.noCache, true, a.loadSub), a.spinner.Tick)
		case "s":
			a.setupVals = valuesFrom(a.opts, a.scale)
			a.setupForm = newSetupForm(&a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		case "+", "=":
			a.opts.Thresholds.AlertPct += thresholdStep
			a.recompute()
			a.refreshViewport()
			return a, nil
		case "-", "_":
			a.opts.Thresholds.AlertPct = max(0, a.opts.Thresholds.AlertPct-thresholdStep)
			a.recompute()
			a.refreshViewport()
			return a, nil
		case "]":
			if len(a.dims) > 0 {
				a.dimIdx = (a.dimIdx + 1) % len(a.dims)
				a.refreshViewport()
			}
			return a, nil
		case "[":
			if len(a.dims) > 0 {
				a.dimIdx = (a.dimIdx - 1 + len(a.dims)) % len(a.dims)
				a.refreshViewport()
			}
			return a, nil
		case "left", "h":
			a.setTab((a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs))
			return a, nil
		case "right", "l", "tab":
			a.setTab((a.activeTab + 1) % len(components.Tabs))
			return a, nil
		case "g":
			a.viewport.GotoTop()
			return a, nil
		}

		if len(key) == 1 {
			if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
				a.setTab(idx)
				return a, nil
			}
		}

		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd

	case DataLoadedMsg:
		a.loaded = true
		a.reloading = false
		a.loadTime = msg.LoadTime
		a.files = msg.Files
		a.fileErrors = msg.FileErrors
		a.cacheHits = msg.CacheHits
		a.raw = msg.Raw
		a.recompute()
		a.refreshViewport()
		if !msg.Reload {
			a.viewport.GotoTop()
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case spinner.TickMsg:
		if !a.loaded || a.reloading {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the settings form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	return a, nil
}

func (a *App) setTab(idx int) {
	if idx == a.activeTab {
		return
	}
	a.activeTab = idx
	a.refreshViewport()
	a.viewport.GotoTop()
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		a.applySetup()
		a.setupForm = nil
		a.recompute()
		a.refreshViewport()
		return a, nil
	case huh.StateAborted:
		a.setupForm = nil
		return a, nil
	}

	return a, cmd
}

// applySetup applies the settings form to the running dashboard and
// persists it. Save errors are ignored; settings still apply in-session.
func (a *App) applySetup() {
	cfg := loadConfigOrDefault()
	if err := a.setupVals.apply(&cfg); err != nil {
		return
	}
	if opts, err := pipeline.OptionsFromConfig(cfg, a.opts.Playbooks); err == nil {
		opts.Columns = a.opts.Columns
		a.opts = opts
	}
	if sc, err := cli.ParseScale(cfg.General.Scale); err == nil {
		a.scale = sc
	}
	theme.SetActive(cfg.Appearance.Theme)
	_ = config.Save(cfg)
}

// loadConfigOrDefault loads config, returning defaults on error.
// This ensures the TUI can always start even if config is corrupted.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

func (a App) headerHeight() int { return 2 }
func (a App) statusHeight() int { return 1 }

// refreshViewport re-renders the active tab into the viewport.
func (a *App) refreshViewport() {
	if a.width == 0 || !a.loaded {
		return
	}
	contentH := max(a.height-a.headerHeight()-a.statusHeight(), minContentHeight)
	a.viewport.Width = a.contentWidth()
	a.viewport.Height = contentH
	a.viewport.SetContent(a.renderTab(a.contentWidth()))
}

func (a App) renderTab(cw int) string {
	if a.runErr != nil {
		return a.renderError(cw)
	}
	if a.res == nil {
		return ""
	}
	switch a.activeTab {
	case 0:
		return a.renderSummaryTab(cw)
	case 1:
		return a.renderGroupsTab(cw)
	case 2:
		return a.renderScenariosTab(cw)
	case 3:
		return a.renderAlertsTab(cw)
	case 4:
		return a.renderActionsTab(cw)
	}
	return ""
}

func (a App) renderError(cw int) string {
	t := theme.Active
	warn := lipgloss.NewStyle().Foreground(t.Red).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	body := warn.Render(a.runErr.Error())
	var mce *pipeline.MissingColumnsError
	if errors.As(a.runErr, &mce) {
		body += "\n\n" + muted.Render("Columns found: "+strings.Join(mce.Found, ", "))
	}
	for _, fe := range a.fileErrors {
		body += "\n" + muted.Render(fe)
	}
	return components.ContentCard("Cannot analyze input", body, cw)
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  budgetlens needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderBright).
		Background(t.Surface).
		Padding(2, 4)

	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	countStyle := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ budgetlens"))
	b.WriteString(subtitleStyle.Render(" · Budget Variance"))
	b.WriteString("\n\n")

	if a.progressMax > 0 {
		barW := max(20, min(40, a.width-30))
		pct := float64(a.progress) / float64(a.progressMax)
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Reading files\n\n"))
		b.WriteString(components.ProgressBar(pct, barW))
		b.WriteString("\n")
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progress))))
		b.WriteString(subtitleStyle.Render(" / "))
		b.WriteString(countStyle.Render(cli.FormatNumber(int64(a.progressMax))))
	} else {
		b.WriteString(spinnerStyle.Render(a.spinner.View()))
		b.WriteString(subtitleStyle.Render(" Opening inputs..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderBright).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Blue).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"1-5", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"j k", "Scroll"},
			{"g", "Back to top"},
		}},
		{"Analysis", []struct{ key, desc string }{
			{"+ -", "Raise / lower alert threshold"},
			{"[ ]", "Cycle group dimension"},
			{"s", "Settings (tier, scale, threshold, theme)"},
			{"r", "Reload input files"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-6s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar + filter pill
	pill := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	filterStr := pill.Render(" tier ") + accent.Render(a.opts.Tier) +
		pill.Render(" │ scale ") + accent.Render(string(a.scale)) +
		pill.Render(" │ alert ≥ ") + accent.Render(cli.FormatPercent(1+a.opts.Thresholds.AlertPct, 0))
	if a.activeTab == 1 && len(a.dims) > 0 {
		filterStr += pill.Render(" │ by ") + accent.Render(a.dims[a.dimIdx])
	}
	filterStr += pill.Render(" ")

	header := components.RenderTabBar(a.activeTab, a.tabEnabled(), w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(filterStr)

	// 2. Status bar
	loadTime := fmt.Sprintf("%.1fs", a.loadTime.Seconds())
	if a.reloading {
		loadTime = a.spinner.View()
	}
	rows := 0
	if a.res != nil {
		rows = a.res.Table.Len()
	}
	statusBar := components.RenderStatusBar(w, components.StatusInfo{
		Tier:      a.opts.Tier,
		Files:     a.files,
		Rows:      rows,
		CacheHits: a.cacheHits,
		LoadTime:  loadTime,
		Reloading: a.reloading,
	})

	// 3. Content zone, scrolled by the viewport
	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)
	content := padHeight(truncateHeight(a.viewport.View(), contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// ─── Loading ────────────────────────────────────────────────────

// loadDataCmd reads and merges the input files in a background goroutine.
// It streams ProgressMsg updates and a final DataLoadedMsg through sub.
func loadDataCmd(paths []string, noCache, reload bool, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()

			// Non-blocking send so workers aren't stalled; the next update catches up.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			aliases := loadConfigOrDefault().Columns.Aliases
			msg := DataLoadedMsg{Reload: reload}

			var lr *pipeline.LoadResult
			if !noCache {
				if cache, err := store.Open(pipeline.CachePath()); err == nil {
					cr, loadErr := pipeline.LoadWithCache(paths, cache, progressFn)
					_ = cache.Close()
					if loadErr == nil {
						lr = &cr.LoadResult
						msg.CacheHits = cr.CacheHits
					}
				}
			}
			if lr == nil {
				lr = pipeline.Load(paths, progressFn)
			}

			msg.Files = lr.ParsedFiles
			for _, f := range lr.Files {
				if f.Err != nil {
					msg.FileErrors = append(msg.FileErrors, fmt.Sprintf("%s: %v", f.Path, f.Err))
				}
			}
			msg.Raw = lr.Merge(aliases)
			msg.LoadTime = time.Since(start)
			sub <- msg
		}()

		// Block until the first message (either ProgressMsg or DataLoadedMsg)
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from the loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + 1
	}
	return -1
}

// ─── Helpers ────────────────────────────────────────────────────

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
// This ensures gaps between cards and empty lines have proper background fill.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")

	var result strings.Builder
	for i, line := range lines {
		placed := lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
		result.WriteString(placed)
		if i < len(lines)-1 {
			result.WriteString("\n")
		}
	}
	return result.String()
}
