package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/bionichand/pkg/follow"
	"github.com/gwillem/bionichand/pkg/hand"
	"github.com/gwillem/bionichand/pkg/ring"
)

type FollowCommand struct {
	Hz   int    `long:"hz" default:"2" description:"Ring polling frequency"`
	Ring string `long:"ring" description:"Ring address (default: from config, else the first ring found)"`
}

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
)

const closedDataSet = "closed"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	lineStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("201"))
)

type followModel struct {
	ctrl     *follow.Controller
	chart    *streamlinechart.Model
	ringName string
	battery  int // -1 if unknown
	percent  float64
	width    int      // terminal width
	height   int      // terminal height
	logs     []string // last N log messages
	quitting bool
}

func (m *followModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// Messages from the controller
type stateMsg follow.State
type logMsg string

func waitForState(ctrl *follow.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(ctrl *follow.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *followModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

func (m *followModel) resizeChart() {
	w, h := m.chartSize()
	m.chart.Resize(w, h)
}

func initialFollowModel(ctrl *follow.Controller, ringName string, battery int) followModel {
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(0, 100),
	)
	chart.SetDataSetStyles(closedDataSet, runes.ThinLineStyle, lineStyle)

	return followModel{
		ctrl:     ctrl,
		chart:    &chart,
		ringName: ringName,
		battery:  battery,
	}
}

func (m followModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.ctrl),
	)
}

func (m followModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizeChart()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", " ", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case stateMsg:
		state := follow.State(msg)
		if state.Error == nil {
			m.percent = state.Percent
			m.chart.PushDataSet(closedDataSet, state.Percent)
			m.chart.DrawAll()
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)
	}

	return m, nil
}

func (m followModel) View() string {
	if m.quitting {
		return "Following stopped.\n"
	}

	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Bionic Hand Follow"))
	sb.WriteString(fmt.Sprintf(" - %s - %d Hz", m.ringName, m.ctrl.Hz()))
	if m.battery >= 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  battery %d%%", m.battery)))
	}
	sb.WriteString("\n\n")

	// Chart
	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")

	// Legend
	legend := lipgloss.NewStyle().Foreground(lipgloss.Color("201")).Bold(true).Render("━━")
	sb.WriteString(fmt.Sprintf("%s closed %5.1f%%", legend, m.percent))
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(m.width - 4).
		Foreground(lipgloss.Color("9")) // bright red

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("Press 'q' or space to stop")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (c *FollowCommand) Execute(args []string) error {
	config := loadConfig()
	logger := newLogger()
	defer logger.Sync()

	address := c.Ring
	if address == "" {
		address = config.Ring.Address
	}

	h, err := hand.Connect(config, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to hand: %v\n", err)
		os.Exit(1)
	}
	defer h.Close()

	fmt.Println("Connecting to ring...")
	client, err := ring.Connect(context.Background(), ring.Config{
		Address: address,
		Logger:  logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to ring: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	battery := -1
	bctx, bcancel := context.WithTimeout(context.Background(), 3*time.Second)
	if level, err := client.BatteryLevel(bctx); err == nil {
		battery = level
	}
	bcancel()

	ringName := config.Ring.Name
	if ringName == "" || client.Address() != config.Ring.Address {
		ringName = client.Address()
	}

	ctrl := follow.NewController(client, h, follow.Config{
		Hz:     c.Hz,
		Logger: logger,
	})

	// Start controller in background
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ctrl.Start(ctx)
	}()

	// Run TUI
	p := tea.NewProgram(initialFollowModel(ctrl, ringName, battery), tea.WithAltScreen())
	_, runErr := p.Run()

	// Wait for the controller to switch the ring's sensor off
	cancel()
	if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "Follow error: %v\n", err)
	}

	if runErr != nil {
		return fmt.Errorf("run program: %w", runErr)
	}
	return nil
}
