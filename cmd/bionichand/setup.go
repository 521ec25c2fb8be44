package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/gwillem/bionichand/pkg/hand"
	"github.com/gwillem/bionichand/pkg/ring"
	"github.com/gwillem/bionichand/pkg/scs"
	"github.com/gwillem/bionichand/pkg/servo"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

const scanTimeout = 100 * time.Millisecond

type SetupCommand struct {
	Port     string `long:"port" description:"Serial port of the hand (default: scan all ports)"`
	SkipRing bool   `long:"skip-ring" description:"Do not look for a ring"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Bionic Hand Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━"))
	fmt.Println()

	config := hand.DefaultConfig()
	if hand.ConfigExistsAt(opts.Config) {
		existing, err := hand.LoadConfigFrom(opts.Config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config = existing
		fmt.Printf("Updating %s\n\n", opts.Config)
	}

	// Step 1: Find the hand
	config.Port = c.Port
	if config.Port == "" {
		config.Port = scanForHand(config)
	}
	fmt.Println(successStyle.Render("Hand on " + config.Port))

	if err := config.SaveTo(opts.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	// Step 2: Finger centres
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Calibrating Finger Centres ━━━"))
	fmt.Println()
	if confirm("Record finger centres now?", "Skip to keep the current centres") {
		calibrateCenters(config)
		if err := config.SaveTo(opts.Config); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
	}

	// Step 3: Ring
	if !c.SkipRing {
		fmt.Println()
		fmt.Println(subHeaderStyle.Render("━━━ Pairing Ring ━━━"))
		fmt.Println()
		pairRing(config)
		if err := config.SaveTo(opts.Config); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
			os.Exit(1)
		}
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Try a gesture with: " + headerStyle.Render("bionichand gesture victory"))
	if config.Ring.Address != "" {
		fmt.Println("Follow the ring with: " + headerStyle.Render("bionichand follow"))
	}

	return nil
}

func scanForHand(config *hand.Config) string {
	fmt.Println("Scanning for the hand...")
	fmt.Println()

	ports := findHands(config)
	switch len(ports) {
	case 0:
		fmt.Println("No hand found.")
		fmt.Println("Make sure the servo board is connected and powered on.")
		os.Exit(1)
	case 1:
		return ports[0]
	}

	options := make([]huh.Option[string], 0, len(ports))
	for _, port := range ports {
		options = append(options, huh.NewOption(port, port))
	}

	var port string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the hand on?").
				Description(fmt.Sprintf("Found %d ports with 8 servos", len(ports))).
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return port
}

// findHands returns the serial ports answering on every servo ID of the
// calibration.
func findHands(config *hand.Config) []string {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	ids := config.Calibration.ServoIDs()
	var hands []string

	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}

		ctrl, err := servo.New(servo.Config{
			Port:     port,
			BaudRate: config.BaudRate,
			Timeout:  scanTimeout,
		})
		if err != nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		servos, err := ctrl.Scan(ctx, minID(ids), maxID(ids))
		cancel()
		ctrl.Close()

		if err != nil {
			continue
		}
		if isHand(servos, ids) {
			fmt.Printf("  Found hand on %s\n", port)
			hands = append(hands, port)
		}
	}

	return hands
}

func isHand(servos []feetech.FoundServo, ids []int) bool {
	found := make(map[int]bool)
	for _, s := range servos {
		found[s.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return false
		}
	}
	return len(ids) > 0
}

func minID(ids []int) int {
	m := int(scs.MaxServoID)
	for _, id := range ids {
		m = min(m, id)
	}
	return m
}

func maxID(ids []int) int {
	m := 0
	for _, id := range ids {
		m = max(m, id)
	}
	return m
}

func calibrateCenters(config *hand.Config) {
	profile, err := config.ServoProfile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !profile.CenterOverride {
		fmt.Printf("The %s profile uses a fixed centre; nothing to record.\n", profile.Name)
		return
	}

	logger := newLogger()
	defer logger.Sync()

	ctrl, err := servo.New(servo.Config{
		Port:     config.Port,
		BaudRate: config.BaudRate,
		Profile:  profile,
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to hand: %v\n", err)
		os.Exit(1)
	}
	defer ctrl.Close()

	// Release all servos so the fingers can be moved by hand
	ctx := context.Background()
	if err := ctrl.SetTorque(ctx, int(scs.BroadcastID), false); err != nil {
		fmt.Fprintf(os.Stderr, "Error releasing servos: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Servos released. Move every finger to its centre position:")
	fmt.Println("half way between open and closed, both pulleys at rest.")
	fmt.Println()

	ids := config.Calibration.ServoIDs()
	model := newCalibrationModel(ctrl, config.Calibration)
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		holdServos(ctx, ctrl, ids, nil)
		fmt.Fprintf(os.Stderr, "Error running calibration: %v\n", err)
		os.Exit(1)
	}

	cm := finalModel.(calibrationModel)
	holdServos(ctx, ctrl, ids, cm.positions)
	if !cm.done {
		fmt.Println("Calibration cancelled, centres unchanged.")
		return
	}

	for _, name := range hand.AllFingers() {
		fc := config.Calibration[name]
		if pos, ok := cm.positions[fc.RightID]; ok {
			fc.RightCenter = pos
		}
		if pos, ok := cm.positions[fc.LeftID]; ok {
			fc.LeftCenter = pos
		}
		config.Calibration[name] = fc
	}

	fmt.Println("Finger centres recorded.")
}

// servoHolder is the part of *servo.Controller that holds a servo in place.
type servoHolder interface {
	MoveAngleWithCenter(ctx context.Context, id int, degree float64, center int) error
	SetTorque(ctx context.Context, id int, enabled bool) error
}

// holdServos re-enables torque on ids. A servo with a known position is first
// given that position as its goal (0 degrees around it) so it does not jump.
func holdServos(ctx context.Context, s servoHolder, ids []int, positions map[int]int) {
	for _, id := range ids {
		if pos, ok := positions[id]; ok {
			if err := s.MoveAngleWithCenter(ctx, id, 0, pos); err != nil {
				fmt.Printf("  Servo %d: %v\n", id, err)
			}
		}
		if err := s.SetTorque(ctx, id, true); err != nil {
			fmt.Printf("  Servo %d: %v\n", id, err)
		}
	}
}

func pairRing(config *hand.Config) {
	if config.Ring.Address != "" {
		fmt.Printf("Currently paired with %s (%s)\n", config.Ring.Name, config.Ring.Address)
	}
	if !confirm("Look for a Colmi ring?", "Wear the ring and make sure it is not connected to your phone") {
		return
	}

	fmt.Println("Scanning for rings...")
	devices, err := ring.Scan(context.Background(), nil, 10*time.Second)
	if err != nil {
		fmt.Printf("Error scanning: %v\n", err)
		return
	}
	if len(devices) == 0 {
		fmt.Println("No ring found.")
		return
	}

	options := make([]huh.Option[string], 0, len(devices)+1)
	for _, d := range devices {
		label := fmt.Sprintf("%s  %s  %d dBm", d.Name, d.Address, d.RSSI)
		options = append(options, huh.NewOption(label, d.Address))
	}
	options = append(options, huh.NewOption("Skip", "skip"))

	var address string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which ring should the hand follow?").
				Description("Strongest signal first").
				Options(options...).
				Value(&address),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	if address == "skip" {
		return
	}

	for _, d := range devices {
		if d.Address == address {
			config.Ring = hand.RingConfig{Address: d.Address, Name: d.Name}
		}
	}
	fmt.Println(successStyle.Render("Ring paired: " + config.Ring.Name))
}

func confirm(title, description string) bool {
	ok := true
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Affirmative("Yes").
				Negative("Skip").
				Value(&ok),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return ok
}

// Calibration TUI model
type calibrationModel struct {
	ctrl      *servo.Controller
	cal       hand.Calibration
	positions map[int]int
	done      bool
	quitting  bool
}

type tickMsg time.Time

func newCalibrationModel(ctrl *servo.Controller, cal hand.Calibration) calibrationModel {
	return calibrationModel{
		ctrl:      ctrl,
		cal:       cal,
		positions: make(map[int]int),
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			m.done = len(m.positions) == len(m.cal.ServoIDs())
			if !m.done {
				return m, nil
			}
			m.quitting = true
			return m, tea.Quit
		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for _, id := range m.cal.ServoIDs() {
			pos, err := m.ctrl.Position(ctx, id)
			if err != nil {
				continue
			}
			m.positions[id] = pos
		}
		return m, tick()
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableFingerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)

	fingers := hand.AllFingers()
	rows := make([][]string, 0, len(fingers))
	for _, name := range fingers {
		fc := m.cal[name]
		rows = append(rows, []string{
			string(name),
			m.position(fc.RightID),
			fmt.Sprintf("%d", fc.RightCenter),
			m.position(fc.LeftID),
			fmt.Sprintf("%d", fc.LeftCenter),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Finger", "Right", "Saved", "Left", "Saved").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableFingerStyle
			case 1, 3:
				return tableCurrentStyle
			default:
				return tableCellStyle
			}
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter to record, q to cancel"))

	return sb.String()
}

func (m calibrationModel) position(id int) string {
	pos, ok := m.positions[id]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%d", pos)
}
