package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"

	"github.com/gwillem/bionichand/pkg/hand"
	"github.com/gwillem/bionichand/pkg/servo"
)

type InfoCommand struct {
	Port string `long:"port" description:"Serial port (default: from config)"`
}

type servoInfo struct {
	id       int
	finger   hand.FingerName
	right    bool
	center   int
	model    string
	position int
	moving   bool
	err      error
}

func (c *InfoCommand) Execute(args []string) error {
	var config *hand.Config
	if c.Port != "" && !hand.ConfigExistsAt(opts.Config) {
		config = hand.DefaultConfig()
	} else {
		config = loadConfig()
	}
	if c.Port != "" {
		config.Port = c.Port
	}

	profile, err := config.ServoProfile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
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

	fmt.Println(headerStyle.Render("Bionic Hand"))
	fmt.Printf("%s  %s profile\n\n", config.Port, profile.Name)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var infos []servoInfo
	for _, id := range config.Calibration.ServoIDs() {
		infos = append(infos, readServoInfo(ctx, ctrl, config.Calibration, id))
	}

	fmt.Println(renderServoTable(infos))
	return nil
}

func readServoInfo(ctx context.Context, ctrl *servo.Controller, cal hand.Calibration, id int) servoInfo {
	info := servoInfo{id: id}
	if name, right, ok := cal.ByID(id); ok {
		info.finger = name
		info.right = right
		info.center = cal[name].LeftCenter
		if right {
			info.center = cal[name].RightCenter
		}
	}

	modelNum, err := ctrl.Ping(ctx, id)
	if err != nil {
		info.err = err
		return info
	}
	info.model = fmt.Sprintf("#%d", modelNum)
	if m, ok := feetech.GetModelByNumber(modelNum); ok {
		info.model = m.Name
	}

	if info.position, err = ctrl.Position(ctx, id); err != nil {
		info.err = err
		return info
	}
	if info.moving, err = ctrl.IsMoving(ctx, id); err != nil {
		info.err = err
	}
	return info
}

func renderServoTable(infos []servoInfo) string {
	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		side := "left"
		if info.right {
			side = "right"
		}
		status := "ok"
		position, moving := "-", "-"
		if info.err != nil {
			status = info.err.Error()
		} else {
			position = fmt.Sprintf("%d", info.position)
			moving = fmt.Sprintf("%t", info.moving)
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", info.id),
			string(info.finger),
			side,
			info.model,
			position,
			fmt.Sprintf("%d", info.center),
			moving,
			status,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("ID", "Finger", "Side", "Model", "Position", "Centre", "Moving", "Status").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 7 && row >= 0 && row < len(infos) {
				if infos[row].err != nil {
					return errStyle
				}
				return okStyle
			}
			return tableCellStyle
		})

	return t.Render()
}
