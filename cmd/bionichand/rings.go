package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"go.uber.org/zap"

	"github.com/gwillem/bionichand/pkg/hand"
	"github.com/gwillem/bionichand/pkg/ring"
)

type RingsCommand struct {
	Timeout time.Duration `short:"t" long:"timeout" default:"10s" description:"How long to scan"`
	Battery bool          `short:"b" long:"battery" description:"Connect to each ring and read its battery level"`
}

func (c *RingsCommand) Execute(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var paired string
	if hand.ConfigExistsAt(opts.Config) {
		if config, err := hand.LoadConfigFrom(opts.Config); err == nil {
			paired = config.Ring.Address
		}
	}

	fmt.Printf("Scanning for rings (%s)...\n", c.Timeout)
	devices, err := ring.Scan(ctx, nil, c.Timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning: %v\n", err)
		os.Exit(1)
	}
	if len(devices) == 0 {
		fmt.Println("No rings found.")
		return nil
	}

	logger := newLogger()
	defer logger.Sync()

	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		battery := "-"
		if c.Battery {
			battery = readBattery(ctx, d.Address, logger)
		}
		mark := ""
		if d.Address == paired {
			mark = "paired"
		}
		rows = append(rows, []string{
			d.Name,
			d.Address,
			fmt.Sprintf("%d dBm", d.RSSI),
			battery,
			mark,
		})
	}

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	pairedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Name", "Address", "Signal", "Battery", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col == 4 {
				return pairedStyle
			}
			return tableCellStyle
		})

	fmt.Println(t.Render())
	return nil
}

func readBattery(ctx context.Context, address string, logger *zap.Logger) string {
	client, err := ring.Connect(ctx, ring.Config{
		Address:     address,
		ScanTimeout: 10 * time.Second,
		Logger:      logger,
	})
	if err != nil {
		return "error"
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	level, err := client.BatteryLevel(ctx)
	if err != nil {
		return "error"
	}
	return fmt.Sprintf("%d%%", level)
}
