package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/gwillem/bionichand/pkg/hand"
)

type GestureCommand struct {
	List bool `short:"l" long:"list" description:"List available gestures"`

	Args struct {
		Names []string `positional-arg-name:"gesture" description:"Gestures to perform, in order"`
	} `positional-args:"yes"`
}

func (c *GestureCommand) Execute(args []string) error {
	if c.List || len(c.Args.Names) == 0 {
		listGestures()
		return nil
	}

	var sequence []hand.Gesture
	for _, name := range c.Args.Names {
		g, ok := hand.Lookup(name)
		if !ok {
			fmt.Fprintf(os.Stderr, "Unknown gesture %q. Use --list to see all gestures.\n", name)
			os.Exit(1)
		}
		sequence = append(sequence, g)
	}

	config := loadConfig()
	logger := newLogger()
	defer logger.Sync()

	h, err := hand.Connect(config, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to hand: %v\n", err)
		os.Exit(1)
	}
	defer h.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, g := range sequence {
		fmt.Printf("%s %s\n", headerStyle.Render(g.Name), dimStyle.Render(g.Description))
		if err := h.Perform(ctx, g); err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("Interrupted.")
				return nil
			}
			return err
		}
	}
	return nil
}

func listGestures() {
	fmt.Println(headerStyle.Render("Gestures"))
	for _, name := range hand.GestureNames() {
		g, _ := hand.Lookup(name)
		fmt.Printf("  %-10s %s\n", name, dimStyle.Render(g.Description))
	}
}
