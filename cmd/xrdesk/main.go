// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Command xrdesk presents the cube on the desktop, through
// an emulated headset and the software driver.
//
// Enter starts and ends the session. While it runs, W/S,
// A/D and the arrow keys move the viewer, R resets it and
// dragging with the rotate button held turns it.
// Diagnostic matrices are printed over the scene and,
// when diag.addr is set, streamed as JSON over a websocket
// at /diag.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/gviegas/xrcube/config"
)

func main() {
	path := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	if err := run(*path); err != nil {
		fmt.Fprintln(os.Stderr, "xrdesk:", err)
		os.Exit(1)
	}
}

func run(path string) error {
	cfg := config.Default()
	cfg.Driver = "soft"
	if path != "" {
		var err error
		if cfg, err = config.LoadFile(path); err != nil {
			return err
		}
	}

	g, cleanup, err := initGame(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}
