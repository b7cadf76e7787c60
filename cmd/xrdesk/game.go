// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"go.uber.org/zap"

	"github.com/gviegas/xrcube/config"
	"github.com/gviegas/xrcube/diag"
	"github.com/gviegas/xrcube/driver/soft"
	"github.com/gviegas/xrcube/session"
	"github.com/gviegas/xrcube/wsi"
	"github.com/gviegas/xrcube/xr/emulator"
)

// button is the on-screen session toggle.
// Enter presses it.
type button struct {
	label   string
	enabled bool
}

func newButton() *button { return new(button) }

func (b *button) SetLabel(s string)       { b.label = s }
func (b *button) SetEnabled(enabled bool) { b.enabled = enabled }

func (b *button) String() string {
	if !b.enabled {
		return "[" + b.label + "] (unavailable)"
	}
	return "[" + b.label + "] (Enter)"
}

// keys maps the polled keys to wsi keys.
var keys = map[ebiten.Key]wsi.Key{
	ebiten.KeyW:          wsi.KeyW,
	ebiten.KeyA:          wsi.KeyA,
	ebiten.KeyS:          wsi.KeyS,
	ebiten.KeyD:          wsi.KeyD,
	ebiten.KeyR:          wsi.KeyR,
	ebiten.KeyArrowUp:    wsi.KeyUp,
	ebiten.KeyArrowDown:  wsi.KeyDown,
	ebiten.KeyArrowLeft:  wsi.KeyLeft,
	ebiten.KeyArrowRight: wsi.KeyRight,
}

// buttons maps the polled mouse buttons to wsi buttons.
var buttons = map[ebiten.MouseButton]wsi.Button{
	ebiten.MouseButtonLeft:   wsi.BtnLeft,
	ebiten.MouseButtonRight:  wsi.BtnRight,
	ebiten.MouseButtonMiddle: wsi.BtnMiddle,
}

// Key repeat, in ticks, mimicking a browser's keydown
// repetition.
const (
	repeatDelay    = 30
	repeatInterval = 3
)

// repeats reports whether a key held for d ticks produces
// a press event in the current tick.
func repeats(d int) bool {
	return d == 1 || (d >= repeatDelay && (d-repeatDelay)%repeatInterval == 0)
}

// game implements ebiten.Game.
// Update polls input and advances the emulated device,
// which renders into the software surface; Draw presents
// the surface.
type game struct {
	cfg  *config.Config
	ctrl *session.Controller
	dev  *emulator.Device
	drv  *soft.Driver
	btn  *button
	tab  *diag.Table
	log  *zap.Logger

	ctx    context.Context
	start  time.Time
	cx, cy int
	setup  bool
}

func newGame(cfg *config.Config, ctrl *session.Controller, dev *emulator.Device, drv *soft.Driver, btn *button, tab *diag.Table, log *zap.Logger) *game {
	return &game{
		cfg:  cfg,
		ctrl: ctrl,
		dev:  dev,
		drv:  drv,
		btn:  btn,
		tab:  tab,
		log:  log,
		ctx:  context.Background(),
	}
}

func (g *game) Update() error {
	if !g.setup {
		if err := g.ctrl.Setup(g.ctx); err != nil {
			return err
		}
		g.start = time.Now()
		g.cx, g.cy = ebiten.CursorPosition()
		g.setup = true
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) && g.btn.enabled {
		if err := g.ctrl.Toggle(g.ctx); err != nil {
			g.log.Warn("toggle failed", zap.Error(err))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) && g.ctrl.State() == session.Active {
		if err := g.ctrl.End(); err != nil {
			g.log.Warn("end failed", zap.Error(err))
		}
	}
	g.pollInput()

	g.dev.Tick(time.Since(g.start))
	return nil
}

func modifiers() wsi.Modifier {
	var m wsi.Modifier
	if ebiten.IsKeyPressed(ebiten.KeyShift) {
		m |= wsi.ModShift
	}
	if ebiten.IsKeyPressed(ebiten.KeyControl) {
		m |= wsi.ModCtrl
	}
	if ebiten.IsKeyPressed(ebiten.KeyAlt) {
		m |= wsi.ModAlt
	}
	return m
}

func (g *game) pollInput() {
	mod := modifiers()
	for ek, k := range keys {
		if repeats(inpututil.KeyPressDuration(ek)) {
			g.ctrl.KeyboardKey(k, true, mod)
		} else if inpututil.IsKeyJustReleased(ek) {
			g.ctrl.KeyboardKey(k, false, mod)
		}
	}

	var held wsi.ButtonMask
	for eb, b := range buttons {
		switch {
		case inpututil.IsMouseButtonJustPressed(eb):
			g.ctrl.PointerButton(b, true)
		case inpututil.IsMouseButtonJustReleased(eb):
			g.ctrl.PointerButton(b, false)
		}
		if ebiten.IsMouseButtonPressed(eb) {
			held |= b.Mask()
		}
	}

	x, y := ebiten.CursorPosition()
	if dx, dy := x-g.cx, y-g.cy; dx != 0 || dy != 0 {
		g.ctrl.PointerMotion(float32(dx), float32(dy), held)
	}
	g.cx, g.cy = x, y
}

func (g *game) Draw(screen *ebiten.Image) {
	if g.ctrl.State() == session.Active {
		if ctx := g.drv.Context(); ctx != nil {
			if sf, ok := ctx.Surface().(*soft.EbitenSurface); ok {
				img := sf.Image()
				var op ebiten.DrawImageOptions
				sw, sh := screen.Bounds().Dx(), screen.Bounds().Dy()
				iw, ih := img.Bounds().Dx(), img.Bounds().Dy()
				op.GeoM.Scale(float64(sw)/float64(iw), float64(sh)/float64(ih))
				op.Filter = ebiten.FilterLinear
				screen.DrawImage(img, &op)
			}
		}
	}
	ebitenutil.DebugPrint(screen, g.overlay())
}

// overlay returns the text drawn over the scene.
func (g *game) overlay() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  frames %d\n", g.btn, g.ctrl.State(), g.ctrl.Frames())
	if g.ctrl.State() == session.Active {
		fmt.Fprintf(&b, "session %s\n\n", g.ctrl.ID())
		b.WriteString(g.tab.String())
	}
	return b.String()
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Window.Width, g.cfg.Window.Height
}
