// Copyright 2024 Gustavo C. Viegas. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/wire"
	"go.uber.org/zap"

	"github.com/gviegas/xrcube/config"
	"github.com/gviegas/xrcube/control"
	"github.com/gviegas/xrcube/diag"
	"github.com/gviegas/xrcube/driver"
	"github.com/gviegas/xrcube/driver/soft"
	"github.com/gviegas/xrcube/internal/log"
	"github.com/gviegas/xrcube/session"
	"github.com/gviegas/xrcube/texture"
	"github.com/gviegas/xrcube/xr"
	"github.com/gviegas/xrcube/xr/emulator"
)

var providerSet = wire.NewSet(
	provideLogger,
	provideDevice,
	provideDriver,
	provideTextures,
	provideHub,
	provideTable,
	provideOptions,
	provideController,
	newButton,
	wire.Bind(new(session.Button), new(*button)),
	newGame,
)

func provideLogger(cfg *config.Config) (*zap.Logger, func(), error) {
	l, err := log.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, nil, err
	}
	return l, func() { l.Sync() }, nil
}

func provideDevice(cfg *config.Config, l *zap.Logger) (*emulator.Device, error) {
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}
	ecfg := emulator.DefaultConfig()
	ecfg.Stereo = cfg.Emulator.Stereo
	ecfg.IPD = cfg.Emulator.IPD
	ecfg.FOV = cfg.Emulator.FOV
	ecfg.Width = cfg.Window.Width
	ecfg.Height = cfg.Window.Height
	if mode != xr.ImmersiveVR {
		ecfg.Stereo = false
	}
	return emulator.New(ecfg, l.Named("emulator")), nil
}

// errDriver means that the configured driver cannot
// present on the desktop.
var errDriver = errors.New("xrdesk: driver is not a software driver")

func provideDriver(cfg *config.Config, l *zap.Logger) (*soft.Driver, error) {
	name := cfg.Driver
	if name == "" {
		name = "soft"
	}
	var names []string
	for _, d := range driver.Drivers() {
		names = append(names, d.Name())
	}
	l.Debug("graphics drivers", zap.Strings("registered", names), zap.String("selected", name))
	drv, err := driver.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("xrdesk: driver %q: %w", name, err)
	}
	sd, ok := drv.(*soft.Driver)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errDriver, name)
	}
	return sd, nil
}

// provideTextures creates the texture cache and starts
// fetching the cube's texture, so that it is likely ready
// when a session starts. The cleanup cancels the fetch.
func provideTextures(cfg *config.Config, l *zap.Logger) (*texture.Cache, func()) {
	tl := l.Named("texture")
	tc := texture.NewCache(&http.Client{Timeout: 30 * time.Second}, tl)
	if cfg.Texture.URL == "" {
		return tc, func() {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		if err := tc.Preload(ctx, cfg.Texture.URL); err != nil && ctx.Err() == nil {
			tl.Warn("texture preload failed", zap.Error(err))
		}
	}()
	return tc, cancel
}

// provideHub starts the diagnostics feed if an address is
// configured. The returned hub is nil otherwise.
func provideHub(cfg *config.Config, l *zap.Logger) (*diag.Hub, func(), error) {
	if cfg.Diag.Addr == "" {
		return nil, func() {}, nil
	}
	ln, err := net.Listen("tcp", cfg.Diag.Addr)
	if err != nil {
		return nil, nil, fmt.Errorf("xrdesk: diagnostics: %w", err)
	}
	hl := l.Named("diag")
	hub := diag.NewHub(hl)
	mux := http.NewServeMux()
	mux.Handle("/diag", hub)
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			hl.Error("server stopped", zap.Error(err))
		}
	}()
	hl.Info("serving diagnostics", zap.String("addr", ln.Addr().String()))
	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		hub.Close()
		srv.Shutdown(ctx)
	}
	return hub, cleanup, nil
}

func provideTable() *diag.Table { return new(diag.Table) }

func provideOptions(cfg *config.Config, l *zap.Logger, drv *soft.Driver, tc *texture.Cache, hub *diag.Hub, tab *diag.Table) (session.Options, error) {
	mode, err := cfg.Mode()
	if err != nil {
		return session.Options{}, err
	}
	btn, err := cfg.RotateButton()
	if err != nil {
		return session.Options{}, err
	}
	return session.Options{
		Mode:       mode,
		Driver:     drv,
		Width:      cfg.Window.Width,
		Height:     cfg.Window.Height,
		Textures:   tc,
		TextureURL: cfg.Texture.URL,
		Rotate:     cfg.Cube.Rotate,
		Rates:      mgl32.Vec3(cfg.Cube.Rates),
		Scheme: control.Scheme{
			MouseSpeed:   cfg.Controls.MouseSpeed,
			MoveDistance: cfg.Controls.MoveDistance,
			RotateButton: btn,
		},
		Mouse:    cfg.Controls.Mouse,
		Keyboard: cfg.Controls.Keyboard,
		Sink:     tab,
		Hub:      hub,
		Log:      l,
	}, nil
}

func provideController(dev *emulator.Device, btn session.Button, opts session.Options) *session.Controller {
	return session.New(dev, btn, opts)
}
