// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build js && wasm

// Command xrcube presents a rotating textured cube in a
// WebXR session. It is built for GOOS=js GOARCH=wasm and
// expects a page with an #enter-xr button and the
// diagnostic regions #projection-matrix, #model-view-matrix,
// #camera-matrix and #mouse-matrix.
package main

import (
	"context"
	"net/http"
	"syscall/js"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/gviegas/xrcube/config"
	"github.com/gviegas/xrcube/control"
	"github.com/gviegas/xrcube/driver"
	_ "github.com/gviegas/xrcube/driver/webgl"
	"github.com/gviegas/xrcube/internal/jsutil"
	"github.com/gviegas/xrcube/internal/log"
	"github.com/gviegas/xrcube/session"
	"github.com/gviegas/xrcube/speech"
	"github.com/gviegas/xrcube/texture"
	"github.com/gviegas/xrcube/xr/webxr"
)

func main() {
	cfg := config.Default()
	cfg.Driver = "webgl"
	l, err := log.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		panic(err)
	}

	doc := js.Global().Get("document")
	el := doc.Call("querySelector", "#enter-xr")
	if !jsutil.Valid(el) {
		l.Fatal("missing #enter-xr button")
	}
	btn := button{el}
	btn.SetLabel(session.LabelEnter)
	btn.SetEnabled(false)

	dev, err := webxr.New(l.Named("webxr"))
	if err != nil {
		l.Error("WebXR unavailable", zap.Error(err))
		select {}
	}
	var names []string
	for _, d := range driver.Drivers() {
		names = append(names, d.Name())
	}
	l.Debug("graphics drivers", zap.Strings("registered", names), zap.String("selected", cfg.Driver))
	drv, err := driver.Lookup(cfg.Driver)
	if err != nil {
		l.Fatal("no graphics driver", zap.Error(err))
	}
	mode, err := cfg.Mode()
	if err != nil {
		l.Fatal("bad configuration", zap.Error(err))
	}
	rb, err := cfg.RotateButton()
	if err != nil {
		l.Fatal("bad configuration", zap.Error(err))
	}

	tc := texture.NewCache(http.DefaultClient, l.Named("texture"))
	go func() {
		if cfg.Texture.URL == "" {
			return
		}
		if err := tc.Preload(context.Background(), cfg.Texture.URL); err != nil {
			l.Warn("texture preload failed", zap.Error(err))
		}
	}()

	ctrl := session.New(dev, btn, session.Options{
		Mode:       mode,
		Driver:     drv,
		Textures:   tc,
		TextureURL: cfg.Texture.URL,
		Rotate:     cfg.Cube.Rotate,
		Rates:      mgl32.Vec3(cfg.Cube.Rates),
		Scheme: control.Scheme{
			MouseSpeed:   cfg.Controls.MouseSpeed,
			MoveDistance: cfg.Controls.MoveDistance,
			RotateButton: rb,
		},
		Mouse:    cfg.Controls.Mouse,
		Keyboard: cfg.Controls.Keyboard,
		Sink:     newDOMSink(doc),
		Log:      l,
	})

	ctx := context.Background()
	// Session requests await promises, which must not
	// happen on the event callback itself.
	toggle := func() {
		go func() {
			if err := ctrl.Toggle(ctx); err != nil {
				l.Warn("session toggle failed", zap.Error(err))
			}
		}()
	}

	var ls jsutil.Listeners
	ls.Add(el, "click", false, func(js.Value) { toggle() })
	listenInput(&ls, js.Global().Get("window"), ctrl)

	rec, err := speech.NewRecognizer(speech.NewDispatcher(l.Named("speech")))
	if err != nil {
		l.Info("speech control disabled", zap.Error(err))
	} else if err := rec.Track(el, toggle); err != nil {
		l.Warn("speech control disabled", zap.Error(err))
	} else {
		rec.Start()
	}

	if err := ctrl.Setup(ctx); err != nil {
		l.Error("session setup failed", zap.Error(err))
	}
	select {}
}
