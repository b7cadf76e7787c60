// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package config loads the application configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gviegas/xrcube/internal/log"
	"github.com/gviegas/xrcube/wsi"
	"github.com/gviegas/xrcube/xr"
)

// DefaultTextureURL is the image mapped onto the cube
// unless configured otherwise.
const DefaultTextureURL = "https://cdn.glitch.com/a9381af1-18a9-495e-ad01-afddfd15d000%2Ffirefox-logo-solid.png?v=1575659351244"

// ErrInvalid means that a configuration value is out of
// range.
var ErrInvalid = errors.New("config: invalid value")

// Config is the application configuration.
type Config struct {
	Session  Session  `yaml:"session"`
	Driver   string   `yaml:"driver"`
	Texture  Texture  `yaml:"texture"`
	Cube     Cube     `yaml:"cube"`
	Controls Controls `yaml:"controls"`
	Log      Log      `yaml:"log"`
	Diag     Diag     `yaml:"diag"`
	Window   Window   `yaml:"window"`
	Emulator Emulator `yaml:"emulator"`
}

// Session configures the XR session.
type Session struct {
	// Mode is a WebXR session mode name.
	Mode string `yaml:"mode"`
}

// Texture configures the cube's texture.
type Texture struct {
	URL string `yaml:"url"`
}

// Cube configures the rendered cube.
type Cube struct {
	Rotate bool `yaml:"rotate"`
	// Rates are rotation speeds about X, Y and Z, in
	// degrees per second.
	Rates [3]float32 `yaml:"rates,flow"`
}

// Controls configures the viewer controls.
type Controls struct {
	Mouse        bool    `yaml:"mouse"`
	Keyboard     bool    `yaml:"keyboard"`
	MouseSpeed   float32 `yaml:"mouse_speed"`
	MoveDistance float32 `yaml:"move_distance"`
	RotateButton string  `yaml:"rotate_button"`
}

// Log configures logging.
type Log struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Diag configures the diagnostics feed.
type Diag struct {
	// Addr is the address the websocket feed listens on.
	// Empty disables the feed.
	Addr string `yaml:"addr"`
}

// Window configures the desktop window.
type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// Emulator configures the emulated headset.
type Emulator struct {
	Stereo bool    `yaml:"stereo"`
	IPD    float32 `yaml:"ipd"`
	FOV    float32 `yaml:"fov"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Session: Session{Mode: xr.ImmersiveVR.String()},
		Texture: Texture{URL: DefaultTextureURL},
		Cube: Cube{
			Rotate: true,
			Rates:  [3]float32{25, 15, 35},
		},
		Controls: Controls{
			Mouse:        true,
			Keyboard:     true,
			MouseSpeed:   0.003,
			MoveDistance: 0.1,
			RotateButton: wsi.BtnRight.String(),
		},
		Log: Log{Level: "info", Encoding: "console"},
		Window: Window{
			Title:  "xrcube",
			Width:  800,
			Height: 600,
		},
		Emulator: Emulator{IPD: 0.064, FOV: 60},
	}
}

// Load decodes a YAML configuration from r.
// Fields absent from the input keep their default values.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile loads the configuration file at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks that every value is within range.
func (c *Config) Validate() error {
	if _, err := c.Mode(); err != nil {
		return fmt.Errorf("%w: session mode %q", ErrInvalid, c.Session.Mode)
	}
	if _, err := c.RotateButton(); err != nil {
		return fmt.Errorf("%w: rotate button %q", ErrInvalid, c.Controls.RotateButton)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalid, c.Log.Level)
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return fmt.Errorf("%w: log encoding %q", ErrInvalid, c.Log.Encoding)
	}
	if c.Controls.MouseSpeed <= 0 {
		return fmt.Errorf("%w: mouse speed %v", ErrInvalid, c.Controls.MouseSpeed)
	}
	if c.Controls.MoveDistance <= 0 {
		return fmt.Errorf("%w: move distance %v", ErrInvalid, c.Controls.MoveDistance)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Emulator.IPD < 0 {
		return fmt.Errorf("%w: IPD %v", ErrInvalid, c.Emulator.IPD)
	}
	if c.Emulator.FOV <= 0 || c.Emulator.FOV >= 180 {
		return fmt.Errorf("%w: field of view %v", ErrInvalid, c.Emulator.FOV)
	}
	return nil
}

// Mode returns the configured session mode.
func (c *Config) Mode() (xr.Mode, error) { return xr.ParseMode(c.Session.Mode) }

// RotateButton returns the configured rotate button.
func (c *Config) RotateButton() (wsi.Button, error) {
	return wsi.ParseButton(c.Controls.RotateButton)
}
