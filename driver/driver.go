// Copyright 2022 Gustavo C. Viegas. All rights reserved.

// Package driver defines a set of interfaces encompassing
// the graphics functionality needed to render into an XR
// presentation layer.
// It is modeled after WebGL so that the browser backend
// can be implemented in a mostly straightforward manner,
// while other backends (software rasterization, test
// recorders) implement the same subset.
package driver

import (
	"errors"
	"sync"
)

// Driver is the interface that provides methods for
// opening graphics contexts from an underlying
// implementation.
type Driver interface {
	// Open creates a graphics context.
	// If it succeeds, further calls with the same receiver
	// and the same options must return the same Context.
	// Callers should assume that Open is not safe for
	// parallel execution.
	Open(opts Options) (Context, error)

	// Name returns the name of the driver.
	// It must not cause the driver to be opened.
	Name() string

	// Close releases the context created by Open.
	// Closing a driver that is not open has no effect.
	Close()
}

// Options configures a call to Driver.Open.
type Options struct {
	// XRCompatible requests a context whose framebuffers
	// can back an XR presentation layer.
	XRCompatible bool

	// Target identifies the drawing surface. Its meaning
	// is driver-specific (e.g., a CSS selector for the
	// browser backend). Empty means the default surface.
	Target string

	// Width and Height are the initial drawing surface
	// dimensions. Zero means driver-chosen.
	Width, Height int
}

// ErrNotInstalled means that a platform-specific facility
// required for the driver to work is not present.
var ErrNotInstalled = errors.New("driver: missing required facility")

// ErrNotRegistered means that no driver with a given name
// was registered.
var ErrNotRegistered = errors.New("driver: no such driver")

// ErrNotXRCompatible means that a context could not be made
// compatible with the XR device.
var ErrNotXRCompatible = errors.New("driver: context is not XR compatible")

// ErrCompile means that a shader failed to compile.
var ErrCompile = errors.New("driver: shader compilation failed")

// ErrLink means that a program failed to link.
var ErrLink = errors.New("driver: program link failed")

// Drivers returns the registered Drivers.
// Client code imports specific driver packages, and then
// call this function. As such, drivers that do not
// register themselves on init will not be considered for
// selection.
func Drivers() []Driver {
	mu.Lock()
	defer mu.Unlock()
	drv := make([]Driver, len(drivers))
	copy(drv, drivers)
	return drv
}

// Lookup returns the registered driver with the given name.
// An empty name selects the first registered driver.
func Lookup(name string) (Driver, error) {
	mu.Lock()
	defer mu.Unlock()
	for _, drv := range drivers {
		if name == "" || drv.Name() == name {
			return drv, nil
		}
	}
	return nil, ErrNotRegistered
}

// Register registers a Driver.
// Driver implementations are expected to call Register
// exactly once, from an init function.
// If a driver with the same name has already been
// registered, it will be replaced by drv.
func Register(drv Driver) {
	mu.Lock()
	defer mu.Unlock()
	for i := range drivers {
		if drivers[i].Name() == drv.Name() {
			drivers[i] = drv
			return
		}
	}
	drivers = append(drivers, drv)
}

// Variables used for driver registration.
var (
	mu      sync.Mutex
	drivers []Driver = make([]Driver, 0, 2)
)
