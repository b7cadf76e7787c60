// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build js && wasm

package main

import (
	"syscall/js"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gviegas/xrcube/diag"
	"github.com/gviegas/xrcube/internal/jsutil"
	"github.com/gviegas/xrcube/wsi"
)

// button is a session.Button backed by a DOM button.
type button struct{ el js.Value }

func (b button) SetLabel(s string) { b.el.Set("textContent", s) }

func (b button) SetEnabled(enabled bool) { b.el.Set("disabled", !enabled) }

// selectors locate the element that displays each slot.
var selectors = [diag.NSlot]string{
	diag.Projection: "#projection-matrix div",
	diag.ModelView:  "#model-view-matrix div",
	diag.Camera:     "#camera-matrix div",
	diag.Mouse:      "#mouse-matrix div",
}

// domSink is a diag.Sink that renders the matrices as
// MathML into the page.
// Missing elements are skipped.
type domSink struct {
	els [diag.NSlot]js.Value
}

func newDOMSink(doc js.Value) *domSink {
	s := new(domSink)
	for i, sel := range selectors {
		s.els[i] = doc.Call("querySelector", sel)
	}
	return s
}

func (s *domSink) Show(slot diag.Slot, m *mgl32.Mat4) {
	if slot < 0 || slot >= diag.NSlot || !jsutil.Valid(s.els[slot]) {
		return
	}
	s.els[slot].Set("innerHTML", diag.MathML(m))
}

// modifiers reads the modifier state of a keyboard or
// mouse event.
func modifiers(e js.Value) wsi.Modifier {
	var m wsi.Modifier
	if e.Get("shiftKey").Truthy() {
		m |= wsi.ModShift
	}
	if e.Get("ctrlKey").Truthy() {
		m |= wsi.ModCtrl
	}
	if e.Get("altKey").Truthy() {
		m |= wsi.ModAlt
	}
	if gms := e.Get("getModifierState"); gms.Type() == js.TypeFunction &&
		e.Call("getModifierState", "CapsLock").Truthy() {
		m |= wsi.ModCapsLock
	}
	return m
}

// mouseButton converts MouseEvent.button.
func mouseButton(n int) wsi.Button {
	switch n {
	case 0:
		return wsi.BtnLeft
	case 1:
		return wsi.BtnMiddle
	case 2:
		return wsi.BtnRight
	case 3:
		return wsi.BtnBack
	case 4:
		return wsi.BtnForward
	}
	return wsi.BtnUnknown
}

// input is the subset of session.Controller that receives
// DOM input.
type input interface {
	wsi.KeyboardHandler
	wsi.PointerHandler
}

// listenInput forwards keyboard and mouse events of target
// to h. The context menu is suppressed so that the right
// button can rotate the view.
func listenInput(ls *jsutil.Listeners, target js.Value, h input) {
	key := func(pressed bool) func(js.Value) {
		return func(e js.Value) {
			k, err := wsi.ParseKey(e.Get("key").String())
			if err != nil {
				return
			}
			h.KeyboardKey(k, pressed, modifiers(e))
		}
	}
	ls.Add(target, "keydown", false, key(true))
	ls.Add(target, "keyup", false, key(false))

	ls.Add(target, "mousemove", false, func(e js.Value) {
		h.PointerMotion(
			float32(e.Get("movementX").Float()),
			float32(e.Get("movementY").Float()),
			wsi.ButtonMask(e.Get("buttons").Int()),
		)
	})
	ls.Add(target, "mousedown", false, func(e js.Value) {
		h.PointerButton(mouseButton(e.Get("button").Int()), true)
	})
	ls.Add(target, "mouseup", false, func(e js.Value) {
		h.PointerButton(mouseButton(e.Get("button").Int()), false)
	})
	ls.Add(target, "contextmenu", true, func(js.Value) {})
}
