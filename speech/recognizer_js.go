// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build js && wasm

package speech

import (
	"errors"
	"syscall/js"

	"github.com/gviegas/xrcube/internal/jsutil"
)

// ErrUnavailable means that the browser has no speech
// recognition.
var ErrUnavailable = errors.New("speech: recognition is not available")

// Recognizer feeds the browser's continuous speech
// recognition into a Dispatcher.
type Recognizer struct {
	v        js.Value
	onResult js.Func
	hover    jsutil.Listeners
	d        *Dispatcher
}

// NewRecognizer creates a Recognizer that dispatches to d.
func NewRecognizer(d *Dispatcher) (*Recognizer, error) {
	ctor := js.Global().Get("SpeechRecognition")
	if !jsutil.Valid(ctor) {
		ctor = js.Global().Get("webkitSpeechRecognition")
	}
	if !jsutil.Valid(ctor) {
		return nil, ErrUnavailable
	}
	r := &Recognizer{v: ctor.New(), d: d}
	r.v.Set("continuous", true)
	r.onResult = js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		d.Dispatch(results(args[0].Get("results")))
		return nil
	})
	r.v.Set("onresult", r.onResult)
	return r, nil
}

func results(list js.Value) []Result {
	n := list.Get("length").Int()
	res := make([]Result, 0, n)
	for i := 0; i < n; i++ {
		r := list.Index(i)
		var alt js.Value
		if r.Get("length").Int() > 0 {
			alt = r.Index(0)
		}
		x := Result{Final: r.Get("isFinal").Truthy()}
		if jsutil.Valid(alt) {
			x.Transcript = alt.Get("transcript").String()
			x.Confidence = float32(alt.Get("confidence").Float())
		}
		res = append(res, x)
	}
	return res
}

// Track registers click as the handler of the DOM element
// el and follows the pointer entering and leaving it.
// el's id attribute identifies it.
func (r *Recognizer) Track(el js.Value, click func()) error {
	id := el.Get("id").String()
	if err := r.d.Register(id, click); err != nil {
		return err
	}
	r.hover.Add(el, "mouseover", false, func(js.Value) { r.d.SetHover(id, true) })
	r.hover.Add(el, "mouseout", false, func(js.Value) { r.d.SetHover(id, false) })
	return nil
}

// Start starts listening.
func (r *Recognizer) Start() { r.v.Call("start") }

// Stop stops listening and releases the callbacks.
func (r *Recognizer) Stop() {
	r.v.Call("stop")
	r.v.Set("onresult", js.Null())
	r.onResult.Release()
	r.hover.Release()
}
