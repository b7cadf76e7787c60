// Copyright 2024 Gustavo C. Viegas. All rights reserved.

//go:build js && wasm

// Package jsutil contains helpers for calling into the
// browser from Go.
package jsutil

import (
	"context"
	"errors"
	"fmt"
	"syscall/js"
	"unsafe"
)

// ErrRejected means that a promise was rejected.
var ErrRejected = errors.New("jsutil: promise rejected")

// Await blocks until p settles or ctx is done.
// It must not be called from the goroutine that runs JS
// callbacks.
func Await(ctx context.Context, p js.Value) (js.Value, error) {
	type result struct {
		v   js.Value
		err error
	}
	ch := make(chan result, 1)
	then := js.FuncOf(func(_ js.Value, args []js.Value) any {
		v := js.Undefined()
		if len(args) > 0 {
			v = args[0]
		}
		ch <- result{v: v}
		return nil
	})
	catch := js.FuncOf(func(_ js.Value, args []js.Value) any {
		msg := "unknown reason"
		if len(args) > 0 {
			msg = describe(args[0])
		}
		ch <- result{err: fmt.Errorf("%w: %s", ErrRejected, msg)}
		return nil
	})
	defer then.Release()
	defer catch.Release()
	p.Call("then", then).Call("catch", catch)
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return js.Undefined(), ctx.Err()
	}
}

func describe(v js.Value) string {
	switch {
	case v.IsUndefined(), v.IsNull():
		return v.String()
	case v.Type() == js.TypeObject && !v.Get("name").IsUndefined():
		return v.Get("name").String() + ": " + v.Get("message").String()
	}
	return v.Call("toString").String()
}

// Valid reports whether v is neither undefined nor null.
func Valid(v js.Value) bool { return !v.IsUndefined() && !v.IsNull() }

// Float32Array copies data into a new Float32Array.
func Float32Array(data []float32) js.Value {
	arr := js.Global().Get("Float32Array").New(len(data))
	if len(data) == 0 {
		return arr
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*4)
	copyInto(arr, b)
	return arr
}

// Uint16Array copies data into a new Uint16Array.
func Uint16Array(data []uint16) js.Value {
	arr := js.Global().Get("Uint16Array").New(len(data))
	if len(data) == 0 {
		return arr
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), len(data)*2)
	copyInto(arr, b)
	return arr
}

// Uint8Array copies data into a new Uint8Array.
func Uint8Array(data []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	return arr
}

func copyInto(arr js.Value, b []byte) {
	view := js.Global().Get("Uint8Array").New(arr.Get("buffer"), arr.Get("byteOffset"), arr.Get("byteLength"))
	js.CopyBytesToJS(view, b)
}

// Listeners tracks event listeners so they can be removed
// at once.
type Listeners struct {
	entries []listener
}

type listener struct {
	target js.Value
	typ    string
	fn     js.Func
}

// Add registers fn for events of type typ on target.
// If prevent is set, the event's default action is
// suppressed.
func (l *Listeners) Add(target js.Value, typ string, prevent bool, fn func(e js.Value)) {
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) == 0 {
			return nil
		}
		e := args[0]
		if prevent {
			e.Call("preventDefault")
		}
		fn(e)
		return nil
	})
	target.Call("addEventListener", typ, f)
	l.entries = append(l.entries, listener{target, typ, f})
}

// Release removes every listener.
func (l *Listeners) Release() {
	for _, e := range l.entries {
		e.target.Call("removeEventListener", e.typ, e.fn)
		e.fn.Release()
	}
	l.entries = nil
}
