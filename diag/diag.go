// Copyright 2024 Gustavo C. Viegas. All rights reserved.

// Package diag renders the live transform matrices of a
// frame as human-readable tables and delivers them to
// diagnostic displays.
package diag

import (
	"strconv"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Slot identifies one of the diagnostic displays.
type Slot int

// Diagnostic displays.
const (
	Projection Slot = iota
	ModelView
	Camera
	Mouse
	NSlot
)

// String returns the slot's name.
func (s Slot) String() string {
	switch s {
	case Projection:
		return "projection"
	case ModelView:
		return "model-view"
	case Camera:
		return "camera"
	case Mouse:
		return "mouse"
	}
	return "unknown"
}

// Sink is the interface that receives matrices to display.
type Sink interface {
	Show(slot Slot, m *mgl32.Mat4)
}

// Cell formats a matrix entry rounded to two decimals.
func Cell(v float32) string {
	s := strconv.FormatFloat(float64(v), 'f', 2, 32)
	if s == "-0.00" {
		return "0.00"
	}
	return s
}

// Rows returns the matrix entries as formatted rows.
// Entries are read column-major, so Rows(m)[r][c] is the
// entry at row r and column c.
func Rows(m *mgl32.Mat4) [4][4]string {
	var rows [4][4]string
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			rows[r][c] = Cell(m.At(r, c))
		}
	}
	return rows
}

// Text formats m as a plain-text table with right-aligned
// columns, one row per line.
func Text(m *mgl32.Mat4) string {
	rows := Rows(m)
	width := 0
	for _, row := range rows {
		for _, c := range row {
			width = max(width, len(c))
		}
	}
	var b strings.Builder
	for r, row := range rows {
		if r > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte('[')
		for c, cell := range row {
			if c > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(strings.Repeat(" ", width-len(cell)))
			b.WriteString(cell)
		}
		b.WriteByte(']')
	}
	return b.String()
}

// MathML formats m as a bracketed MathML table.
func MathML(m *mgl32.Mat4) string {
	var b strings.Builder
	b.WriteString("<math xmlns='http://www.w3.org/1998/Math/MathML' display='block'>\n<mrow>\n<mo>[</mo>\n<mtable>\n")
	for _, row := range Rows(m) {
		b.WriteString("<mtr>\n")
		for _, cell := range row {
			b.WriteString("<mtd><mn>")
			b.WriteString(cell)
			b.WriteString("</mn></mtd>\n")
		}
		b.WriteString("</mtr>\n")
	}
	b.WriteString("</mtable>\n<mo>]</mo>\n</mrow>\n</math>")
	return b.String()
}

// Table is a Sink that keeps the last matrix shown in each
// slot. It is safe for concurrent use.
type Table struct {
	mu   sync.Mutex
	m    [NSlot]mgl32.Mat4
	seen [NSlot]bool
}

// Show records m for slot.
func (t *Table) Show(slot Slot, m *mgl32.Mat4) {
	if slot < 0 || slot >= NSlot {
		return
	}
	t.mu.Lock()
	t.m[slot] = *m
	t.seen[slot] = true
	t.mu.Unlock()
}

// Get returns the last matrix shown in slot and whether
// there was one.
func (t *Table) Get(slot Slot) (mgl32.Mat4, bool) {
	if slot < 0 || slot >= NSlot {
		return mgl32.Mat4{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m[slot], t.seen[slot]
}

// String renders every slot that has been shown as a
// labeled text table.
func (t *Table) String() string {
	var b strings.Builder
	for s := Slot(0); s < NSlot; s++ {
		m, ok := t.Get(s)
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s.String())
		b.WriteString(":\n")
		b.WriteString(Text(&m))
		b.WriteByte('\n')
	}
	return b.String()
}

// Multi is a Sink that forwards to every sink it holds.
type Multi []Sink

// Show forwards m to each sink.
func (ms Multi) Show(slot Slot, m *mgl32.Mat4) {
	for _, s := range ms {
		s.Show(slot, m)
	}
}

// Flush flushes each sink that is a Flusher.
func (ms Multi) Flush() {
	for _, s := range ms {
		if f, ok := s.(Flusher); ok {
			f.Flush()
		}
	}
}

// Discard is a Sink that drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Show(Slot, *mgl32.Mat4) {}
