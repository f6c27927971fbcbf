package model

// BarWindow is an ordered sequence of daily bars, indexable newest-first
// (offset 0 = most recent closed bar). It auto-extends as new daily bars
// close via Append. Designed for single-goroutine usage — no locks needed.
//
// The window owns the release hook handed to it by its creator (history
// source subscription, statement handles, ...) and guarantees it runs at
// most once.
type BarWindow struct {
	bars     []*Bar // ascending by day; bars[len-1] is the newest
	release  func()
	released bool
}

// NewBarWindow builds a window over bars ordered oldest→newest.
// release may be nil for windows with no underlying resource.
func NewBarWindow(bars []*Bar, release func()) *BarWindow {
	return &BarWindow{bars: bars, release: release}
}

// Len returns the number of bars currently in the window.
func (w *BarWindow) Len() int { return len(w.bars) }

// At returns the bar at the given newest-first offset (0 = most recent).
// Returns nil for out-of-range offsets or holes left by the source.
func (w *BarWindow) At(offset int) *Bar {
	if offset < 0 || offset >= len(w.bars) {
		return nil
	}
	return w.bars[len(w.bars)-1-offset]
}

// Append extends the window with a newly closed daily bar. All existing
// newest-first offsets shift by one.
func (w *BarWindow) Append(b *Bar) {
	w.bars = append(w.bars, b)
}

// Release runs the owner-supplied release hook exactly once and drops the
// bar references. Safe to call repeatedly.
func (w *BarWindow) Release() {
	if w == nil || w.released {
		return
	}
	w.released = true
	if w.release != nil {
		w.release()
	}
	w.bars = nil
}

// Released reports whether Release has already run.
func (w *BarWindow) Released() bool { return w.released }
