package light

import "sync"

// Strip is a row of addressable pixels. Effects read and write colours
// between pushes; Push sends the frame to the hardware. Ready reports
// whether the previous push has been acknowledged, so the render loop can
// skip a frame instead of blocking on I/O.
type Strip interface {
	Len() int
	Color(pos int) Color
	SetColor(pos int, c Color)
	Push() error
	Ready() bool
}

// Buffer is an in-memory strip. Push publishes the current frame to
// Snapshot, which is safe to call from other goroutines (the TUI preview).
type Buffer struct {
	pixels []Color

	mu     sync.Mutex
	frame  []Color
	pushes int
}

func NewBuffer(n int) *Buffer {
	b := &Buffer{
		pixels: make([]Color, n),
		frame:  make([]Color, n),
	}
	for i := range b.pixels {
		b.pixels[i] = Black
		b.frame[i] = Black
	}
	return b
}

func (b *Buffer) Len() int {
	return len(b.pixels)
}

// Color returns the pixel at pos, black when out of range
func (b *Buffer) Color(pos int) Color {
	if pos < 0 || pos >= len(b.pixels) {
		return Black
	}
	return b.pixels[pos]
}

// SetColor stores c opaque; out-of-range positions are ignored
func (b *Buffer) SetColor(pos int, c Color) {
	if pos < 0 || pos >= len(b.pixels) {
		return
	}
	b.pixels[pos] = c | 0xFF000000
}

// Pixels returns the working frame. Not safe to call during a render.
func (b *Buffer) Pixels() []Color {
	return b.pixels
}

func (b *Buffer) Push() error {
	b.mu.Lock()
	copy(b.frame, b.pixels)
	b.pushes++
	b.mu.Unlock()
	return nil
}

func (b *Buffer) Ready() bool {
	return true
}

// Snapshot returns a copy of the last pushed frame
func (b *Buffer) Snapshot() []Color {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Color(nil), b.frame...)
}

// Pushes counts frames pushed so far
func (b *Buffer) Pushes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pushes
}
