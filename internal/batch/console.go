package batch

import (
	"fmt"
	"io"
	"sync"
)

// Console prints the human-facing status lines: [OK], [WARN], [ERROR].
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = io.Discard
	}
	return &Console{w: w}
}

func (c *Console) OK(format string, args ...any)    { c.print("[OK]", format, args...) }
func (c *Console) Info(format string, args ...any)  { c.print("[INFO]", format, args...) }
func (c *Console) Warn(format string, args ...any)  { c.print("[WARN]", format, args...) }
func (c *Console) Error(format string, args ...any) { c.print("[ERROR]", format, args...) }

func (c *Console) print(tag, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.w, tag+" "+format+"\n", args...)
}
