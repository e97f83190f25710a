package registry

import (
	"log/slog"
	"sync"

	"github.com/traitwatch/traitwatch/pkg/domain"
)

// Handler receives an exception raised by a listener during dispatch.
type Handler func(obj domain.Observable, name string, old, new any, err error)

type handlerEntry struct {
	fn      Handler
	reraise bool
	main    bool
}

// The exception handler chain is process-wide: listener failures can
// surface on any mutating goroutine, and policy is installed once for the
// whole program (typically by test fixtures or application setup).
var (
	handlersMu sync.Mutex
	handlers   []handlerEntry
)

// PushHandler installs h at the top of the exception handler chain.
// While installed, h receives every exception raised by a listener.
// If reraise is true the dispatcher rethrows the exception on the
// mutating goroutine once the round completes. main marks the entry as
// the canonical top-level reporting handler; it is carried on the entry
// and returned to h's position when entries above it are popped.
func PushHandler(h Handler, reraise, main bool) {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	handlers = append(handlers, handlerEntry{fn: h, reraise: reraise, main: main})
}

// PopHandler removes the most recently pushed handler. Popping an empty
// chain is a no-op.
func PopHandler() {
	handlersMu.Lock()
	defer handlersMu.Unlock()
	if len(handlers) > 0 {
		handlers = handlers[:len(handlers)-1]
	}
}

// ScopedHandler pushes h and returns a restore function that pops it,
// for defer-based installation:
//
//	defer registry.ScopedHandler(h, true, false)()
func ScopedHandler(h Handler, reraise, main bool) func() {
	PushHandler(h, reraise, main)
	return PopHandler
}

// handleException routes one listener failure to the top of the chain and
// reports whether the dispatcher should rethrow. With no handler
// installed the failure is logged and swallowed: a listener exception
// must never abort the attribute write that triggered it.
func handleException(obj domain.Observable, name string, old, new any, err error) bool {
	handlersMu.Lock()
	var top *handlerEntry
	if len(handlers) > 0 {
		top = &handlers[len(handlers)-1]
	}
	handlersMu.Unlock()

	if top == nil {
		slog.Error("trait change listener failed", "trait", name, "err", err)
		return false
	}
	if top.fn != nil {
		top.fn(obj, name, old, new, err)
	}
	return top.reraise
}
