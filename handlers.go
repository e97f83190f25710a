package traitwatch

import "github.com/traitwatch/traitwatch/pkg/registry"

// ExceptionHandler receives exceptions raised by listeners during
// dispatch.
type ExceptionHandler = registry.Handler

// PushExceptionHandler installs h at the top of the process-wide
// exception handler chain. While installed, h receives every exception a
// listener raises. reraise makes the dispatcher rethrow the exception on
// the mutating goroutine after the round completes; main marks h as the
// canonical top-level reporting handler.
//
// With no handler installed, listener failures are logged and swallowed;
// the mutation that triggered them always succeeds.
func PushExceptionHandler(h ExceptionHandler, reraise, main bool) {
	registry.PushHandler(h, reraise, main)
}

// PopExceptionHandler removes the most recently pushed handler.
func PopExceptionHandler() {
	registry.PopHandler()
}

// ScopedExceptionHandler pushes h and returns the restore function:
//
//	defer traitwatch.ScopedExceptionHandler(h, true, false)()
func ScopedExceptionHandler(h ExceptionHandler, reraise, main bool) func() {
	return registry.ScopedHandler(h, reraise, main)
}
