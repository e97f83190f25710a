package cli

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/traitwatch/traitwatch"
)

// StressReport summarizes one stress run.
type StressReport struct {
	Cycles        int
	Writes        int64
	Notifications int64
	WriterErr     error
}

// Stress exercises the documented race pattern: one goroutine mutates a
// trait continuously while the caller's goroutine registers and removes
// the same listener for the requested number of cycles. A handler with
// reraise installed for the run turns any swallowed listener failure
// into a writer error, so the report catches regressions.
func Stress(cycles int, logger *slog.Logger) StressReport {
	restore := traitwatch.ScopedExceptionHandler(
		func(obj traitwatch.Observable, name string, old, new any, err error) {},
		true, true,
	)
	defer restore()

	obj := &traitwatch.Holder{}
	defer obj.Close()

	report := StressReport{Cycles: cycles}
	var delivered atomic.Int64
	listener := func() { delivered.Add(1) }

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() {
			if rec := recover(); rec != nil {
				report.WriterErr = recoveredAsError(rec)
			}
		}()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			obj.Fire("pulse", i)
			report.Writes++
		}
	}()

	for i := 0; i < cycles; i++ {
		if _, err := traitwatch.Subscribe(obj, "pulse", listener); err != nil {
			logger.Error("subscribe failed", "cycle", i, "err", err)
			break
		}
		time.Sleep(100 * time.Microsecond) // encourage interleaving
		traitwatch.Unsubscribe(obj, "pulse", listener)
	}

	close(stop)
	<-done

	report.Notifications = delivered.Load()
	return report
}

func recoveredAsError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return &stressPanic{value: rec}
}

type stressPanic struct{ value any }

func (p *stressPanic) Error() string {
	return "listener panic escaped to writer goroutine"
}
