package registry

import (
	"fmt"
	"sort"
	"time"

	"github.com/traitwatch/traitwatch/pkg/domain"
)

// Host is the contract between an observable and the subscription
// machinery: access to the object's registry plus trait reads. Embedding
// traitwatch.Holder satisfies it.
type Host interface {
	domain.Observable
	TraitRegistry() *Registry
}

// Notify dispatches one change of attr on obj to every live listener
// registered for attr or for AnyTrait, synchronously and in registration
// order.
//
// The live listener set is snapshotted under the lock at call time: a
// listener that subscribes or unsubscribes others mid-round does not
// change who else is called in this round, and a listener added during
// the round first fires on the next one. Each invocation is independently
// guarded; a panicking listener is routed to the exception handler chain
// and never prevents the remaining listeners from running.
func (r *Registry) Notify(obj domain.Observable, attr string, old, new any) {
	r.mu.Lock()
	var round []*Binding
	for _, b := range r.bindings[attr] {
		if b.Alive() {
			round = append(round, b)
		}
	}
	if attr != domain.AnyTrait {
		for _, b := range r.bindings[domain.AnyTrait] {
			if b.Alive() {
				round = append(round, b)
			}
		}
	}
	sort.Slice(round, func(i, j int) bool { return round[i].seq < round[j].seq })
	hooks := r.hooks
	r.mu.Unlock()

	if len(round) == 0 {
		return
	}

	n := domain.Notification{
		Object: obj,
		Name:   attr,
		Old:    old,
		New:    new,
		Time:   time.Now(),
	}
	if hooks.OnNotify != nil {
		hooks.OnNotify(&n)
	}

	// The first re-raise requested by a handler is rethrown after the
	// round so the remaining listeners still run.
	var rethrow any
	for _, b := range round {
		if rec := invokeGuarded(b, n); rec != nil {
			err := recoveredError(rec)
			if hooks.OnListenerError != nil {
				hooks.OnListenerError(&n, err)
			}
			if handleException(obj, attr, old, new, err) && rethrow == nil {
				rethrow = rec
			}
		}
	}
	if rethrow != nil {
		panic(rethrow)
	}
}

// invokeGuarded runs one listener and returns the recovered panic value,
// if any.
func invokeGuarded(b *Binding, n domain.Notification) (rec any) {
	defer func() {
		rec = recover()
	}()
	b.invoke(n)
	return nil
}

func recoveredError(rec any) error {
	if err, ok := rec.(error); ok {
		return err
	}
	return fmt.Errorf("listener panic: %v", rec)
}
