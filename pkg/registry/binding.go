package registry

import (
	"reflect"
	"sync/atomic"

	"github.com/traitwatch/traitwatch/pkg/domain"
)

// Binding is the unit of subscription: one listener target registered for
// one trait under one group label. Bindings are owned by the registry of
// the observed object and must only be created through it.
type Binding struct {
	seq   uint64
	attr  string
	path  string
	group string

	// target is the value the binding was registered with; used for
	// identity-based deduplication and removal. Nil for pre-bound
	// listeners added with AddFunc.
	target any

	// invoke is fixed once the binding is fully constructed. Dispatch
	// reads it only after observing alive == true, which orders the
	// write.
	invoke func(domain.Notification)

	// cleanup releases auxiliary resources (extended-path hops) after
	// the binding is unlinked. Runs outside the registry lock.
	cleanup func()

	// alive guards the disposal race: dispatch snapshots only live
	// bindings, and removal clears the flag before unlinking, so a
	// round that has not yet snapshotted can never see the binding.
	// A round that already has may still complete its delivery.
	alive atomic.Bool

	// unlinked is set under the registry lock when the binding is
	// removed from its bucket.
	unlinked bool
}

// Alive reports whether the binding can still receive notifications.
func (b *Binding) Alive() bool { return b.alive.Load() }

// Name returns the trait name (or extended path) the binding watches.
func (b *Binding) Name() string { return b.path }

// Group returns the listener group label.
func (b *Binding) Group() string { return b.group }

// Invoker resolves a listener target to its call shape. The shape is
// chosen exactly once, at subscribe time; dispatch never re-inspects the
// target. Accepted shapes:
//
//	func()
//	func(new any)
//	func(old, new any)
//	func(obj domain.Observable, name string, old, new any)
//	func(domain.Notification)
//	domain.Observer
//
// Any other target yields domain.ErrUnsupportedListener.
func Invoker(target any) (func(domain.Notification), error) {
	switch fn := target.(type) {
	case func():
		return func(domain.Notification) { fn() }, nil
	case func(any):
		return func(n domain.Notification) { fn(n.New) }, nil
	case func(any, any):
		return func(n domain.Notification) { fn(n.Old, n.New) }, nil
	case func(domain.Observable, string, any, any):
		return func(n domain.Notification) { fn(n.Object, n.Name, n.Old, n.New) }, nil
	case func(domain.Notification):
		return fn, nil
	case domain.Observer:
		return func(n domain.Notification) { fn.TraitChanged(n.Object, n.Name, n.Old, n.New) }, nil
	default:
		return nil, domain.ErrUnsupportedListener
	}
}

// sameTarget compares listener targets by identity, never by value
// equality of arbitrary types: funcs and pointers compare by address,
// everything else by == only when the dynamic type is comparable.
// Incomparable targets never panic the registry; they simply never match,
// so handle-based removal is the precise mechanism for them.
func sameTarget(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va := reflect.ValueOf(a)
	vb := reflect.ValueOf(b)
	if va.Kind() != vb.Kind() {
		return false
	}
	switch va.Kind() {
	case reflect.Func, reflect.Pointer, reflect.UnsafePointer, reflect.Chan, reflect.Map:
		return va.Pointer() == vb.Pointer()
	}
	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	return false
}
