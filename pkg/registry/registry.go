package registry

import (
	"strings"
	"sync"

	"github.com/traitwatch/traitwatch/pkg/domain"
)

// Registry is the per-observed-object listener table. It maps trait names
// to the ordered set of bindings watching them and is the only shared
// mutable structure of the engine: every operation is safe to interleave
// with dispatch from other goroutines.
//
// The registry is keyed into its observable by ownership (each observable
// holds its own registry), so observables are identified by identity and
// never need to be comparable or hashable.
type Registry struct {
	mu       sync.Mutex
	bindings map[string][]*Binding
	nextSeq  uint64
	hooks    domain.LifecycleHooks
}

// Builder constructs the listener half of a composite binding. It returns
// the invoke function, a cleanup that releases auxiliary subscriptions
// when the binding is removed, or an error to abort registration.
type Builder func() (invoke func(domain.Notification), cleanup func(), err error)

// New creates an empty registry. Observables normally create theirs
// lazily on first subscription.
func New() *Registry {
	return &Registry{bindings: make(map[string][]*Binding)}
}

// SetHooks installs lifecycle hooks. Pass the zero value to clear.
func (r *Registry) SetHooks(h domain.LifecycleHooks) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = h
}

// Add registers target as a listener for the named trait under the given
// group. Re-adding an identical (target, name, group) triple is a no-op
// returning the existing binding. The target's call shape is resolved
// once, here.
func (r *Registry) Add(name, group string, target any) (*Binding, error) {
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	invoke, err := Invoker(target)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if b := r.lookupLocked(name, group, target); b != nil {
		r.mu.Unlock()
		return b, nil
	}
	b := r.insertLocked(name, name, group, target)
	b.invoke = invoke
	b.alive.Store(true)
	hook := r.hooks.OnSubscribe
	r.mu.Unlock()

	if hook != nil {
		hook(name, group)
	}
	return b, nil
}

// AddComposite registers a composite binding: it lives in the bucket for
// attr (the first hop of path) but is deduplicated and removed by (path,
// group, target). build runs outside the registry lock, so it may freely
// subscribe to other registries, including this one; until it completes
// the binding is not alive and the dispatcher skips it. Used by the
// extended-path resolver.
func (r *Registry) AddComposite(attr, path, group string, target any, build Builder) (*Binding, error) {
	if attr == "" || path == "" {
		return nil, domain.ErrEmptyName
	}

	r.mu.Lock()
	if b := r.lookupLocked(path, group, target); b != nil {
		r.mu.Unlock()
		return b, nil
	}
	b := r.insertLocked(attr, path, group, target)
	r.mu.Unlock()

	invoke, cleanup, err := build()
	if err != nil {
		r.RemoveBinding(b)
		return nil, err
	}

	r.mu.Lock()
	if b.unlinked {
		// Lost a race with Remove or Teardown; release what build made.
		r.mu.Unlock()
		if cleanup != nil {
			cleanup()
		}
		return b, nil
	}
	b.invoke = invoke
	b.cleanup = cleanup
	b.alive.Store(true)
	hook := r.hooks.OnSubscribe
	r.mu.Unlock()

	if hook != nil {
		hook(path, group)
	}
	return b, nil
}

// AddFunc registers a pre-bound listener without identity deduplication.
// The caller is responsible for removal via RemoveBinding. Used for
// resolver hops, whose closures have no useful identity.
func (r *Registry) AddFunc(attr, group string, invoke func(domain.Notification)) *Binding {
	r.mu.Lock()
	b := r.insertLocked(attr, attr, group, nil)
	b.invoke = invoke
	b.alive.Store(true)
	r.mu.Unlock()
	return b
}

// Remove unsubscribes target from the named trait (or extended path) in
// the given group. Removing a binding that does not exist is a silent
// no-op. After Remove returns, the binding is excluded from any dispatch
// round that has not already snapshotted it; an in-flight invocation may
// still complete.
func (r *Registry) Remove(name, group string, target any) {
	attr := firstSegment(name)

	r.mu.Lock()
	var removed *Binding
	bucket := r.bindings[attr]
	for i, b := range bucket {
		if b.path == name && b.group == group && b.target != nil && sameTarget(b.target, target) {
			removed = b
			b.alive.Store(false)
			b.unlinked = true
			r.bindings[attr] = append(bucket[:i:i], bucket[i+1:]...)
			break
		}
	}
	if removed != nil && len(r.bindings[attr]) == 0 {
		delete(r.bindings, attr)
	}
	hook := r.hooks.OnUnsubscribe
	r.mu.Unlock()

	if removed == nil {
		return
	}
	if removed.cleanup != nil {
		removed.cleanup()
	}
	if hook != nil {
		hook(name, group)
	}
}

// RemoveBinding removes a binding by handle. This is the precise removal
// path: it never depends on target identity.
func (r *Registry) RemoveBinding(b *Binding) {
	if b == nil {
		return
	}

	r.mu.Lock()
	if b.unlinked {
		r.mu.Unlock()
		return
	}
	b.alive.Store(false)
	b.unlinked = true
	bucket := r.bindings[b.attr]
	for i, other := range bucket {
		if other == b {
			r.bindings[b.attr] = append(bucket[:i:i], bucket[i+1:]...)
			break
		}
	}
	if len(r.bindings[b.attr]) == 0 {
		delete(r.bindings, b.attr)
	}
	hook := r.hooks.OnUnsubscribe
	r.mu.Unlock()

	if b.cleanup != nil {
		b.cleanup()
	}
	if hook != nil {
		hook(b.path, b.group)
	}
}

// Teardown releases every binding across all traits and groups. Called
// when the observed object is destroyed.
func (r *Registry) Teardown() {
	r.mu.Lock()
	var all []*Binding
	for _, bucket := range r.bindings {
		for _, b := range bucket {
			b.alive.Store(false)
			b.unlinked = true
			all = append(all, b)
		}
	}
	r.bindings = make(map[string][]*Binding)
	hook := r.hooks.OnUnsubscribe
	r.mu.Unlock()

	for _, b := range all {
		if b.cleanup != nil {
			b.cleanup()
		}
		if hook != nil {
			hook(b.path, b.group)
		}
	}
}

// Len returns the number of active bindings.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, bucket := range r.bindings {
		n += len(bucket)
	}
	return n
}

// lookupLocked finds an existing non-unlinked binding for the triple.
func (r *Registry) lookupLocked(path, group string, target any) *Binding {
	for _, bucket := range r.bindings {
		for _, b := range bucket {
			if b.path == path && b.group == group && b.target != nil && sameTarget(b.target, target) {
				return b
			}
		}
	}
	return nil
}

// insertLocked appends a new binding to the attr bucket in registration
// order. The binding is returned not yet alive.
func (r *Registry) insertLocked(attr, path, group string, target any) *Binding {
	r.nextSeq++
	b := &Binding{
		seq:    r.nextSeq,
		attr:   attr,
		path:   path,
		group:  group,
		target: target,
	}
	r.bindings[attr] = append(r.bindings[attr], b)
	return b
}

func firstSegment(name string) string {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}
