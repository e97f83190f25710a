package traitwatch

import (
	"reflect"
	"sort"
	"sync"

	"github.com/traitwatch/traitwatch/pkg/domain"
	"github.com/traitwatch/traitwatch/pkg/registry"
)

// Holder is the embeddable observable base: a named trait store whose
// writes emit change notifications. The zero value is ready to use.
//
//	type Person struct {
//		traitwatch.Holder
//	}
//
//	p := &Person{}
//	traitwatch.Subscribe(p, "age", func(old, new any) { ... })
//	p.Set("age", 42)
//
// Holder must not be copied after first use. All methods are safe for
// concurrent use; listener invocation is synchronous on the mutating
// goroutine.
type Holder struct {
	mu     sync.Mutex
	values map[string]any

	regOnce sync.Once
	reg     *registry.Registry
}

// TraitRegistry returns the listener registry of this object, creating
// it lazily on first use.
func (h *Holder) TraitRegistry() *registry.Registry {
	h.regOnce.Do(func() {
		h.reg = registry.New()
	})
	return h.reg
}

// Trait returns the current value of a trait and whether it is set.
func (h *Holder) Trait(name string) (any, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.values[name]
	return v, ok
}

// Get returns the current value of a trait, or nil when unset.
func (h *Holder) Get(name string) any {
	v, _ := h.Trait(name)
	return v
}

// Set stores a trait value and notifies listeners when the value
// actually changed. The write itself always succeeds; listener failures
// are routed to the exception handler chain.
func (h *Holder) Set(name string, value any) {
	h.mu.Lock()
	if h.values == nil {
		h.values = make(map[string]any)
	}
	old, existed := h.values[name]
	h.values[name] = value
	h.mu.Unlock()

	if existed && equalValue(old, value) {
		return
	}
	h.TraitRegistry().Notify(h, name, old, value)
}

// SetMany stores several traits, notifying per changed trait.
func (h *Holder) SetMany(values map[string]any) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.Set(name, values[name])
	}
}

// Fire stores a trait value and notifies unconditionally, for
// event-style traits where every write is meaningful even when the
// value repeats.
func (h *Holder) Fire(name string, value any) {
	h.mu.Lock()
	if h.values == nil {
		h.values = make(map[string]any)
	}
	old := h.values[name]
	h.values[name] = value
	h.mu.Unlock()

	h.TraitRegistry().Notify(h, name, old, value)
}

// Names returns the set trait names in sorted order.
func (h *Holder) Names() []string {
	h.mu.Lock()
	names := make([]string, 0, len(h.values))
	for name := range h.values {
		names = append(names, name)
	}
	h.mu.Unlock()
	sort.Strings(names)
	return names
}

// SetHooks installs lifecycle hooks on this object's registry.
func (h *Holder) SetHooks(hooks domain.LifecycleHooks) {
	h.TraitRegistry().SetHooks(hooks)
}

// Close releases every binding on this object. Call it when the object
// is destroyed; subscriptions through extended paths are torn down too.
func (h *Holder) Close() {
	h.TraitRegistry().Teardown()
}

// equalValue reports whether a stored value is unchanged. DeepEqual
// keeps composite trait values (maps, slices) from emitting notifications
// on writes that did not alter them.
func equalValue(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
