// Package resolver implements extended (dotted) trait paths: watching
// "sub.a" on a root object observes trait "a" of whatever object
// currently occupies "sub", re-targeting itself whenever any hop along
// the path is replaced.
package resolver

import (
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/traitwatch/traitwatch/pkg/domain"
	"github.com/traitwatch/traitwatch/pkg/registry"
)

// ParsePath splits a dotted trait path into its segments. A path with an
// empty segment is rejected.
func ParsePath(path string) ([]string, error) {
	segs := strings.Split(path, ".")
	for _, s := range segs {
		if s == "" {
			return nil, domain.ErrEmptyName
		}
	}
	return segs, nil
}

// attachment is one downstream subscription owned by the watch: a hop
// listener on an intermediate object, or the terminal listener on the
// leaf object. The hop on the root object is not tracked here; it is the
// composite binding the root registry owns.
type attachment struct {
	level int
	reg   *registry.Registry
	b     *registry.Binding
}

// Watch instruments one extended path. Each hop is an independent
// subscription owned by the watch and rebuilt (detach old, attach new)
// whenever its parent hop fires, so no stale intermediate object is ever
// retained as a dispatch target.
type Watch struct {
	root     registry.Host
	segs     []string
	group    string
	terminal func(domain.Notification)

	mu     sync.Mutex
	closed bool
	down   []attachment
}

// NewWatch builds the watch for path rooted at root and instruments the
// current object chain. terminal receives the leaf notifications. The
// caller owns the root hop: it must invoke Rewire when the first segment
// changes on root, and Close when the subscription is removed.
func NewWatch(root registry.Host, segs []string, group string, terminal func(domain.Notification)) *Watch {
	w := &Watch{
		root:     root,
		segs:     segs,
		group:    group,
		terminal: terminal,
	}
	if v, ok := root.Trait(segs[0]); ok {
		w.mu.Lock()
		w.attachLocked(1, v)
		w.mu.Unlock()
	}
	return w
}

// Rewire is the root hop listener: the first segment's value changed on
// the root object.
func (w *Watch) Rewire(n domain.Notification) {
	w.rewire(0, n.Old, n.New)
}

// rewire handles the replacement of the object at segment level: all
// instrumentation below the hop is detached from the old object and
// attached to the new one, then a synthesized terminal notification
// carries the leaf value transition across the swap.
func (w *Watch) rewire(level int, oldVal, newVal any) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	var stale []attachment
	kept := w.down[:0]
	for _, a := range w.down {
		if a.level > level {
			stale = append(stale, a)
		} else {
			kept = append(kept, a)
		}
	}
	w.down = kept
	w.attachLocked(level+1, newVal)
	w.mu.Unlock()

	for _, a := range stale {
		a.reg.RemoveBinding(a.b)
	}

	// Terminal notification for the subtree swap. Old and New are the
	// leaf values reachable through the old and new hop objects; the
	// source is the new leaf owner. If the new chain cannot be resolved
	// to an observable leaf owner there is nothing to deliver.
	rest := w.segs[level+1:]
	leaf := w.segs[len(w.segs)-1]
	parent := asHost(resolveValue(newVal, rest[:len(rest)-1]))
	if parent == nil {
		return
	}
	oldLeaf := resolveValue(oldVal, rest)
	newLeaf := resolveValue(newVal, rest)
	w.terminal(domain.Notification{
		Object: parent,
		Name:   leaf,
		Old:    oldLeaf,
		New:    newLeaf,
		Time:   time.Now(),
	})
}

// attachLocked instruments segments[level:] starting at the object v,
// which occupies segment level-1. An intermediate that does not support
// observation simply ends the instrumentation; it is not an error.
func (w *Watch) attachLocked(level int, v any) {
	cur := v
	for i := level; i < len(w.segs); i++ {
		host := asHost(cur)
		if host == nil {
			return
		}
		reg := host.TraitRegistry()
		attr := w.segs[i]

		if i == len(w.segs)-1 {
			b := reg.AddFunc(attr, w.group, w.terminal)
			w.down = append(w.down, attachment{level: i, reg: reg, b: b})
			return
		}

		idx := i
		b := reg.AddFunc(attr, w.group, func(n domain.Notification) {
			w.rewire(idx, n.Old, n.New)
		})
		w.down = append(w.down, attachment{level: i, reg: reg, b: b})

		next, ok := host.Trait(attr)
		if !ok {
			return
		}
		cur = next
	}
}

// Close detaches every downstream subscription. Safe to call more than
// once; also invoked by the root registry when the composite binding is
// removed.
func (w *Watch) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	stale := w.down
	w.down = nil
	w.mu.Unlock()

	for _, a := range stale {
		a.reg.RemoveBinding(a.b)
	}
}

// resolveValue walks segs from v, returning nil when the chain breaks.
func resolveValue(v any, segs []string) any {
	for _, s := range segs {
		obs, ok := v.(domain.Observable)
		if !ok || isNil(obs) {
			return nil
		}
		v, ok = obs.Trait(s)
		if !ok {
			return nil
		}
	}
	return v
}

// asHost returns v as a registry.Host, treating typed-nil as absent.
func asHost(v any) registry.Host {
	h, ok := v.(registry.Host)
	if !ok || isNil(h) {
		return nil
	}
	return h
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func:
		return rv.IsNil()
	}
	return false
}
