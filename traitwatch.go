package traitwatch

import (
	"strings"

	"github.com/traitwatch/traitwatch/internal/resolver"
	"github.com/traitwatch/traitwatch/pkg/domain"
	"github.com/traitwatch/traitwatch/pkg/registry"
)

// Re-exported core types, so most consumers only import this package.
type (
	// Observable is any object whose trait writes emit notifications.
	Observable = domain.Observable
	// Observer is the object-listener shape.
	Observer = domain.Observer
	// Notification is the record delivered to listeners.
	Notification = domain.Notification
	// Host is an Observable that exposes its listener registry;
	// embedding Holder satisfies it.
	Host = registry.Host
)

// DefaultGroup is the unlabeled listener group.
const DefaultGroup = domain.DefaultGroup

// AnyTrait subscribes a listener to every trait of an object.
const AnyTrait = domain.AnyTrait

// Subscription is the handle returned by Subscribe. It removes exactly
// the binding it was created for, regardless of target identity.
type Subscription struct {
	reg *registry.Registry
	b   *registry.Binding
}

// Unsubscribe removes the subscription. Safe to call more than once.
// An invocation already in flight may still complete; no dispatch round
// starting after Unsubscribe returns includes the binding.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.reg == nil {
		return
	}
	s.reg.RemoveBinding(s.b)
}

// Active reports whether the subscription can still receive
// notifications.
func (s *Subscription) Active() bool {
	return s != nil && s.b != nil && s.b.Alive()
}

type subscribeConfig struct {
	group string
}

// SubscribeOption configures a Subscribe or Unsubscribe call.
type SubscribeOption func(*subscribeConfig)

// WithGroup places the subscription in a named listener group.
// Groups partition subscriptions on the same trait so they can be
// added and removed independently.
func WithGroup(label string) SubscribeOption {
	return func(c *subscribeConfig) {
		c.group = label
	}
}

// Subscribe registers target as a listener for the named trait of obs.
// name may be a simple trait name ("age") or an extended dotted path
// ("sub.a"); extended paths follow the object graph and re-target
// themselves when intermediate objects are replaced.
//
// target must be one of the accepted shapes (see registry.Invoker) or an
// Observer. Subscribing an identical (target, name, group) triple twice
// yields exactly one effective subscription.
func Subscribe(obs Host, name string, target any, opts ...SubscribeOption) (*Subscription, error) {
	cfg := applyOptions(opts)
	reg := obs.TraitRegistry()

	if !strings.Contains(name, ".") {
		b, err := reg.Add(name, cfg.group, target)
		if err != nil {
			return nil, err
		}
		return &Subscription{reg: reg, b: b}, nil
	}

	segs, err := resolver.ParsePath(name)
	if err != nil {
		return nil, err
	}
	terminal, err := registry.Invoker(target)
	if err != nil {
		return nil, err
	}

	b, err := reg.AddComposite(segs[0], name, cfg.group, target, func() (func(domain.Notification), func(), error) {
		w := resolver.NewWatch(obs, segs, cfg.group, terminal)
		return w.Rewire, w.Close, nil
	})
	if err != nil {
		return nil, err
	}
	return &Subscription{reg: reg, b: b}, nil
}

// Unsubscribe removes target's subscription to the named trait of obs.
// Removing a subscription that does not exist is a silent no-op.
//
// Func targets are matched by code pointer: method values of the same
// method on different receivers are not distinguished here. Keep the
// Subscription handle when that distinction matters.
func Unsubscribe(obs Host, name string, target any, opts ...SubscribeOption) {
	cfg := applyOptions(opts)
	obs.TraitRegistry().Remove(name, cfg.group, target)
}

// AddListener subscribes o to every trait change of obs under the given
// group, the whole-object counterpart of Subscribe.
func AddListener(obs Host, o Observer, opts ...SubscribeOption) error {
	cfg := applyOptions(opts)
	_, err := obs.TraitRegistry().Add(domain.AnyTrait, cfg.group, o)
	return err
}

// RemoveListener removes a whole-object listener added with AddListener.
// Silent no-op when absent.
func RemoveListener(obs Host, o Observer, opts ...SubscribeOption) {
	cfg := applyOptions(opts)
	obs.TraitRegistry().Remove(domain.AnyTrait, cfg.group, o)
}

func applyOptions(opts []SubscribeOption) subscribeConfig {
	var cfg subscribeConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
