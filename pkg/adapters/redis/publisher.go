// Package redis bridges trait change notifications to a Redis pub/sub
// channel, so remote processes can observe an object without linking the
// engine.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/traitwatch/traitwatch"
	"github.com/traitwatch/traitwatch/pkg/domain"
)

// message is the wire form of a notification. The source object is
// identity-scoped and does not cross the process boundary.
type message struct {
	Name string    `json:"name"`
	Old  any       `json:"old"`
	New  any       `json:"new"`
	Time time.Time `json:"time"`
}

// Publisher is a listener bridge: attached to an observable, it
// publishes each notification as JSON on a Redis channel.
type Publisher struct {
	client  *backend.Client
	channel string
	logger  *slog.Logger

	subs []*traitwatch.Subscription
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithChannel sets the pub/sub channel name.
func WithChannel(name string) Option {
	return func(p *Publisher) {
		p.channel = name
	}
}

// WithLogger sets the logger used for publish failures.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// New creates a Publisher with its own Redis client.
func New(address, password string, db int, opts ...Option) *Publisher {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Publisher from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		channel: "traitwatch:changes",
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attach subscribes the publisher to the named traits (or extended
// paths) of obs. With no names it observes every trait.
func (p *Publisher) Attach(obs traitwatch.Host, names ...string) error {
	if len(names) == 0 {
		names = []string{domain.AnyTrait}
	}
	for _, name := range names {
		sub, err := traitwatch.Subscribe(obs, name, func(n domain.Notification) {
			p.publish(n)
		})
		if err != nil {
			return fmt.Errorf("attach %q: %w", name, err)
		}
		p.subs = append(p.subs, sub)
	}
	return nil
}

// Detach removes every subscription made by Attach.
func (p *Publisher) Detach() {
	for _, sub := range p.subs {
		sub.Unsubscribe()
	}
	p.subs = nil
}

// Channel returns the pub/sub channel the publisher writes to.
func (p *Publisher) Channel() string {
	return p.channel
}

// Close detaches and closes the redis client.
func (p *Publisher) Close() error {
	p.Detach()
	return p.client.Close()
}

func (p *Publisher) publish(n domain.Notification) {
	data, err := json.Marshal(message{
		Name: n.Name,
		Old:  n.Old,
		New:  n.New,
		Time: n.Time,
	})
	if err != nil {
		p.logger.Warn("notification not serializable, dropping", "trait", n.Name, "err", err)
		return
	}
	// Dispatch is synchronous on the mutating goroutine; keep the
	// publish bounded so a slow broker cannot stall trait writes.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.Warn("publish failed", "channel", p.channel, "trait", n.Name, "err", err)
	}
}
