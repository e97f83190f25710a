/*
Package traitwatch is a synchronous trait change notification engine:
objects declare observable attributes ("traits") and other objects or
functions subscribe to be notified whenever a trait's value changes.

Embed Holder to make a type observable, then wire listeners with
Subscribe:

	package main

	import (
		"fmt"

		"github.com/traitwatch/traitwatch"
	)

	type Person struct {
		traitwatch.Holder
	}

	func main() {
		p := &Person{}

		sub, _ := traitwatch.Subscribe(p, "age", func(old, new any) {
			fmt.Printf("age: %v -> %v\n", old, new)
		})
		defer sub.Unsubscribe()

		p.Set("age", 22) // age: <nil> -> 22
		p.Set("age", 23) // age: 22 -> 23
		p.Set("age", 23) // unchanged, no notification
	}

# Listener shapes

A listener declares only the detail it needs. The shape is resolved once
at subscribe time from a closed set: func(), func(new any),
func(old, new any), func(obj Observable, name string, old, new any),
func(Notification), or an Observer implementation.

# Extended paths

A dotted name such as "sub.a" observes trait "a" of whatever object
currently occupies "sub". When "sub" is replaced wholesale, the engine
detaches from the old object, attaches to the new one, and delivers a
notification carrying the leaf value transition. Intermediate objects
that do not support observation end the instrumentation silently.

# Groups

Subscriptions carry a group label (default: unlabeled). Groups partition
listeners on the same trait so that independent parties can add and
remove their subscriptions without interfering.

# Concurrency

Any goroutine may mutate traits and manage subscriptions concurrently.
Dispatch is synchronous: the mutating goroutine runs every live listener,
in registration order, before the Set call returns. Listener sets are
snapshotted per round, so removal during a round only affects future
rounds. Listener panics are isolated per invocation and routed to the
exception handler chain (PushExceptionHandler); a listener failure never
aborts the write that triggered it.
*/
package traitwatch
