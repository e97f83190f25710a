package domain

import "time"

// DefaultGroup is the unlabeled listener group used when no group is given.
const DefaultGroup = ""

// AnyTrait subscribes a listener to every trait of an object.
// Group listeners (AddListener) are registered under this name.
const AnyTrait = "*"

// Notification describes a single trait change. It is passed to each
// listener during a dispatch round and is not retained afterwards.
type Notification struct {
	// Object is the observable whose trait changed. For extended paths
	// ("sub.a") this is the object that owns the leaf trait, not the root.
	Object Observable `json:"-"`

	// Name is the simple name of the trait that changed.
	Name string `json:"name"`

	Old any `json:"old"`
	New any `json:"new"`

	// Time is when the mutation was dispatched.
	Time time.Time `json:"time"`
}

// Observable is implemented by objects whose trait writes emit
// notifications. The engine never assumes observables are comparable;
// all bookkeeping is identity-based.
type Observable interface {
	// Trait returns the current value of a trait and whether it is set.
	Trait(name string) (any, bool)
}

// Observer receives change notifications as an object rather than a
// function. It is one of the accepted listener target shapes.
type Observer interface {
	TraitChanged(obj Observable, name string, old, new any)
}
