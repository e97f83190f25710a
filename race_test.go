package traitwatch_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traitwatch/traitwatch"
)

// TestListenerThreadSafety hammers subscribe/unsubscribe of one binding
// while another goroutine continuously fires the watched trait. The
// mutating goroutine must never observe a failure.
func TestListenerThreadSafety(t *testing.T) {
	defer traitwatch.ScopedExceptionHandler(
		func(obj traitwatch.Observable, name string, old, new any, err error) {},
		true, true,
	)()

	obj := &generateEvents{}
	defer obj.Close()

	var mu sync.Mutex
	var writerErr any

	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			func() {
				defer func() {
					if rec := recover(); rec != nil {
						mu.Lock()
						writerErr = rec
						mu.Unlock()
					}
				}()
				obj.Fire("foo", i)
			}()
		}
	}()

	listener := func() {}
	for i := 0; i < 100; i++ {
		_, err := traitwatch.Subscribe(obj, "foo", listener)
		require.NoError(t, err)
		time.Sleep(100 * time.Microsecond) // encourage a goroutine switch
		traitwatch.Unsubscribe(obj, "foo", listener)
	}

	close(stop)
	<-done

	mu.Lock()
	defer mu.Unlock()
	assert.Nil(t, writerErr)
}

// TestSlowListenerRemovalRace unsubscribes a listener from one goroutine
// while another is mid-invocation of it. The in-flight delivery
// completes; nothing escapes to the firing goroutine.
func TestSlowListenerRemovalRace(t *testing.T) {
	defer traitwatch.ScopedExceptionHandler(
		func(obj traitwatch.Observable, name string, old, new any, err error) {},
		true, true,
	)()

	obj := &generateEvents{}
	obj.Set("age", 10)
	defer obj.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	slow := func() {
		calls++
		close(started)
		<-release
	}

	sub, err := traitwatch.Subscribe(obj, "age", slow)
	require.NoError(t, err)

	var writerErr any
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { writerErr = recover() }()
		obj.Set("age", 11) // blocks inside the slow listener
	}()

	<-started
	sub.Unsubscribe() // removal while the invocation is in flight
	close(release)
	<-done

	assert.Nil(t, writerErr)
	assert.Equal(t, 1, calls)

	// Removal took effect for future rounds.
	obj.Set("age", 12)
	assert.Equal(t, 1, calls)
}

// TestConcurrentDistinctObservables checks that two objects' dispatches
// never serialize on shared state in a way that could deadlock: each
// object's listener mutates the other object.
func TestConcurrentDistinctObservables(t *testing.T) {
	a := &generateEvents{}
	b := &generateEvents{}
	defer a.Close()
	defer b.Close()

	// Cross-mutation with a depth limit.
	_, err := traitwatch.Subscribe(a, "ping", func(new any) {
		if v, ok := new.(int); ok && v > 0 {
			b.Fire("ping", v-1)
		}
	})
	require.NoError(t, err)
	_, err = traitwatch.Subscribe(b, "ping", func(new any) {
		if v, ok := new.(int); ok && v > 0 {
			a.Fire("ping", v-1)
		}
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				a.Fire("ping", 4)
				b.Fire("ping", 4)
			}
		}()
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(30 * time.Second):
		t.Fatal("cross-object dispatch deadlocked")
	}
}
