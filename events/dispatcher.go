package events

import (
	"fmt"
	"sync"

	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/multierr"

	"github.com/rollkit/blockexec/log"
)

type subscription struct {
	topic   string
	handler interface{}
}

// Dispatcher delivers events to subscribers asynchronously. Publishing never
// blocks on, or fails because of, a subscriber.
type Dispatcher struct {
	bus    evbus.Bus
	logger log.Logger

	mtx  sync.Mutex
	subs []subscription
}

// NewDispatcher returns a dispatcher with no subscribers.
func NewDispatcher(logger log.Logger) *Dispatcher {
	return &Dispatcher{
		bus:    evbus.New(),
		logger: logger,
	}
}

// Publish hands e to the subscribers of its topic.
func (d *Dispatcher) Publish(e Event) {
	if !d.bus.HasCallback(e.Topic()) {
		d.logger.Debug("no subscribers for event", "topic", e.Topic())
		return
	}
	d.bus.Publish(e.Topic(), e)
}

// Subscribe registers fn for events of type E. Handlers run in their own
// goroutine and a panicking handler is logged and dropped.
func Subscribe[E Event](d *Dispatcher, fn func(E)) error {
	var zero E
	topic := zero.Topic()

	handler := func(e Event) {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("event handler panicked", "topic", topic, "panic", r)
			}
		}()
		typed, ok := e.(E)
		if !ok {
			d.logger.Error("unexpected event type", "topic", topic, "type", fmt.Sprintf("%T", e))
			return
		}
		fn(typed)
	}
	if err := d.bus.SubscribeAsync(topic, handler, false); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}

	d.mtx.Lock()
	d.subs = append(d.subs, subscription{topic: topic, handler: handler})
	d.mtx.Unlock()
	return nil
}

// WaitAsync blocks until all in-flight handlers returned.
func (d *Dispatcher) WaitAsync() {
	d.bus.WaitAsync()
}

// Close waits for in-flight handlers and removes every subscription.
func (d *Dispatcher) Close() (err error) {
	d.bus.WaitAsync()

	d.mtx.Lock()
	defer d.mtx.Unlock()
	for _, s := range d.subs {
		err = multierr.Append(err, d.bus.Unsubscribe(s.topic, s.handler))
	}
	d.subs = nil
	return err
}
