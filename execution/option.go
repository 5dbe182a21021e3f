package execution

// Option configures a BlockExecutor.
type Option func(*BlockExecutor)

// WithPublisher sets where the executor publishes its events.
func WithPublisher(p Publisher) Option {
	return func(e *BlockExecutor) {
		e.publisher = p
	}
}

// WithMetrics sets the metrics the executor reports to.
func WithMetrics(m *Metrics) Option {
	return func(e *BlockExecutor) {
		e.metrics = m
	}
}

// WithErrorChannel sets the channel receiving fatal errors, such as a failed
// rollback. The channel must be buffered or drained: when a send would block
// the executor panics instead.
func WithErrorChannel(errCh chan<- error) Option {
	return func(e *BlockExecutor) {
		e.errCh = errCh
	}
}
