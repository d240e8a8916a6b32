package inference

import "context"

// Pool bounds the number of concurrent blocking Generate calls, standing
// in for the dedicated blocking-thread pool spec.md §4.2/§5 calls for
// (tokio::task::spawn_blocking in the original). A Driver's inference
// context never escapes the goroutine Pool.Run hands it to, matching
// spec.md §5's "contexts are never shared across concurrent inferences."
type Pool struct {
	tokens chan struct{}
}

// NewPool constructs a Pool admitting at most maxConcurrent simultaneous
// Generate calls. A size of 0 or less defaults to 1, since the inference
// loop is CPU-bound and unbounded concurrency would just thrash one CPU
// across many partial decodes.
func NewPool(maxConcurrent int) *Pool {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Pool{tokens: make(chan struct{}, maxConcurrent)}
}

// Run executes driver.Generate(ctx, dynamicPrompt) on a dedicated
// goroutine and blocks the caller until it completes, without occupying
// the calling goroutine's stack for the duration of the blocking call.
// This is the async wrapper spec.md §4.2 requires: the cooperative
// runtime's goroutine is free to make progress on other entities the
// moment ctx is cancelled, even though the spawned goroutine itself
// keeps running until Generate returns. Generate checks ctx before each
// generated token and returns ctx's error once it is cancelled; a
// Decode call already in progress is not interrupted.
func (p *Pool) Run(ctx context.Context, driver *Driver, dynamicPrompt string) (string, error) {
	select {
	case p.tokens <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-p.tokens }()

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		text, err := driver.Generate(ctx, dynamicPrompt)
		done <- result{text: text, err: err}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
