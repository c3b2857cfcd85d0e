package analysis

import (
	"sync"
	"time"

	"github.com/banshee-data/routelab/internal/monitoring"
)

// RunnerResult delivers one completed computation to the consumer.
type RunnerResult struct {
	Seq       uint64
	Request   AnalysisRequest
	Embedding *Embedding
	Err       error
}

type pendingRequest struct {
	seq uint64
	req AnalysisRequest
}

// Runner offloads reductions to a single worker goroutine so an
// interactive caller stays responsive while a computation is in flight.
// At most one computation runs at a time. Submitting a new request
// supersedes any queued one, and a result whose request was superseded
// while computing is discarded, not delivered: a stale embedding never
// reaches the display.
type Runner struct {
	compute func(AnalysisRequest) (*Embedding, error)
	results chan RunnerResult
	wake    chan struct{}
	done    chan struct{}
	stop    sync.Once

	mu        sync.Mutex
	latest    uint64
	pending   *pendingRequest
	discarded int
}

// NewRunner starts a runner computing through the pipeline.
func NewRunner(p *Pipeline) *Runner {
	return NewRunnerFunc(p.Analyze)
}

// NewRunnerFunc starts a runner with a custom compute function. Tests
// use this to control computation timing.
func NewRunnerFunc(compute func(AnalysisRequest) (*Embedding, error)) *Runner {
	r := &Runner{
		compute: compute,
		results: make(chan RunnerResult, 4),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go r.loop()
	return r
}

// Submit queues a request, superseding any queued-but-unstarted one, and
// returns its sequence number. The matching RunnerResult carries the
// same number unless the request is superseded first.
func (r *Runner) Submit(req AnalysisRequest) uint64 {
	r.mu.Lock()
	r.latest++
	seq := r.latest
	if r.pending != nil {
		r.discarded++
		monitoring.Logf("analysis: request %d superseded before start by %d", r.pending.seq, seq)
	}
	r.pending = &pendingRequest{seq: seq, req: req}
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return seq
}

// Results returns the delivery channel. Superseded computations are
// never delivered.
func (r *Runner) Results() <-chan RunnerResult {
	return r.results
}

// Discarded returns how many requests were superseded, either before
// starting or after computing.
func (r *Runner) Discarded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.discarded
}

// Close stops the worker. Pending work is dropped.
func (r *Runner) Close() {
	r.stop.Do(func() { close(r.done) })
}

func (r *Runner) loop() {
	for {
		select {
		case <-r.done:
			return
		case <-r.wake:
		}

		for {
			r.mu.Lock()
			p := r.pending
			r.pending = nil
			r.mu.Unlock()
			if p == nil {
				break
			}

			emb, err := r.compute(p.req)
			if !r.deliver(RunnerResult{Seq: p.seq, Request: p.req, Embedding: emb, Err: err}) {
				return
			}
		}
	}
}

// deliver hands a result to the consumer unless its request has been
// superseded. The staleness check and the send attempt happen under the
// mutex, so a Submit landing between them cannot let a stale result
// slip out; when the channel is full the check is repeated after every
// wait. Returns false when the runner is shutting down.
func (r *Runner) deliver(res RunnerResult) bool {
	for {
		r.mu.Lock()
		if res.Seq != r.latest {
			r.discarded++
			r.mu.Unlock()
			monitoring.Logf("analysis: discarding superseded result for request %d", res.Seq)
			return true
		}
		select {
		case r.results <- res:
			r.mu.Unlock()
			return true
		default:
			r.mu.Unlock()
		}

		select {
		case <-r.wake:
			// A new submission landed while the channel was full; loop to
			// re-check staleness. Pending work is re-read by the caller.
		case <-r.done:
			return false
		case <-time.After(5 * time.Millisecond):
			// Consumer may have drained the channel; retry the send.
		}
	}
}
