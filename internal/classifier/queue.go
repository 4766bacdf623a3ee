package classifier

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/musictruth-cli/internal/core/domain"
	"github.com/custodia-labs/musictruth-cli/internal/core/ports/driven"
)

// Ensure Queue implements the interface.
var _ driven.Classifier = (*Queue)(nil)

type request struct {
	ev    domain.EvidenceVector
	reply chan result
}

type result struct {
	p   float64
	err error
}

// Queue serialises inference on a single goroutine that owns the model.
type Queue struct {
	model *Model
	reqs  chan request
	done  chan struct{}
	once  sync.Once
	wg    sync.WaitGroup
}

// NewQueue starts the owner goroutine. Call Close to stop it.
func NewQueue(model *Model) *Queue {
	q := &Queue{
		model: model,
		reqs:  make(chan request),
		done:  make(chan struct{}),
	}
	q.wg.Add(1)
	go q.loop()
	return q
}

func (q *Queue) loop() {
	defer q.wg.Done()
	for {
		select {
		case <-q.done:
			return
		case req := <-q.reqs:
			p, err := q.model.Predict(req.ev)
			req.reply <- result{p: p, err: err}
		}
	}
}

// Predict submits the evidence and waits for the owner goroutine.
func (q *Queue) Predict(ctx context.Context, ev domain.EvidenceVector) (float64, error) {
	req := request{ev: ev, reply: make(chan result, 1)}

	select {
	case q.reqs <- req:
	case <-q.done:
		return 0, fmt.Errorf("%w: classifier closed", domain.ErrClassifierUnavailable)
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.p, res.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Name returns the loaded model's name.
func (q *Queue) Name() string {
	return q.model.Name
}

// Close stops the owner goroutine and waits for it to exit.
func (q *Queue) Close() error {
	q.once.Do(func() { close(q.done) })
	q.wg.Wait()
	return nil
}
