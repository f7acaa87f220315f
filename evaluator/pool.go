package evaluator

// SharedPool is a bounded, channel-backed borrow/return pool of
// PriorityEvaluator instances (spec §5's "shared pool"; the fuzzy engine is
// re-entrant for Process but each evaluator owns its own Engine instance so
// concurrent evaluations don't race each other's SetInput/Process/Output
// calls). Grounded on Nullkiller.cpp's SharedPool<PriorityEvaluator>.
type SharedPool struct {
	slots chan *PriorityEvaluator
}

// NewSharedPool pre-fills a pool of size evaluators, one per engine clone
// new() produces.
func NewSharedPool(size int, new func() *PriorityEvaluator) *SharedPool {
	p := &SharedPool{slots: make(chan *PriorityEvaluator, size)}
	for i := 0; i < size; i++ {
		p.slots <- new()
	}
	return p
}

// Borrow blocks until an evaluator is available.
func (p *SharedPool) Borrow() *PriorityEvaluator {
	return <-p.slots
}

// Release returns an evaluator to the pool.
func (p *SharedPool) Release(e *PriorityEvaluator) {
	p.slots <- e
}
