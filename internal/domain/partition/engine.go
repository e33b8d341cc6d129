package partition

// DefaultMaxAttempts bounds how many candidates Generate draws before giving up
// on finding one that does not repeat history.
const DefaultMaxAttempts = 50

// Result is the outcome of Generate.
type Result struct {
	Partition Partition
	// Attempts is the number of candidates drawn, 1..maxAttempts.
	Attempts int
	// Exhausted is set when every attempt repeated history; Partition then
	// holds the last candidate.
	Exhausted bool
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithRNG sets the shuffle source.
func WithRNG(rng RNG) Option {
	return func(e *Engine) {
		if rng != nil {
			e.rng = rng
		}
	}
}

// WithMaxAttempts sets the retry budget.
func WithMaxAttempts(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxAttempts = n
		}
	}
}

// WithRejectHook registers a callback invoked for every candidate rejected as
// a repeat.
func WithRejectHook(fn func(Partition)) Option {
	return func(e *Engine) {
		e.onReject = fn
	}
}

// Engine draws partitions that avoid repeating a history.
type Engine struct {
	rng         RNG
	maxAttempts int
	onReject    func(Partition)
}

// NewEngine creates an engine with the default RNG and retry budget.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rng:         DefaultRNG,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxAttempts returns the configured retry budget.
func (e *Engine) MaxAttempts() int { return e.maxAttempts }

// Generate draws candidates until one is not a duplicate of history or the
// retry budget runs out. history is only read.
func (e *Engine) Generate(names []string, teamCount int, history []Partition) (Result, error) {
	var res Result
	for res.Attempts < e.maxAttempts {
		candidate, err := Draw(names, teamCount, e.rng)
		if err != nil {
			return Result{}, err
		}
		res.Attempts++
		res.Partition = candidate
		if !IsDuplicate(candidate, history) {
			return res, nil
		}
		if e.onReject != nil {
			e.onReject(candidate)
		}
	}
	res.Exhausted = true
	return res, nil
}
