package xdelay

import (
	"github.com/trickstertwo/xclock"
	"github.com/trickstertwo/xlog"
)

// Builder constructs Dispatcher instances (Builder pattern).
type Builder[E any] struct {
	publisher Publisher[E]
	disabled  bool
	arbiter   Arbiter[E]
	onFailure FailureHandler[E]
	flusher   FlushFunc[E]

	middlewares []FlushMiddleware[E]
	observers   []Observer
	logger      *xlog.Logger
	clock       xclock.Clock
}

// NewBuilder returns a builder wrapping p. Every event is delayed and
// delivery failures stop the flush unless configured otherwise.
func NewBuilder[E any](p Publisher[E]) *Builder[E] {
	return &Builder[E]{publisher: p}
}

// WithDisabled turns delaying off: every publish is forwarded immediately.
func (b *Builder[E]) WithDisabled(disabled bool) *Builder[E] {
	b.disabled = disabled
	return b
}

func (b *Builder[E]) WithArbiter(a Arbiter[E]) *Builder[E] {
	b.arbiter = a
	return b
}

func (b *Builder[E]) WithFailureHandler(h FailureHandler[E]) *Builder[E] {
	b.onFailure = h
	return b
}

// WithFlusher replaces delivery to the wrapped publisher, e.g. with a
// TransportFlusher sending entries to a broker.
func (b *Builder[E]) WithFlusher(f FlushFunc[E]) *Builder[E] {
	b.flusher = f
	return b
}

func (b *Builder[E]) WithMiddleware(mw ...FlushMiddleware[E]) *Builder[E] {
	if len(mw) == 0 {
		return b
	}
	b.middlewares = append(b.middlewares, mw...)
	return b
}

func (b *Builder[E]) WithObserver(obs ...Observer) *Builder[E] {
	for _, o := range obs {
		if o != nil {
			b.observers = append(b.observers, o)
		}
	}
	return b
}

func (b *Builder[E]) WithLogger(l *xlog.Logger) *Builder[E] {
	b.logger = l
	return b
}

func (b *Builder[E]) WithClock(c xclock.Clock) *Builder[E] {
	b.clock = c
	return b
}

func (b *Builder[E]) Build() (*Dispatcher[E], error) {
	if b.publisher == nil {
		return nil, ErrNoPublisher
	}

	arbiter := b.arbiter
	if arbiter == nil {
		arbiter = AlwaysDelay[E]
	}
	onFailure := b.onFailure
	if onFailure == nil {
		onFailure = Rethrow[E]
	}
	flusher := b.flusher
	if flusher == nil {
		flusher = Forward(b.publisher)
	}

	clk := b.clock
	if clk == nil {
		clk = xclock.Default()
	}
	lg := b.logger
	if lg == nil {
		lg = xlog.Default()
	}

	// Recovery sits innermost so configured middlewares see panics as errors.
	flush := Chain(RecoveryMiddleware[E]()(flusher), b.middlewares...)

	d := &Dispatcher[E]{
		publisher: b.publisher,
		enabled:   !b.disabled,
		arbiter:   arbiter,
		onFailure: onFailure,
		flush:     flush,
		clock:     clk,
		logger:    lg,
		metrics:   &dispatcherMetrics{},
	}

	for _, o := range b.observers {
		d.AddObserver(o)
	}

	return d, nil
}

// BuildRegistry builds a RegistryDispatcher. The wrapped publisher must
// implement Registry.
func (b *Builder[E]) BuildRegistry() (*RegistryDispatcher[E], error) {
	reg, ok := b.publisher.(Registry[E])
	if !ok {
		return nil, ErrNotRegistry
	}
	d, err := b.Build()
	if err != nil {
		return nil, err
	}
	return &RegistryDispatcher[E]{Dispatcher: d, registry: reg}, nil
}

// New constructs a Dispatcher via Builder.
func New[E any](p Publisher[E], init func(b *Builder[E])) (*Dispatcher[E], error) {
	b := NewBuilder(p)
	if init != nil {
		init(b)
	}
	return b.Build()
}
