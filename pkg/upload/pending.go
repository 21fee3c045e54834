package upload

import "context"

// Pending is a value that is not available yet, typically file content that
// is still being read or downloaded.
type Pending interface {
	Resolve(ctx context.Context) (any, error)
}

// Future is a one-shot Pending backed by a goroutine.
type Future struct {
	done chan struct{}
	val  any
	err  error
}

// Go starts fn in its own goroutine and returns a Future for its result.
func Go(ctx context.Context, fn func(ctx context.Context) (any, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.val, f.err = fn(ctx)
	}()
	return f
}

// GoFile is Go for producers of *File.
func GoFile(ctx context.Context, fn func(ctx context.Context) (*File, error)) *Future {
	return Go(ctx, func(ctx context.Context) (any, error) {
		file, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return file, nil
	})
}

// Resolved returns a Future that is already complete with v.
func Resolved(v any) *Future {
	f := &Future{done: make(chan struct{}), val: v}
	close(f.done)
	return f
}

// Failed returns a Future that is already complete with err.
func Failed(err error) *Future {
	f := &Future{done: make(chan struct{}), err: err}
	close(f.done)
	return f
}

// Resolve waits for the result or for ctx to end.
func (f *Future) Resolve(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// resolveValue unwraps v until it is no longer Pending.
func resolveValue(ctx context.Context, v any) (any, error) {
	for {
		p, ok := v.(Pending)
		if !ok || isAbsent(p) {
			return v, nil
		}
		next, err := p.Resolve(ctx)
		if err != nil {
			return nil, err
		}
		v = next
	}
}
