package usecase

// Outcome is the result of one fallible step. Stages never return errors to
// the orchestrator; they return an Outcome and pick a fallback with OrElse.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Succeed wraps a value.
func Succeed[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v}
}

// Fail wraps an error.
func Fail[T any](err error) Outcome[T] {
	return Outcome[T]{Err: err}
}

// From adapts a (value, error) pair.
func From[T any](v T, err error) Outcome[T] {
	if err != nil {
		return Fail[T](err)
	}
	return Succeed(v)
}

// Then feeds a successful value into next and passes failures through.
func Then[T, U any](o Outcome[T], next func(T) (U, error)) Outcome[U] {
	if o.Err != nil {
		return Fail[U](o.Err)
	}
	return From(next(o.Value))
}

// Failed reports whether the step failed.
func (o Outcome[T]) Failed() bool {
	return o.Err != nil
}

// OrElse returns the value, or the fallback derived from the error.
func (o Outcome[T]) OrElse(fallback func(err error) T) T {
	if o.Err != nil {
		return fallback(o.Err)
	}
	return o.Value
}
