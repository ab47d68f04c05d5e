package optimistic

// Result is the outcome of the background confirmation of an optimistic write.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a confirmed value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps a failed confirmation.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsOk reports whether the confirmation succeeded.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Value returns the confirmed value and the error, if any.
func (r Result[T]) Value() (T, error) {
	return r.value, r.err
}

// Error returns the failure or nil.
func (r Result[T]) Error() error {
	return r.err
}
