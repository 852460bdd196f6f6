// Package remotedata models the lifecycle of a single asynchronous fetch
// as a value: not asked, loading, success or failure. Screens render
// whichever variant is current instead of juggling nil checks and
// component-local loading flags.
package remotedata

type state uint8

const (
	stateNotAsked state = iota
	stateLoading
	stateSuccess
	stateFailure
	stateRefreshing
)

// RemoteData holds exactly one of its variants at a time. Values are
// replaced wholesale on every transition, never partially mutated.
// The zero value is NotAsked.
type RemoteData[T any] struct {
	state state
	value T
	err   error
}

func NotAsked[T any]() RemoteData[T] {
	return RemoteData[T]{state: stateNotAsked}
}

func Loading[T any]() RemoteData[T] {
	return RemoteData[T]{state: stateLoading}
}

func Success[T any](v T) RemoteData[T] {
	return RemoteData[T]{state: stateSuccess, value: v}
}

func Failure[T any](err error) RemoteData[T] {
	return RemoteData[T]{state: stateFailure, err: err}
}

// Refresh re-enters the loading phase. By default previous data is
// discarded and the result is plain Loading; callers that opt into
// stale-while-revalidate get the distinct Refreshing variant, which keeps
// the last successful value visible while the new fetch runs.
func Refresh[T any](rd RemoteData[T], keepStale bool) RemoteData[T] {
	if keepStale && (rd.state == stateSuccess || rd.state == stateRefreshing) {
		return RemoteData[T]{state: stateRefreshing, value: rd.value}
	}
	return Loading[T]()
}

func (rd RemoteData[T]) IsNotAsked() bool   { return rd.state == stateNotAsked }
func (rd RemoteData[T]) IsLoading() bool    { return rd.state == stateLoading }
func (rd RemoteData[T]) IsSuccess() bool    { return rd.state == stateSuccess }
func (rd RemoteData[T]) IsFailure() bool    { return rd.state == stateFailure }
func (rd RemoteData[T]) IsRefreshing() bool { return rd.state == stateRefreshing }

// Err returns the failure cause, or nil for any other variant.
func (rd RemoteData[T]) Err() error {
	if rd.state == stateFailure {
		return rd.err
	}
	return nil
}

// GetOrElse returns the carried value for Success (or the stale value for
// Refreshing) and the fallback otherwise.
func (rd RemoteData[T]) GetOrElse(fallback T) T {
	if rd.state == stateSuccess || rd.state == stateRefreshing {
		return rd.value
	}
	return fallback
}

// Map applies f to the carried value of Success or Refreshing and leaves
// NotAsked, Loading and Failure untouched.
func Map[T, U any](rd RemoteData[T], f func(T) U) RemoteData[U] {
	switch rd.state {
	case stateSuccess:
		return Success(f(rd.value))
	case stateRefreshing:
		return RemoteData[U]{state: stateRefreshing, value: f(rd.value)}
	case stateFailure:
		return Failure[U](rd.err)
	case stateLoading:
		return Loading[U]()
	default:
		return NotAsked[U]()
	}
}

// Fold dispatches to exactly one handler for the current variant.
func Fold[T, R any](
	rd RemoteData[T],
	onNotAsked func() R,
	onLoading func() R,
	onSuccess func(T) R,
	onFailure func(error) R,
) R {
	switch rd.state {
	case stateLoading:
		return onLoading()
	case stateSuccess:
		return onSuccess(rd.value)
	case stateFailure:
		return onFailure(rd.err)
	case stateRefreshing:
		// Stale-while-revalidate renders the retained value.
		return onSuccess(rd.value)
	default:
		return onNotAsked()
	}
}

// FoldStale is Fold with an explicit handler for the Refreshing variant,
// for screens that want to badge stale data while a refresh is in flight.
func FoldStale[T, R any](
	rd RemoteData[T],
	onNotAsked func() R,
	onLoading func() R,
	onSuccess func(T) R,
	onFailure func(error) R,
	onRefreshing func(T) R,
) R {
	if rd.state == stateRefreshing {
		return onRefreshing(rd.value)
	}
	return Fold(rd, onNotAsked, onLoading, onSuccess, onFailure)
}
