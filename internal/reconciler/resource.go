package reconciler

// ResourceKind discriminates the states a fetch can emit.
type ResourceKind int

const (
	// KindLoading marks the start (On=true) and end (On=false) of work.
	KindLoading ResourceKind = iota
	// KindSuccess carries data. Early emissions hold cached data only;
	// the post-refresh emission also carries the network payload.
	KindSuccess
	// KindError is terminal for the fetch that emitted it.
	KindError
)

// Resource is one emission of a cache-first fetch. Consumers typically see
// the sequence Loading(on), Success(cached), Success(fresh), Loading(off);
// an error replaces the second Success with a single terminal Error.
type Resource[T any] struct {
	Kind ResourceKind
	On   bool // KindLoading only
	Data T    // KindSuccess only
	// NetworkData is set on the Success emitted after a remote refresh and
	// nil when the emission came from cache alone.
	NetworkData *T
	Err         error // KindError only
}

func loading[T any](on bool) Resource[T] {
	return Resource[T]{Kind: KindLoading, On: on}
}

func success[T any](data T, network *T) Resource[T] {
	return Resource[T]{Kind: KindSuccess, Data: data, NetworkData: network}
}

func failure[T any](err error) Resource[T] {
	return Resource[T]{Kind: KindError, Err: err}
}

// Collect drains ch into a slice. Intended for tests and one-shot CLI
// consumers that want the full emission history.
func Collect[T any](ch <-chan Resource[T]) []Resource[T] {
	var out []Resource[T]
	for r := range ch {
		out = append(out, r)
	}
	return out
}

// Final returns the last Success or Error emission from ch, draining it.
// Returns a zero Resource when the fetch emitted neither.
func Final[T any](ch <-chan Resource[T]) Resource[T] {
	var last Resource[T]
	for r := range ch {
		if r.Kind != KindLoading {
			last = r
		}
	}
	return last
}
