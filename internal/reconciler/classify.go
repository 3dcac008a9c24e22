package reconciler

import (
	"errors"

	"github.com/ampwave/ampwave/internal/ampache"
)

// User-facing messages for error conditions that have no server-supplied
// text worth showing.
const (
	msgCannotReachServer = "cannot reach the server, showing saved data"
	msgNoResults         = "no results"
	msgDuplicate         = "item already exists"
)

// classify maps an operation failure to its side effects and user-facing
// message. It reports whether the error is suppressed: a suppressed error
// carries no message and must not terminate a fetch with an Error emission.
//
// Side effects by category:
//   - server not configured: suppressed, nothing happens
//   - account: stored session, credentials, user and cached data are
//     cleared, because the server has rejected the identity behind them
//   - everything else: message published, reporter invoked
func (r *Reconciler) classify(label string, err error) (msg string, suppressed bool) {
	if errors.Is(err, ampache.ErrServerNotConfigured) {
		r.log.Debug("no server configured, skipping remote call", "op", label)
		return "", true
	}

	var serverErr *ampache.ServerError
	var transportErr *ampache.TransportError
	var statusErr *ampache.StatusError

	switch {
	case errors.As(err, &serverErr):
		switch serverErr.Category() {
		case ampache.CategoryAccount:
			r.forceLogout(label)
			msg = serverErr.Message
		case ampache.CategoryEmpty:
			msg = msgNoResults
		case ampache.CategoryDuplicate:
			msg = msgDuplicate
		default:
			msg = serverErr.Message
		}
		r.log.Warn("server rejected request", "op", label,
			"code", serverErr.Code, "category", serverErr.Category().String())
	case errors.As(err, &transportErr):
		msg = msgCannotReachServer
		r.log.Warn("request failed in transit", "op", label, "err", transportErr)
	case errors.As(err, &statusErr):
		msg = statusErr.Error()
		r.log.Warn("unexpected http status", "op", label, "code", statusErr.Code)
	default:
		msg = err.Error()
		r.log.Error("unclassified error", "op", label, "err", err)
	}

	r.report(err)
	r.Messages.Set(msg)
	return msg, false
}
