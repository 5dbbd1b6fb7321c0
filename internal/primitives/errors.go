package primitives

import "errors"

// Error taxonomy. Public operations wrap one of these with fmt.Errorf("%w: ...")
// so callers can branch with errors.Is and still show a specific reason.
var (
	// ErrValidation reports bad input: a missing actor, a route with too few
	// points, or builder edits without an active session.
	ErrValidation = errors.New("validation error")

	// ErrState reports an operation invalid in the current lifecycle state.
	ErrState = errors.New("state error")

	// ErrAsset reports a required visual asset that is unavailable even after
	// fallback generation.
	ErrAsset = errors.New("asset error")

	// ErrRuntime reports an unexpected failure inside a single participant's
	// tick. It is contained at the controller boundary.
	ErrRuntime = errors.New("runtime error")
)

// ErrorKind returns a short label for the taxonomy member err wraps, or
// "unknown".
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrState):
		return "state"
	case errors.Is(err, ErrAsset):
		return "asset"
	case errors.Is(err, ErrRuntime):
		return "runtime"
	default:
		return "unknown"
	}
}
