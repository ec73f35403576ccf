package task

// PayloadAs extracts a CancelledError's payload as type P from err. err may
// be the error an AwaitCondition call returned, or any error obtained via
// errors.As-compatible wrapping of a *CancelledError.
func PayloadAs[P any](err error) (P, bool) {
	var zero P
	ce, ok := AsCancelledError(err)
	if !ok {
		return zero, false
	}
	p, ok := ce.Payload.(P)
	if !ok {
		return zero, false
	}
	return p, true
}
