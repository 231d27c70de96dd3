package ports

// Transport is the call side of the host bridge: fire-and-forget named
// invokes. Results never come back through Invoke; the host raises named
// events asynchronously and without correlation tokens.
type Transport interface {
	// Available reports whether the host exposes the expected call surface.
	Available() bool

	// Invoke issues a named host operation. A non-nil error is the
	// synchronous rejection path (malformed arguments, dead link); it is
	// never followed by an event for the same call.
	Invoke(method string, args ...any) error
}
