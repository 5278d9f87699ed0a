package twelvedata

import "fmt"

// TransportError indicates the provider could not be reached or answered
// with a non-success HTTP status. The wrapped error, when present, is the
// underlying network failure.
type TransportError struct {
	Status int // HTTP status code, 0 when the request never completed
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("twelvedata: transport failure: %v", e.Err)
	}
	return fmt.Sprintf("twelvedata: unexpected status %d", e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProviderError indicates the provider answered with a structured
// application-level error payload.
type ProviderError struct {
	Code    int
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("twelvedata: provider error %d: %s", e.Code, e.Message)
}

// ParseError indicates a malformed bar record in an otherwise successful
// response. A single bad record fails the whole fetch so malformed data
// never mixes silently with valid rows.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("twelvedata: bad %s value %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
