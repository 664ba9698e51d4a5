package summarizeapi

import "fmt"

// TransportError means no response was obtained from the endpoint.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("Request failed with status code %d", e.StatusCode)
	}
	return fmt.Sprintf("Request failed with status code %d: %s", e.StatusCode, e.Body)
}

// MalformedResponseError is returned when a 2xx body does not carry a string summary.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return "malformed summarize response: " + e.Reason + ": " + e.Err.Error()
	}
	return "malformed summarize response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
