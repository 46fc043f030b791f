package api

import "fmt"

// RequestFailedError is returned when the API could not be reached or
// answered with a non-2xx status.
type RequestFailedError struct {
	Method string
	URL    string

	// StatusCode is zero for transport failures.
	StatusCode int
	Status     string

	// Message is the API's own explanation, if it sent one.
	Message string

	Err error
}

func (e *RequestFailedError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}

	s := fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
	if e.Message != "" {
		s = fmt.Sprintf("%s: %s", s, e.Message)
	}
	if e.Err != nil {
		s = fmt.Sprintf("%s: %v", s, e.Err)
	}
	return s
}

func (e *RequestFailedError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when a 2xx response cannot be
// rendered: it isn't a JSON envelope, or it carries no body, error or
// message.
type MalformedResponseError struct {
	URL    string
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response from %s: %s: %v", e.URL, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed response from %s: %s", e.URL, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}
