package app

// ServerResponseError is returned by handlers and middleware for
// failures that are not tariff errors. It holds the HTTP status code
// and a message that is safe to show to the user.
//
// Use the ServerErrorResponse method to get the data that is safe
// to be displayed to external sources.
type ServerResponseError struct {
	// The wrapped error.
	Err error

	// The HTTP response body.
	Msg string

	// The HTTP status code.
	StatusCode int
}

// NewServerResponseError returns a pointer to a ServerResponseError
// set with the data provided.
func NewServerResponseError(err error, msg string, statusCode int) *ServerResponseError {
	return &ServerResponseError{
		Err:        err,
		Msg:        msg,
		StatusCode: statusCode,
	}
}

func (e *ServerResponseError) Error() string {
	if e.Err == nil {
		return e.Msg
	}

	return e.Err.Error()
}

func (e *ServerResponseError) Unwrap() error {
	return e.Err
}

// ServerErrorResponse returns the status code and the response body.
func (e *ServerResponseError) ServerErrorResponse() (int, string) {
	return e.StatusCode, e.Msg
}
