package server

type Response struct {
	Status int
	Body   any
}

type ErrorResponse struct {
	Status   int    `json:"-"`
	ErrorMsg string `json:"error_msg"`
}

func (e *ErrorResponse) AsResponse() Response {
	return Response{
		Status: e.Status,
		Body:   e,
	}
}

// MessageResponse is the body of responses that only carry a message
// for the user.
type MessageResponse struct {
	Message string `json:"message"`
}
