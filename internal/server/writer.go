package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
)

type LogWriter struct {
	logger *log.Logger
	rw     http.ResponseWriter
	r      *http.Request
}

func NewLogWriter(l *log.Logger, rw http.ResponseWriter, r *http.Request) *LogWriter {
	return &LogWriter{l, rw, r}
}

func (l *LogWriter) log(format string, v ...any) {
	l.logger.Println(fmt.Sprintf(format, v...))
}

func (l *LogWriter) Write(r Response) {
	l.rw.Header().Set("Content-Type", "application/json")
	l.rw.WriteHeader(r.Status)
	if err := json.NewEncoder(l.rw).Encode(r.Body); err != nil {
		l.log("*LogWriter.Write: failed to write json to http.ResponseWriter: %v\n", err)
	}
}

// ServerErrorResponser is implemented by errors that carry a status code
// and a message safe to return to the client.
type ServerErrorResponser interface {
	ServerErrorResponse() (int, string)
}

// WriteError writes err as an ErrorResponse. Errors that do not
// implement ServerErrorResponser are written as a generic 500 and
// logged.
func (l *LogWriter) WriteError(err error) {
	errResp := ErrorResponse{
		Status:   http.StatusInternalServerError,
		ErrorMsg: "Etwas ist schiefgelaufen",
	}

	var apiError ServerErrorResponser
	if errors.As(err, &apiError) {
		errResp.Status, errResp.ErrorMsg = apiError.ServerErrorResponse()
	}

	if errResp.Status >= http.StatusInternalServerError {
		l.log("%s %s: %v", l.r.Method, l.r.URL.Path, err)
	}

	l.Write(errResp.AsResponse())
}
