package server

import (
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/cicconee/freight-app/internal/app"
	"github.com/cicconee/freight-app/internal/quote"
	"github.com/cicconee/freight-app/internal/session"
	"github.com/cicconee/freight-app/internal/tariff"
	"github.com/cicconee/freight-app/internal/workbook"
)

// previewRows is how many data rows of each sheet an upload returns.
const previewRows = 5

type Handler struct {
	logger      *log.Logger
	tariffs     *tariff.Service
	sessions    *session.Store
	tokens      *session.Tokens
	quotes      *quote.Service
	uploadLimit int64
	sessionTTL  time.Duration
}

func NewHandler(l *log.Logger) *Handler {
	return &Handler{
		logger: l,
	}
}

func (h *Handler) NewLogWriter(w http.ResponseWriter, r *http.Request) *LogWriter {
	return NewLogWriter(h.logger, w, r)
}

func (h *Handler) HelloWorld() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.NewLogWriter(w, r).Write(Response{
			Status: http.StatusOK,
			Body:   MessageResponse{Message: "LKW-Frachtenrechner bereit. Bitte laden Sie eine Tarifdatei hoch."},
		})
	}
}

type sheetPreview struct {
	Name    string     `json:"name"`
	Rows    int        `json:"rows"`
	Preview [][]string `json:"preview"`
}

// HandleUpload ingests the files of the multipart field "file". On
// success the tariff replaces the tariff of the caller's session, or a
// new session is started.
func (h *Handler) HandleUpload() http.HandlerFunc {
	type res struct {
		Message    string           `json:"message"`
		Source     string           `json:"source"`
		Sheets     []sheetPreview   `json:"sheets"`
		Zones      int              `json:"zones"`
		Brackets   int              `json:"brackets"`
		Countries  []string         `json:"countries"`
		Duplicates []tariff.ZoneKey `json:"duplicates"`
		LoadedAt   time.Time        `json:"loaded_at"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		writer := h.NewLogWriter(w, r)

		r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit)
		if err := r.ParseMultipartForm(h.uploadLimit); err != nil {
			h.logger.Printf("HandleUpload: failed to parse multipart form: %v", err)
			writer.WriteError(uploadFormError(err))
			return
		}
		defer r.MultipartForm.RemoveAll()

		files, closeFiles, err := openUploads(r.MultipartForm.File["file"])
		defer closeFiles()
		if err != nil {
			h.logger.Printf("HandleUpload: failed to open upload: %v", err)
			writer.WriteError(err)
			return
		}

		t, wb, err := h.tariffs.Ingest(files)
		if err != nil {
			h.logger.Printf("HandleUpload: failed to ingest upload: %v", err)
			writer.WriteError(err)
			return
		}

		// A new upload replaces the tariff of an existing session.
		var sess session.Session
		if current, err := resolveSession(r, h.tokens, h.sessions); err == nil {
			sess = h.sessions.Put(current.ID, t)
		} else {
			sess = h.sessions.Create(t)
		}

		if err := setSessionCookie(w, h.tokens, sess.ID, h.sessionTTL); err != nil {
			h.sessions.Delete(sess.ID)
			h.logger.Printf("HandleUpload: failed to set session cookie (session=%s): %v", sess.ID, err)
			writer.WriteError(err)
			return
		}

		writer.Write(Response{
			Status: http.StatusOK,
			Body: res{
				Message:    "Datei erfolgreich geladen. Die Tarifdaten wurden für die Sitzung gespeichert.",
				Source:     t.Source,
				Sheets:     previews(wb),
				Zones:      len(t.Zones),
				Brackets:   len(t.Rates),
				Countries:  t.Countries(),
				Duplicates: t.Duplicates,
				LoadedAt:   t.LoadedAt,
			},
		})
	}
}

func uploadFormError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return app.NewServerResponseError(err,
			fmt.Sprintf("Die Datei ist zu groß (maximal %d MB)", maxErr.Limit>>20),
			http.StatusRequestEntityTooLarge)
	}

	return app.NewServerResponseError(err,
		"Bitte laden Sie eine Tarifdatei hoch",
		http.StatusBadRequest)
}

// openUploads opens every file header. The returned func closes all
// opened files and must be called even if an error is returned.
func openUploads(headers []*multipart.FileHeader) ([]tariff.File, func(), error) {
	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	files := make([]tariff.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, app.NewServerResponseError(
				fmt.Errorf("opening %q: %w", fh.Filename, err),
				"Die Datei konnte nicht gelesen werden",
				http.StatusBadRequest)
		}
		opened = append(opened, f)
		files = append(files, tariff.File{Name: fh.Filename, Reader: f})
	}

	return files, closeAll, nil
}

func previews(wb *workbook.Workbook) []sheetPreview {
	sheets := []sheetPreview{}
	for _, s := range wb.Sheets() {
		sheets = append(sheets, sheetPreview{
			Name:    s.Name,
			Rows:    s.Len(),
			Preview: s.Head(previewRows),
		})
	}

	return sheets
}

// HandleCountries lists the countries of the session tariff.
func (h *Handler) HandleCountries() http.HandlerFunc {
	type res struct {
		Countries []string `json:"countries"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sessionFrom(r.Context())

		h.NewLogWriter(w, r).Write(Response{
			Status: http.StatusOK,
			Body:   res{Countries: sess.Tariff.Countries()},
		})
	}
}

// HandlePrefixes lists the postal prefixes of a country.
func (h *Handler) HandlePrefixes() http.HandlerFunc {
	type res struct {
		Country  string   `json:"country"`
		Prefixes []string `json:"prefixes"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sessionFrom(r.Context())
		writer := h.NewLogWriter(w, r)

		country := r.URL.Query().Get("country")
		if country == "" {
			writer.WriteError(&QueryParameterError{
				Msg:   "Bitte wählen Sie ein Land",
				error: errors.New("missing country"),
			})
			return
		}

		writer.Write(Response{
			Status: http.StatusOK,
			Body:   res{Country: country, Prefixes: sess.Tariff.Prefixes(country)},
		})
	}
}

// HandleQuote computes a shipping price with the session tariff.
func (h *Handler) HandleQuote() http.HandlerFunc {
	type res struct {
		Message string        `json:"message"`
		Result  tariff.Result `json:"result"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sessionFrom(r.Context())
		writer := h.NewLogWriter(w, r)

		q, err := ParseQuery(r.URL.Query())
		if err != nil {
			writer.WriteError(err)
			return
		}

		result, err := h.tariffs.Quote(r.Context(), sess.ID, sess.Tariff, q)
		if err != nil {
			h.logger.Printf("HandleQuote: lookup failed (session=%s, country=%q, plz=%q, weight=%v): %v",
				sess.ID, q.Country, q.Prefix, q.WeightKg, err)
			writer.WriteError(err)
			return
		}

		writer.Write(Response{
			Status: http.StatusOK,
			Body:   res{Message: result.Message(), Result: result},
		})
	}
}

// HandleRecentQuotes lists the most recent quotes of the session.
func (h *Handler) HandleRecentQuotes() http.HandlerFunc {
	type res struct {
		Quotes []quote.Quote `json:"quotes"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sessionFrom(r.Context())
		writer := h.NewLogWriter(w, r)

		if h.quotes == nil {
			writer.WriteError(app.NewServerResponseError(
				errors.New("quote log disabled"),
				"Das Preisprotokoll ist nicht aktiviert",
				http.StatusNotFound))
			return
		}

		limit, err := ParseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			writer.WriteError(err)
			return
		}

		quotes, err := h.quotes.Recent(r.Context(), sess.ID, limit)
		if err != nil {
			h.logger.Printf("HandleRecentQuotes: %v (session=%s)", err, sess.ID)
			writer.WriteError(err)
			return
		}

		writer.Write(Response{
			Status: http.StatusOK,
			Body:   res{Quotes: quotes},
		})
	}
}

// HandleEndSession ends the session and discards its tariff.
func (h *Handler) HandleEndSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sessionFrom(r.Context())
		h.sessions.Delete(sess.ID)

		// Replace the cookie renewed by SessionValidater.
		w.Header().Del("Set-Cookie")
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookieKey,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})

		h.NewLogWriter(w, r).Write(Response{
			Status: http.StatusOK,
			Body:   MessageResponse{Message: "Sitzung beendet. Die Tarifdaten wurden verworfen."},
		})
	}
}
