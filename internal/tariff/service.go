package tariff

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/cicconee/freight-app/internal/workbook"
)

// Recorder is the interface that wraps the Record method.
//
// Record stores a successful quote that session computed with the
// tariff named source. It must not block the caller on slow storage.
type Recorder interface {
	Record(ctx context.Context, session string, source string, r Result)
}

// File is one uploaded file.
type File struct {
	Name   string
	Reader io.Reader
}

// Service ingests uploads and computes quotes.
type Service struct {
	Logger *log.Logger

	// Quotes receives every successful quote. It may be nil.
	Quotes Recorder
}

// New returns a pointer to a Service.
func New(l *log.Logger, quotes Recorder) *Service {
	return &Service{
		Logger: l,
		Quotes: quotes,
	}
}

// Ingest reads all files into one workbook and loads the tariff from
// it. An upload may be a single workbook or several files whose sheets
// are combined, such as GWK.csv and Zoneneinteilung.csv.
func (s *Service) Ingest(files []File) (*Tariff, *workbook.Workbook, error) {
	if len(files) == 0 {
		return nil, nil, newError(ErrIngestion,
			errors.New("no files"),
			"Bitte laden Sie eine Tarifdatei hoch",
			http.StatusBadRequest)
	}

	wb := workbook.New()
	names := make([]string, 0, len(files))
	for _, f := range files {
		read, err := workbook.Read(f.Name, f.Reader)
		if err != nil {
			return nil, nil, IngestionError(fmt.Errorf("file %q: %w", f.Name, err))
		}
		wb.Merge(read)
		names = append(names, f.Name)
	}

	source := strings.Join(names, ", ")
	t, err := Load(wb, source)
	if err != nil {
		return nil, nil, err
	}

	s.Logger.Printf("Service.Ingest: loaded tariff (source=%q, zones=%d, brackets=%d, duplicates=%d)",
		source, len(t.Zones), len(t.Rates), len(t.Duplicates))

	return t, wb, nil
}

// Quote computes the price of q with t and records it for session.
func (s *Service) Quote(ctx context.Context, session string, t *Tariff, q Query) (Result, error) {
	result, err := t.Price(q)
	if err != nil {
		return Result{}, err
	}

	if s.Quotes != nil {
		s.Quotes.Record(ctx, session, t.Source, result)
	}

	return result, nil
}
