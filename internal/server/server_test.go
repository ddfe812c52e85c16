package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cicconee/freight-app/internal/quote"
	"github.com/cicconee/freight-app/internal/session"
	"github.com/cicconee/freight-app/internal/tariff"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	gwkCSV   = "GW;Z03;Z15\nbis 20 kg;12,50;\nbis 50 kg;20;30\n"
	zonesCSV = "Land;PLZ_2;Zone\nDeutschland;10;3\nDeutschland;80;15\nÖsterreich;10;7\n"
)

type upload struct {
	name    string
	content string
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	return newTestServerWithQuotes(t, nil)
}

// newTestServerWithQuotes starts a server whose quote log is quotes. A
// nil quotes disables the quote log.
func newTestServerWithQuotes(t *testing.T, quotes *quote.Service) *httptest.Server {
	t.Helper()

	logger := log.New(io.Discard, "", 0)
	var recorder tariff.Recorder
	if quotes != nil {
		recorder = quotes
	}

	s := &Server{
		Router:   chi.NewRouter(),
		Logger:   logger,
		Tariffs:  tariff.New(logger, recorder),
		Sessions: session.NewStore(),
		Tokens:   session.NewTokens([]byte("test-secret"), time.Hour),
		Quotes:   quotes,
	}

	h, err := s.Handler()
	require.NoError(t, err)

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func uploadRequest(t *testing.T, url string, files ...upload) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile("file", f.name)
		require.NoError(t, err)
		_, err = io.WriteString(part, f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url+"/tariffs", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(t *testing.T, req *http.Request, cookies ...*http.Cookie) (*http.Response, map[string]any) {
	t.Helper()

	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body := map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func get(t *testing.T, url string, cookies ...*http.Cookie) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return do(t, req, cookies...)
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()

	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieKey {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", sessionCookieKey)
	return nil
}

func uploadTariff(t *testing.T, ts *httptest.Server) *http.Cookie {
	t.Helper()

	resp, body := do(t, uploadRequest(t, ts.URL,
		upload{"GWK.csv", gwkCSV},
		upload{"Zoneneinteilung.csv", zonesCSV}))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	return sessionCookie(t, resp)
}

func TestUploadAndQuote(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, uploadRequest(t, ts.URL,
		upload{"GWK.csv", gwkCSV},
		upload{"Zoneneinteilung.csv", zonesCSV}))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, float64(3), body["zones"])
	assert.Equal(t, float64(2), body["brackets"])
	assert.Equal(t, []any{"Deutschland", "Österreich"}, body["countries"])
	assert.Len(t, body["sheets"], 2)
	cookie := sessionCookie(t, resp)

	resp, body = get(t, ts.URL+"/quote?country=Deutschland&plz=10&weight=15", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "Versandpreis: 12,50 EUR für Zone Z03 bei 15 kg", body["message"])
	result := body["result"].(map[string]any)
	assert.Equal(t, 12.5, result["price"])
	assert.Equal(t, "Z03", result["zone_code"])

	// Default weight is 10 kg.
	resp, body = get(t, ts.URL+"/quote?country=Deutschland&plz=10", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, float64(10), body["result"].(map[string]any)["weight_kg"])
}

func TestQuoteErrors(t *testing.T) {
	ts := newTestServer(t)
	cookie := uploadTariff(t, ts)

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"zone not found", "country=Frankreich&plz=75&weight=5", http.StatusNotFound},
		{"bracket not found", "country=Deutschland&plz=10&weight=60", http.StatusUnprocessableEntity},
		{"price column missing", "country=Deutschland&plz=80&weight=10", http.StatusUnprocessableEntity},
		{"invalid weight", "country=Deutschland&plz=10&weight=schwer", http.StatusBadRequest},
		{"negative weight", "country=Deutschland&plz=10&weight=-1", http.StatusBadRequest},
		{"missing country", "plz=10", http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+"/quote?"+tc.query, cookie)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.NotEmpty(t, body["error_msg"])
		})
	}
}

func TestQuoteWithoutSession(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/quote?country=Deutschland&plz=10")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body["error_msg"], "Tarifdatei")

	resp, _ = get(t, ts.URL+"/quote?country=Deutschland&plz=10", &http.Cookie{Name: sessionCookieKey, Value: "forged"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUploadMissingSheet(t *testing.T) {
	ts := newTestServer(t)

	resp, body := do(t, uploadRequest(t, ts.URL, upload{"GWK.csv", gwkCSV}))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body["error_msg"], "Zoneneinteilung")
	assert.Empty(t, resp.Cookies())
}

func TestUploadWithoutFile(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := do(t, uploadRequest(t, ts.URL))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, ts.URL+"/tariffs", bytes.NewBufferString("{}"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, _ = do(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestNewUploadReplacesTariff(t *testing.T) {
	ts := newTestServer(t)
	cookie := uploadTariff(t, ts)

	resp, body := do(t, uploadRequest(t, ts.URL,
		upload{"GWK.csv", "GW;Z03\nbis 20 kg;99\n"},
		upload{"Zoneneinteilung.csv", zonesCSV}), cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	cookie = sessionCookie(t, resp)

	resp, body = get(t, ts.URL+"/quote?country=Deutschland&plz=10&weight=15", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, float64(99), body["result"].(map[string]any)["price"])
}

func TestCountriesAndPrefixes(t *testing.T) {
	ts := newTestServer(t)
	cookie := uploadTariff(t, ts)

	resp, body := get(t, ts.URL+"/tariffs/countries", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"Deutschland", "Österreich"}, body["countries"])

	resp, body = get(t, ts.URL+"/tariffs/prefixes?country=Deutschland", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"10", "80"}, body["prefixes"])

	resp, _ = get(t, ts.URL+"/tariffs/prefixes", cookie)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQuoteRenewsSessionCookie(t *testing.T) {
	ts := newTestServer(t)
	cookie := uploadTariff(t, ts)

	resp, _ := get(t, ts.URL+"/quote?country=Deutschland&plz=10", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	renewed := sessionCookie(t, resp)
	assert.NotEmpty(t, renewed.Value)
	assert.Equal(t, int((30 * time.Minute).Seconds()), renewed.MaxAge)

	resp, _ = get(t, ts.URL+"/tariffs/countries", renewed)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestEndSession(t *testing.T) {
	ts := newTestServer(t)
	cookie := uploadTariff(t, ts)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/session", nil)
	require.NoError(t, err)
	resp, _ := do(t, req, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, resp.Cookies(), 1)
	cleared := sessionCookie(t, resp)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)

	resp, _ = get(t, ts.URL+"/quote?country=Deutschland&plz=10", cookie)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRecentQuotesDisabled(t *testing.T) {
	ts := newTestServer(t)
	cookie := uploadTariff(t, ts)

	resp, _ := get(t, ts.URL+"/quotes", cookie)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

type memQuoteStore struct {
	mu     sync.Mutex
	quotes []quote.Quote
}

func (m *memQuoteStore) InsertQuote(_ context.Context, q quote.Quote) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.quotes = append(m.quotes, q)
	return nil
}

func (m *memQuoteStore) SelectRecent(_ context.Context, session string, limit int) ([]quote.Quote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	quotes := []quote.Quote{}
	for _, q := range m.quotes {
		if q.Session == session && len(quotes) < limit {
			quotes = append(quotes, q)
		}
	}
	return quotes, nil
}

func TestRecentQuotesScopedToSession(t *testing.T) {
	quotes := quote.New(&memQuoteStore{}, log.New(io.Discard, "", 0), 1, 10)
	ts := newTestServerWithQuotes(t, quotes)

	first := uploadTariff(t, ts)
	second := uploadTariff(t, ts)

	resp, _ := get(t, ts.URL+"/quote?country=Deutschland&plz=10&weight=15", first)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = get(t, ts.URL+"/quote?country=Deutschland&plz=10&weight=40", second)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Wait for the queued writes.
	quotes.Close()

	resp, _ = get(t, ts.URL+"/quotes")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := get(t, ts.URL+"/quotes", first)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := body["quotes"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, 12.5, list[0].(map[string]any)["price"])
	assert.NotContains(t, list[0], "session")

	resp, body = get(t, ts.URL+"/quotes", second)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list = body["quotes"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, float64(20), list[0].(map[string]any)["price"])
}

func TestServerValidate(t *testing.T) {
	s := &Server{}
	_, err := s.Handler()
	assert.Error(t, err)
}
