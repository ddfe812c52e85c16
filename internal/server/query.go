package server

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cicconee/freight-app/internal/tariff"
)

type QueryParameterError struct {
	Msg string
	error
}

func (p *QueryParameterError) ServerErrorResponse() (int, string) {
	return http.StatusBadRequest, p.Msg
}

// ParseWeight parses a weight in kg. An empty string yields
// tariff.DefaultWeightKg. Both "7.5" and "7,5" are accepted.
//
// If parsing fails an error is returned as a QueryParameterError.
func ParseWeight(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return tariff.DefaultWeightKg, nil
	}

	weight, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return 0, &QueryParameterError{
			Msg:   "Ungültiges Gewicht",
			error: fmt.Errorf("failed to parse weight %q: %v", s, err),
		}
	}

	return weight, nil
}

// ParseQuery reads country, plz and weight from the query values.
func ParseQuery(v url.Values) (tariff.Query, error) {
	country := strings.TrimSpace(v.Get("country"))
	if country == "" {
		return tariff.Query{}, &QueryParameterError{
			Msg:   "Bitte wählen Sie ein Land",
			error: fmt.Errorf("missing country"),
		}
	}

	prefix := strings.TrimSpace(v.Get("plz"))
	if prefix == "" {
		return tariff.Query{}, &QueryParameterError{
			Msg:   "Bitte wählen Sie eine 2-stellige PLZ",
			error: fmt.Errorf("missing plz"),
		}
	}

	weight, err := ParseWeight(v.Get("weight"))
	if err != nil {
		return tariff.Query{}, err
	}

	return tariff.Query{
		Country:  country,
		Prefix:   prefix,
		WeightKg: weight,
	}, nil
}

// ParseLimit parses an optional positive limit.
func ParseLimit(s string) (int, error) {
	if s == "" {
		return 0, nil
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, &QueryParameterError{
			Msg:   "Ungültiges Limit",
			error: fmt.Errorf("failed to parse limit %q: %v", s, err),
		}
	}

	return n, nil
}
