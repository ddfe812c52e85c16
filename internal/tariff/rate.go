package tariff

import (
	"fmt"
	"math"
	"net/http"
	"regexp"
	"sort"
	"strconv"
)

var boundRegex = regexp.MustCompile(`\d+`)

// RawRateRow is a row of the GWK sheet as uploaded. Prices maps a zone
// code ("Z03") to the price of this weight class.
type RawRateRow struct {
	Label  string
	Prices map[string]float64
}

// RateRow is a weight bracket. Bound is the upper weight limit in kg,
// read from the first digit sequence of Label.
type RateRow struct {
	Label  string             `json:"label"`
	Bound  float64            `json:"bound_kg"`
	Prices map[string]float64 `json:"prices"`
}

// RateTable holds the brackets ordered by Bound ascending. Brackets
// with equal bounds keep their upload order.
type RateTable []RateRow

// ParseBound returns the first digit sequence in label as a weight.
func ParseBound(label string) (float64, error) {
	digits := boundRegex.FindString(label)
	if digits == "" {
		return 0, newError(ErrWeightParse,
			fmt.Errorf("label %q", label),
			fmt.Sprintf("Gewichtsklasse %q enthält kein Gewicht", label),
			http.StatusUnprocessableEntity)
	}

	bound, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, IngestionError(fmt.Errorf("parsing bound of %q: %w", label, err))
	}

	return bound, nil
}

// BuildRateTable parses the bound of every raw row and sorts the rows
// ascending. It fails if any label lacks a digit sequence.
func BuildRateTable(raw []RawRateRow) (RateTable, error) {
	table := make(RateTable, 0, len(raw))
	for i, r := range raw {
		bound, err := ParseBound(r.Label)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}

		prices := make(map[string]float64, len(r.Prices))
		for code, price := range r.Prices {
			prices[code] = price
		}

		table = append(table, RateRow{
			Label:  r.Label,
			Bound:  bound,
			Prices: prices,
		})
	}

	sort.SliceStable(table, func(i, j int) bool {
		return table[i].Bound < table[j].Bound
	})

	return table, nil
}

// MaxBound returns the largest bound of the table, or 0 if it is empty.
func (t RateTable) MaxBound() float64 {
	if len(t) == 0 {
		return 0
	}

	return t[len(t)-1].Bound
}

// FindBracket returns the smallest bracket whose bound is greater than or
// equal to weightKg.
func FindBracket(rates RateTable, weightKg float64) (RateRow, error) {
	if math.IsNaN(weightKg) || weightKg < 0 {
		return RateRow{}, newError(ErrInvalidWeight,
			fmt.Errorf("weight=%v", weightKg),
			"Das Gewicht muss eine nicht-negative Zahl sein",
			http.StatusBadRequest)
	}

	i := sort.Search(len(rates), func(i int) bool {
		return rates[i].Bound >= weightKg
	})
	if i == len(rates) {
		return RateRow{}, newError(ErrBracketNotFound,
			fmt.Errorf("weight=%v, max bound=%v", weightKg, rates.MaxBound()),
			fmt.Sprintf("Keine Gewichtsklasse für %v kg (Maximum %v kg)", weightKg, rates.MaxBound()),
			http.StatusUnprocessableEntity)
	}

	return rates[i], nil
}

// ZoneCode formats a zone as used in the GWK column headers.
func ZoneCode(zone int) string {
	return fmt.Sprintf("Z%02d", zone)
}

// PriceFor returns the price of row for zone. Zones outside 1..99 have
// no two digit code and never have a price.
func PriceFor(row RateRow, zone int) (float64, error) {
	code := ZoneCode(zone)
	price, ok := row.Prices[code]
	if zone <= 0 || zone > 99 || !ok {
		return 0, newError(ErrPriceColumnMissing,
			fmt.Errorf("bracket=%q, zone=%d", row.Label, zone),
			fmt.Sprintf("Kein Preis für Zone %s in Gewichtsklasse %q", code, row.Label),
			http.StatusUnprocessableEntity)
	}

	return price, nil
}
