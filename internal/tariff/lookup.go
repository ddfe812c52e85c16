package tariff

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultWeightKg is used when a query does not name a weight.
const DefaultWeightKg = 10.0

// Query asks for the price of shipping WeightKg to the area with the
// given country and postal prefix.
type Query struct {
	Country  string
	Prefix   string
	WeightKg float64
}

// Result is a successful lookup.
type Result struct {
	Country  string  `json:"country"`
	Prefix   string  `json:"prefix"`
	WeightKg float64 `json:"weight_kg"`
	Zone     int     `json:"zone"`
	ZoneCode string  `json:"zone_code"`
	Bracket  string  `json:"bracket"`
	Price    float64 `json:"price"`
}

var printer = message.NewPrinter(language.German)

// Message returns the result as a sentence for the user.
func (r Result) Message() string {
	return printer.Sprintf("Versandpreis: %.2f EUR für Zone %s bei %v kg", r.Price, r.ZoneCode, r.WeightKg)
}

// ComputePrice finds the zone, then the bracket, then the price. The
// first failing step ends the lookup.
func ComputePrice(zones ZoneTable, rates RateTable, q Query) (Result, error) {
	zone, err := FindZone(zones, q.Country, q.Prefix)
	if err != nil {
		return Result{}, err
	}

	bracket, err := FindBracket(rates, q.WeightKg)
	if err != nil {
		return Result{}, err
	}

	price, err := PriceFor(bracket, zone)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Country:  normalize(q.Country),
		Prefix:   normalizePrefix(q.Prefix),
		WeightKg: q.WeightKg,
		Zone:     zone,
		ZoneCode: ZoneCode(zone),
		Bracket:  bracket.Label,
		Price:    price,
	}, nil
}

// Tariff is an uploaded tariff. It is never modified after Load returns
// and may be shared between goroutines.
type Tariff struct {
	Zones      ZoneTable
	Rates      RateTable
	Source     string
	LoadedAt   time.Time
	Duplicates []ZoneKey
}

// Price computes the price of q with this tariff.
func (t *Tariff) Price(q Query) (Result, error) {
	return ComputePrice(t.Zones, t.Rates, q)
}

func (t *Tariff) Countries() []string {
	return t.Zones.Countries()
}

func (t *Tariff) Prefixes(country string) []string {
	return t.Zones.Prefixes(country)
}
