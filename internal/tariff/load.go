package tariff

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cicconee/freight-app/internal/workbook"
	"github.com/jszwec/csvutil"
)

// Names of the sheets a tariff workbook must contain.
const (
	RateSheet = "GWK"
	ZoneSheet = "Zoneneinteilung"
)

// RequiredSheets lists the sheets Load needs, in the order they are
// reported when missing.
var RequiredSheets = []string{RateSheet, ZoneSheet}

var zoneColumnRegex = regexp.MustCompile(`^Z\d{2}$`)

// zoneRecord is a row of the Zoneneinteilung sheet.
type zoneRecord struct {
	Country string     `csv:"Land"`
	Prefix  string     `csv:"PLZ_2"`
	Zone    zoneNumber `csv:"Zone"`
}

// zoneNumber accepts integers written as "3" or "3.0".
type zoneNumber int

func (z *zoneNumber) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		return errors.New("empty zone")
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return fmt.Errorf("zone %q is not an integer", s)
	}

	*z = zoneNumber(f)
	return nil
}

// rateRecord is the fixed part of a GWK row. The zone price columns
// are read from the unused columns of the record.
type rateRecord struct {
	Label string `csv:"GW"`
}

// Load builds a tariff from the GWK and Zoneneinteilung sheets of wb.
// source names the upload in results and logs.
func Load(wb *workbook.Workbook, source string) (*Tariff, error) {
	var missing []string
	for _, name := range RequiredSheets {
		if _, ok := wb.Sheet(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, newError(ErrMissingRequiredTable,
			fmt.Errorf("sheets %v (found %v)", missing, wb.Names()),
			fmt.Sprintf("Die Datei fehlt folgende notwendige Tabellenblätter: %s", strings.Join(missing, ", ")),
			http.StatusUnprocessableEntity)
	}

	zoneSheet, _ := wb.Sheet(ZoneSheet)
	zones, err := ReadZoneTable(zoneSheet)
	if err != nil {
		return nil, err
	}

	rateSheet, _ := wb.Sheet(RateSheet)
	raw, err := ReadRawRates(rateSheet)
	if err != nil {
		return nil, err
	}

	rates, err := BuildRateTable(raw)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", RateSheet, err)
	}

	return &Tariff{
		Zones:      zones,
		Rates:      rates,
		Source:     source,
		LoadedAt:   time.Now().UTC(),
		Duplicates: zones.Duplicates(),
	}, nil
}

func newSheetDecoder(s *workbook.Sheet) (*csvutil.Decoder, error) {
	dec, err := csvutil.NewDecoder(s.Reader())
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, IngestionError(fmt.Errorf("sheet %s is empty", s.Name))
		}
		return nil, IngestionError(fmt.Errorf("sheet %s: %w", s.Name, err))
	}
	dec.DisallowMissingColumns = true

	return dec, nil
}

// ReadZoneTable decodes the rows of the zone sheet in sheet order.
func ReadZoneTable(s *workbook.Sheet) (ZoneTable, error) {
	dec, err := newSheetDecoder(s)
	if err != nil {
		return nil, err
	}

	zones := ZoneTable{}
	for line := 2; ; line++ {
		var rec zoneRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, IngestionError(fmt.Errorf("sheet %s row %d: %w", s.Name, line, err))
		}

		zones = append(zones, ZoneRow{
			Country: normalize(rec.Country),
			Prefix:  normalizePrefix(rec.Prefix),
			Zone:    int(rec.Zone),
		})
	}

	return zones, nil
}

// ReadRawRates decodes the rows of the rate sheet. Every column whose
// header is a zone code becomes a price; empty cells are left out. If a
// zone code heads more than one column only the first is read.
func ReadRawRates(s *workbook.Sheet) ([]RawRateRow, error) {
	dec, err := newSheetDecoder(s)
	if err != nil {
		return nil, err
	}

	var priceColumns map[string]int
	raw := []RawRateRow{}
	for line := 2; ; line++ {
		var rec rateRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, IngestionError(fmt.Errorf("sheet %s row %d: %w", s.Name, line, err))
		}

		record := dec.Record()
		prices := map[string]float64{}
		if priceColumns == nil {
			priceColumns = zoneColumns(dec.Header(), dec.Unused())
		}

		for code, i := range priceColumns {
			if i >= len(record) || record[i] == "" {
				continue
			}

			price, err := parsePrice(record[i])
			if err != nil {
				return nil, IngestionError(fmt.Errorf("sheet %s row %d column %s: %w", s.Name, line, code, err))
			}
			prices[code] = price
		}

		raw = append(raw, RawRateRow{Label: rec.Label, Prices: prices})
	}

	return raw, nil
}

// zoneColumns maps each zone code among the unused columns to the index
// of the first column it heads.
func zoneColumns(header []string, unused []int) map[string]int {
	columns := map[string]int{}
	for _, i := range unused {
		code := header[i]
		if !zoneColumnRegex.MatchString(code) {
			continue
		}
		if _, seen := columns[code]; seen {
			continue
		}
		columns[code] = i
	}

	return columns
}

// parsePrice parses a price written either with a decimal point or a
// decimal comma. Whichever separator comes last is the decimal
// separator, the other one groups thousands ("1.234,50", "1,234.50").
func parsePrice(s string) (float64, error) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "€"))
	if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	} else {
		s = strings.ReplaceAll(s, ",", "")
	}

	price, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("price %q is not a number", s)
	}

	return price, nil
}
