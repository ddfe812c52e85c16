package tariff

import (
	"fmt"
	"net/http"
)

// ZoneRow assigns a tariff zone to a country and a 2-digit postal
// code prefix.
type ZoneRow struct {
	Country string
	Prefix  string
	Zone    int
}

// ZoneKey identifies a zone row.
type ZoneKey struct {
	Country string `json:"country"`
	Prefix  string `json:"prefix"`
}

func (z ZoneRow) Key() ZoneKey {
	return ZoneKey{Country: z.Country, Prefix: z.Prefix}
}

// ZoneTable is the zone assignment in upload order.
type ZoneTable []ZoneRow

// FindZone returns the zone of the first row where both country and
// prefix match exactly. Later rows with the same key are never
// consulted.
func FindZone(zones ZoneTable, country string, prefix string) (int, error) {
	country = normalize(country)
	prefix = normalizePrefix(prefix)

	for _, z := range zones {
		if z.Country == country && z.Prefix == prefix {
			return z.Zone, nil
		}
	}

	return 0, newError(ErrZoneNotFound,
		fmt.Errorf("country=%q, prefix=%q", country, prefix),
		fmt.Sprintf("Keine Zone für %s, PLZ %s gefunden", country, prefix),
		http.StatusNotFound)
}

// Countries returns the distinct countries in the order they first
// appear.
func (t ZoneTable) Countries() []string {
	seen := map[string]bool{}
	countries := []string{}
	for _, z := range t {
		if seen[z.Country] {
			continue
		}
		seen[z.Country] = true
		countries = append(countries, z.Country)
	}

	return countries
}

// Prefixes returns the distinct postal prefixes of country in the order
// they first appear.
func (t ZoneTable) Prefixes(country string) []string {
	country = normalize(country)

	seen := map[string]bool{}
	prefixes := []string{}
	for _, z := range t {
		if z.Country != country || seen[z.Prefix] {
			continue
		}
		seen[z.Prefix] = true
		prefixes = append(prefixes, z.Prefix)
	}

	return prefixes
}

// Duplicates returns every key that occurs on more than one row.
func (t ZoneTable) Duplicates() []ZoneKey {
	count := map[ZoneKey]int{}
	dups := []ZoneKey{}
	for _, z := range t {
		k := z.Key()
		count[k]++
		if count[k] == 2 {
			dups = append(dups, k)
		}
	}

	return dups
}
