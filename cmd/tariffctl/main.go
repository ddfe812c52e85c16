// Command tariffctl computes a shipping price from a tariff file
// without starting the server.
//
//	tariffctl -file tarif.xlsx -country Deutschland -plz 10 -weight 15
//	tariffctl -file GWK.csv,Zoneneinteilung.csv -country Deutschland -plz 10
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cicconee/freight-app/internal/tariff"
)

func main() {
	var (
		files   string
		country string
		plz     string
		weight  float64
		verbose bool
	)
	flag.StringVar(&files, "file", "", "tariff file, or a comma separated list of files")
	flag.StringVar(&country, "country", "", "destination country")
	flag.StringVar(&plz, "plz", "", "2-digit postal code prefix")
	flag.Float64Var(&weight, "weight", tariff.DefaultWeightKg, "weight in kg")
	flag.BoolVar(&verbose, "v", false, "log ingestion details")
	flag.Parse()

	if files == "" || country == "" || plz == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(io.Discard, "", 0)
	if verbose {
		logger = log.New(os.Stderr, "tariffctl: ", log.LstdFlags)
	}

	msg, err := run(tariff.New(logger, nil), strings.Split(files, ","), tariff.Query{
		Country:  country,
		Prefix:   plz,
		WeightKg: weight,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, userMessage(err))
		logger.Println(err)
		os.Exit(1)
	}

	fmt.Println(msg)
}

func run(svc *tariff.Service, names []string, q tariff.Query) (string, error) {
	files := make([]tariff.File, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		f, err := os.Open(name)
		if err != nil {
			return "", err
		}
		defer f.Close()

		files = append(files, tariff.File{Name: name, Reader: f})
	}

	t, _, err := svc.Ingest(files)
	if err != nil {
		return "", err
	}

	result, err := t.Price(q)
	if err != nil {
		return "", err
	}

	return result.Message(), nil
}

func userMessage(err error) string {
	var tErr *tariff.Error
	if errors.As(err, &tErr) {
		return tErr.Message()
	}

	return err.Error()
}
