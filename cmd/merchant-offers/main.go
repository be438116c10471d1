// Command merchant-offers runs offer selection over a catalog file and
// prints the chosen offers as JSON.
//
//	merchant-offers -file offers.json -checkin 2023-05-15 -age-group young_adults -gender male
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"

	"checkin-offers-api/internal/catalog"
	"checkin-offers-api/internal/logging"
	"checkin-offers-api/internal/selection"
)

type options struct {
	file     string
	checkin  string
	ageGroup string
	gender   string
}

func main() {
	var opts options
	flag.StringVar(&opts.file, "file", "input.json", "Catalog file (.json, .yaml, .yml)")
	flag.StringVar(&opts.checkin, "checkin", "", "Check-in date, YYYY-MM-DD (required)")
	flag.StringVar(&opts.ageGroup, "age-group", "", "Guest age group key, e.g. young_adults (required)")
	flag.StringVar(&opts.gender, "gender", "", "Guest gender key, e.g. male (required)")
	flag.Parse()

	logging.Init(logging.Config{Level: "warn", Format: "console"})

	if err := run(opts, os.Stdout); err != nil {
		logging.Error().Err(err).Msg("merchant-offers failed")
		os.Exit(1)
	}
}

func run(opts options, out io.Writer) error {
	switch {
	case opts.checkin == "":
		return fmt.Errorf("-checkin is required")
	case opts.ageGroup == "":
		return fmt.Errorf("-age-group is required")
	case opts.gender == "":
		return fmt.Errorf("-gender is required")
	}

	offers, err := catalog.LoadFile(opts.file)
	if err != nil {
		return err
	}

	selected, err := selection.MerchantOffers(opts.checkin, offers, opts.ageGroup, opts.gender)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(map[string]interface{}{"offers": selected}, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
