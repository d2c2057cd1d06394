// Command seedzips bulk-loads known zip code coordinates into the coordinate
// cache so the first weather batch for those zips skips geocoding.
//
// Usage:
//
//	go run ./cmd/seedzips -data-dir data/docstore -csv zips.csv
//
// Each row is zip,latitude,longitude. A header row is optional. Zips that are
// already cached are left as they are.
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/couchcryptid/work-order-weather-service/internal/adapter/docstore"
	"github.com/couchcryptid/work-order-weather-service/internal/domain"
)

type counts struct {
	created int
	skipped int
	invalid int
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataDir := flag.String("data-dir", "data/docstore", "document store directory")
	csvPath := flag.String("csv", "", "CSV file of zip,latitude,longitude rows")
	flag.Parse()

	if *csvPath == "" {
		flag.Usage()
		return errors.New("missing required flag: -csv")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store, err := docstore.Open(docstore.Options{Dir: *dataDir}, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	c, err := seed(context.Background(), docstore.NewCoordinateCache(store), f)
	if err != nil {
		return err
	}
	log.Printf("created: %d, already cached: %d, invalid: %d", c.created, c.skipped, c.invalid)
	return nil
}

// seed stores each row that is not already cached. Invalid rows are logged
// and counted; any other store failure stops the run.
func seed(ctx context.Context, cache domain.CoordinateCache, r io.Reader) (counts, error) {
	var c counts

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 3
	reader.TrimLeadingSpace = true

	for line := 1; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return c, nil
		}
		if err != nil {
			return c, fmt.Errorf("read csv: %w", err)
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(rec[0]), "zip") {
			continue
		}

		zip := strings.TrimSpace(rec[0])
		_, cached, err := cache.Lookup(ctx, zip)
		if err != nil {
			return c, fmt.Errorf("line %d: %w", line, err)
		}
		if cached {
			c.skipped++
			continue
		}

		coord := domain.Coordinate{Latitude: strings.TrimSpace(rec[1]), Longitude: strings.TrimSpace(rec[2])}
		err = cache.Store(ctx, domain.NewZipCoordinate(zip, coord))
		switch {
		case errors.Is(err, domain.ErrValidation):
			log.Printf("line %d: skipping %q: %v", line, zip, err)
			c.invalid++
		case err != nil:
			return c, fmt.Errorf("line %d: %w", line, err)
		default:
			c.created++
		}
	}
}
