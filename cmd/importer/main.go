package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aipothole/pothole-api/internal/adapters/geocoding"
	natsadapter "github.com/aipothole/pothole-api/internal/adapters/nats"
	"github.com/aipothole/pothole-api/internal/adapters/postgres"
	"github.com/aipothole/pothole-api/internal/core/ports"
	"github.com/aipothole/pothole-api/internal/core/usecases"
	"github.com/aipothole/pothole-api/internal/pkg/config"
	"github.com/aipothole/pothole-api/internal/pkg/logging"
)

// sighting is one CSV row.
type sighting struct {
	line      int
	lat, long float64
}

var errHeader = errors.New("header row")

// parseRow reads "latitude,longitude". A first row that is not numeric is
// treated as a header.
func parseRow(line int, rec []string) (sighting, error) {
	if len(rec) < 2 {
		return sighting{}, fmt.Errorf("line %d: expected latitude,longitude", line)
	}
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
	long, errLong := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
	if errLat != nil || errLong != nil {
		if line == 1 {
			return sighting{}, errHeader
		}
		return sighting{}, fmt.Errorf("line %d: coordinates must be numbers", line)
	}
	if math.IsNaN(lat) || math.IsNaN(long) || lat < -90 || lat > 90 || long < -180 || long > 180 {
		return sighting{}, fmt.Errorf("line %d: coordinates out of range", line)
	}
	return sighting{line: line, lat: lat, long: long}, nil
}

// usage: importer <file.csv> [workers]
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: importer <file.csv> [workers]")
	}
	workers := 1
	if len(os.Args) > 2 {
		n, err := strconv.Atoi(os.Args[2])
		if err != nil || n < 1 {
			log.Fatalf("workers must be a positive integer: %q", os.Args[2])
		}
		workers = n
	}

	cfg, err := config.Load("potholes-importer")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.Setup(cfg.Telemetry.ServiceName).With("run_id", uuid.NewString())

	f, err := os.Open(os.Args[1])
	if err != nil {
		log.Fatalf("open: %v", err)
	}
	defer f.Close()

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN(), int32(workers)+1)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var publisher ports.EventPublisher
	if p, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		logger.Warn("nats unavailable, events disabled", "error", err)
	} else {
		defer p.Close()
		publisher = p
	}

	var geocoder ports.Geocoder
	if cfg.Geocoding.APIKey != "" {
		if g, err := geocoding.NewGoogle(cfg.Geocoding.APIKey, cfg.Geocoding.BaseURL); err == nil {
			geocoder = g
		} else {
			logger.Warn("geocoder init failed", "error", err)
		}
	}

	reports := usecases.NewReportService(postgres.NewPotholeRepo(db), geocoder, publisher, cfg.Policy.MergeThresholdMeters)

	if workers > 1 {
		logger.Warn("concurrent workers may create duplicate potholes for near-identical rows", "workers", workers)
	}

	var created, merged, failed atomic.Int64
	jobs := make(chan sighting)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for s := range jobs {
				rctx, cancel := context.WithTimeout(ctx, 15*time.Second)
				res, err := reports.Report(rctx, s.lat, s.long)
				cancel()
				if err != nil {
					failed.Add(1)
					logger.Error("report failed", "line", s.line, "error", err)
					continue
				}
				if res.Outcome == usecases.OutcomeMerged {
					merged.Add(1)
				} else {
					created.Add(1)
				}
			}
		}()
	}

	start := time.Now()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	for line := 1; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			failed.Add(1)
			logger.Warn("skipping unreadable row", "line", line, "error", err)
			continue
		}
		s, err := parseRow(line, rec)
		if errors.Is(err, errHeader) {
			continue
		}
		if err != nil {
			failed.Add(1)
			logger.Warn("skipping invalid row", "error", err)
			continue
		}
		jobs <- s
	}
	close(jobs)
	wg.Wait()

	logger.Info("import complete",
		"created", created.Load(),
		"merged", merged.Load(),
		"failed", failed.Load(),
		"elapsed", time.Since(start).Round(time.Millisecond).String())
}
