// Command genalerts builds realtime alert fixtures from a CSV file and
// optionally publishes them to the alert topic. It runs every row through
// the same domain constructor the admin API uses, so the fixtures match
// what the service itself would publish.
//
// Usage:
//
//	go run ./cmd/genalerts \
//	  -csv data/mock/realtime_alerts.csv \
//	  -out data/mock/realtime_alerts.json \
//	  -publish -brokers localhost:9092 -topic realtime-alerts
//
// The CSV header is:
//
//	title,message,alert_type,severity_level,lat,lon,radius_km,affected_provinces
//
// affected_provinces is a "|" separated list.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	kafkaadapter "github.com/couchcryptid/disaster-watch-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-watch-service/internal/config"
	"github.com/couchcryptid/disaster-watch-service/internal/domain"
	"github.com/jonboulle/clockwork"
)

var fixtureTime = time.Date(2025, time.March, 28, 6, 20, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "CSV file of realtime alerts")
	out := flag.String("out", "", "output path for the JSON fixture")
	publish := flag.Bool("publish", false, "publish the alerts to Kafka")
	brokers := flag.String("brokers", "localhost:9092", "comma-separated Kafka brokers")
	topic := flag.String("topic", "realtime-alerts", "alert topic")
	fixed := flag.Bool("fixed-clock", true, "stamp alerts with a fixed creation time")
	flag.Parse()

	if *csvPath == "" || (*out == "" && !*publish) {
		flag.Usage()
		return fmt.Errorf("missing required flags: -csv and one of -out or -publish")
	}

	if *fixed {
		domain.SetClock(clockwork.NewFakeClockAt(fixtureTime))
		defer domain.SetClock(nil)
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	alerts, err := readAlerts(f)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *csvPath, err)
	}
	log.Printf("read %d alerts", len(alerts))

	if *out != "" {
		if err := writeJSON(*out, alerts); err != nil {
			return fmt.Errorf("writing fixture: %w", err)
		}
		log.Printf("wrote fixture: %s", *out)
	}

	if *publish {
		cfg := &config.Config{
			KafkaBrokers:    strings.Split(*brokers, ","),
			KafkaAlertTopic: *topic,
		}
		w := kafkaadapter.NewWriter(cfg, slog.Default())
		defer w.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := w.PublishAlert(ctx, alerts...); err != nil {
			return err
		}
		log.Printf("published %d alerts to %s", len(alerts), *topic)
	}

	printStats(alerts)
	return nil
}

func readAlerts(r io.Reader) ([]domain.RealtimeAlert, error) {
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}

	alerts := make([]domain.RealtimeAlert, 0, len(rows)-1)
	for n, row := range rows[1:] {
		a, err := parseRow(row, colIdx)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", n+2, err)
		}
		alerts = append(alerts, a)
	}
	return alerts, nil
}

func parseRow(row []string, idx map[string]int) (domain.RealtimeAlert, error) {
	severity, err := strconv.Atoi(get(row, idx, "severity_level"))
	if err != nil {
		return domain.RealtimeAlert{}, fmt.Errorf("severity_level: %w", err)
	}
	lat, err := strconv.ParseFloat(get(row, idx, "lat"), 64)
	if err != nil {
		return domain.RealtimeAlert{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := strconv.ParseFloat(get(row, idx, "lon"), 64)
	if err != nil {
		return domain.RealtimeAlert{}, fmt.Errorf("lon: %w", err)
	}
	var radius float64
	if s := get(row, idx, "radius_km"); s != "" {
		if radius, err = strconv.ParseFloat(s, 64); err != nil {
			return domain.RealtimeAlert{}, fmt.Errorf("radius_km: %w", err)
		}
	}
	var provinces []string
	for _, p := range strings.Split(get(row, idx, "affected_provinces"), "|") {
		if p = strings.TrimSpace(p); p != "" {
			provinces = append(provinces, p)
		}
	}

	return domain.NewRealtimeAlert(domain.RealtimeAlert{
		Title:             get(row, idx, "title"),
		Message:           get(row, idx, "message"),
		SeverityLevel:     severity,
		AlertType:         domain.HazardType(get(row, idx, "alert_type")),
		Geo:               domain.Geo{Lat: lat, Lon: lon},
		RadiusKM:          radius,
		AffectedProvinces: provinces,
		Active:            true,
	})
}

func get(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(alerts []domain.RealtimeAlert) {
	byType := map[domain.HazardType]int{}
	bySeverity := map[int]int{}
	pushed := 0
	for i := range alerts {
		byType[alerts[i].AlertType]++
		bySeverity[alerts[i].SeverityLevel]++
		if alerts[i].SeverityLevel >= domain.DefaultRealtimeMinSeverity {
			pushed++
		}
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, string(t))
	}
	sort.Strings(types)

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(alerts))
	fmt.Print("By type:")
	for _, t := range types {
		fmt.Printf(" %s=%d", t, byType[domain.HazardType(t)])
	}
	fmt.Println()
	fmt.Printf("By severity: 1=%d 2=%d 3=%d 4=%d 5=%d\n",
		bySeverity[1], bySeverity[2], bySeverity[3], bySeverity[4], bySeverity[5])
	fmt.Printf("At or above push threshold (%d): %d\n", domain.DefaultRealtimeMinSeverity, pushed)
}
