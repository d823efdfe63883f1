package sampledata

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/okian/athleteprofile/internal/domain/metricset"
	"github.com/okian/athleteprofile/internal/domain/table"
)

// Identifying and attribute columns written before the metrics.
const (
	ColumnTestType = "Test Type"
	ColumnTestID   = "Test ID"
)

// Value ranges per metric family.
const (
	scaledMin      = 20.0
	scaledMax      = 95.0
	asymmetryLimit = 25.0
	progressPerRun = 1.5
	jitter         = 6.0
)

// rawRanges are plausible ranges for unscaled movement metrics.
var rawRanges = map[string][2]float64{
	"Impulse Ratio":          {0.8, 2.4},
	"Peak Relative Velocity": {2.0, 3.6},
	"Countermovement Depth":  {-45, -15},
	"Ground Contact Time":    {180, 420},
}

// Sheet is a generated table in source order.
type Sheet struct {
	Columns []string
	Records []table.Record
}

// Table wraps the sheet for the aggregation engine.
func (s Sheet) Table() *table.Table {
	return table.New(s.Columns, s.Records)
}

// MetricColumns returns every column referenced by the default selections,
// in first-seen order.
func MetricColumns() []string {
	defs := metricset.Defaults()
	seen := make(map[string]struct{})
	var out []string
	for _, name := range []string{metricset.Radar, metricset.Bars, metricset.Movement, metricset.Asymmetry, metricset.TSA} {
		for _, k := range defs[name].Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}
	return out
}

// Generate builds a sheet with cfg.Sessions rows per athlete. Rows are
// ordered by session then athlete, so table order matches date order.
// Athletes improve slightly from session to session.
func Generate(cfg Config) (Sheet, error) {
	if err := cfg.Validate(); err != nil {
		return Sheet{}, err
	}
	faker := gofakeit.New(cfg.Seed)

	metrics := MetricColumns()
	columns := append([]string{table.ColumnName, table.ColumnDate, ColumnTestType, ColumnTestID}, metrics...)

	names := uniqueNames(faker, cfg.Athletes)
	base := make([]map[string]float64, len(names))
	for i := range names {
		base[i] = make(map[string]float64, len(metrics))
		for _, m := range metrics {
			base[i][m] = baseline(faker, m)
		}
	}

	records := make([]table.Record, 0, cfg.Athletes*cfg.Sessions)
	for s := 0; s < cfg.Sessions; s++ {
		date := cfg.Start.Add(time.Duration(s) * cfg.Interval).Format(dateLayout)
		testType := cfg.TestTypes[s%len(cfg.TestTypes)]
		for i, name := range names {
			values := make(map[string]float64, len(metrics))
			for _, m := range metrics {
				if cfg.DropRate > 0 && faker.Float64Range(0, 1) < cfg.DropRate {
					continue
				}
				values[m] = session(faker, m, base[i][m], s)
			}
			records = append(records, table.Record{
				Athlete: name,
				Date:    date,
				Values:  values,
				Attrs: map[string]string{
					ColumnTestType: testType,
					ColumnTestID:   uuid.NewString(),
				},
			})
		}
	}
	return Sheet{Columns: columns, Records: records}, nil
}

func uniqueNames(faker *gofakeit.Faker, n int) []string {
	seen := make(map[string]struct{}, n)
	names := make([]string, 0, n)
	for len(names) < n {
		name := faker.Name()
		if _, dup := seen[name]; dup {
			name = fmt.Sprintf("%s %d", name, len(names)+1)
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func baseline(faker *gofakeit.Faker, metric string) float64 {
	if r, ok := rawRanges[metric]; ok {
		return faker.Float64Range(r[0], r[1])
	}
	if strings.HasSuffix(metric, "Asymmetry") {
		return faker.Float64Range(-asymmetryLimit/2, asymmetryLimit/2)
	}
	return faker.Float64Range(scaledMin, scaledMax)
}

func session(faker *gofakeit.Faker, metric string, base float64, run int) float64 {
	if r, ok := rawRanges[metric]; ok {
		spread := (r[1] - r[0]) / 10
		return round(clamp(base+faker.Float64Range(-spread, spread), r[0], r[1]))
	}
	if strings.HasSuffix(metric, "Asymmetry") {
		return round(clamp(base+faker.Float64Range(-jitter, jitter), -asymmetryLimit, asymmetryLimit))
	}
	v := base + progressPerRun*float64(run) + faker.Float64Range(-jitter, jitter)
	return round(clamp(v, 0, 100))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64) float64 {
	return math.Round(v*100) / 100
}
