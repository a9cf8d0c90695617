package pipeline

// clean.go - silver stage: type normalization and null fills

import (
	"path/filepath"
	"strconv"
	"time"

	"github.com/leapstack-labs/medallion/internal/table"
)

// Source column names referenced by the cleaning rules.
const (
	colOrderDate  = "OrderDate"
	colName       = "Name"
	colEducation  = "Education"
	colOccupation = "Occupation"
	colYear       = "Year"
)

// Accepted layouts for OrderDate values, tried in order.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// CleanResult reports what the silver stage produced.
type CleanResult struct {
	SalesRows    int
	ForecastRows int
	// Dropped is the number of sales rows removed by filtering. No filter
	// exists today, so this is always zero, but it is computed from the
	// counts so a future filtering step cannot lose rows unnoticed.
	Dropped int
	// Outputs lists the files written.
	Outputs []string
}

// clean normalizes the two raw tables and persists them to the processed
// directory. The inputs are not mutated; each stage owns fresh tables.
//
// Rules: OrderDate parses strictly to a time value; null Name fills to
// "Unknown"; null Education and Occupation fill to "Not Provided"; forecast
// Year coerces to an integer. Everything else passes through untouched,
// nulls included.
func (p *Pipeline) clean(rawSales, rawForecast *table.Table) (sales, forecast *table.Table, res CleanResult, err error) {
	initialCount := rawSales.Len()
	sales = rawSales.Clone()
	forecast = rawForecast.Clone()

	if err := cleanSales(sales); err != nil {
		return nil, nil, res, err
	}
	if err := coerceYears(forecast); err != nil {
		return nil, nil, res, err
	}

	salesOut := filepath.Join(p.cfg.ProcessedDir, CleanedSalesFile)
	if err := sales.WriteCSV(salesOut); err != nil {
		return nil, nil, res, err
	}
	forecastOut := filepath.Join(p.cfg.ProcessedDir, CleanedForecastFile)
	if err := forecast.WriteCSV(forecastOut); err != nil {
		return nil, nil, res, err
	}

	res.SalesRows = sales.Len()
	res.ForecastRows = forecast.Len()
	res.Dropped = initialCount - sales.Len()
	res.Outputs = []string{salesOut, forecastOut}

	p.logger.Info("cleaned tables written",
		"sales_rows", res.SalesRows, "forecast_rows", res.ForecastRows, "dropped", res.Dropped)
	return sales, forecast, res, nil
}

// cleanSales applies the date parse and null fills in place. Columns absent
// from the source are left alone; validating the schema is out of scope.
func cleanSales(t *table.Table) error {
	if _, ok := t.Column(colOrderDate); ok {
		for i := 0; i < t.Len(); i++ {
			v, _ := t.Value(i, colOrderDate)
			parsed, err := parseDate(v)
			if err != nil {
				return &MalformedDateError{Column: colOrderDate, Row: i, Value: v, Err: err}
			}
			if parsed != nil {
				_ = t.SetValue(i, colOrderDate, *parsed)
			}
		}
	}

	fills := map[string]string{
		colName:       "Unknown",
		colEducation:  "Not Provided",
		colOccupation: "Not Provided",
	}
	for col, fill := range fills {
		if _, ok := t.Column(col); !ok {
			continue
		}
		for i := 0; i < t.Len(); i++ {
			if v, _ := t.Value(i, col); v == nil {
				_ = t.SetValue(i, col, fill)
			}
		}
	}
	return nil
}

// parseDate parses one OrderDate cell. Null passes through (only the three
// fill columns have null rules); time values are already parsed.
func parseDate(v any) (*time.Time, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &x, nil
	case string:
		var lastErr error
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, x); err == nil {
				return &ts, nil
			} else {
				lastErr = err
			}
		}
		return nil, lastErr
	default:
		return nil, strconv.ErrSyntax
	}
}

// coerceYears forces the forecast Year column to int64.
func coerceYears(t *table.Table) error {
	if _, ok := t.Column(colYear); !ok {
		return nil
	}
	for i := 0; i < t.Len(); i++ {
		v, _ := t.Value(i, colYear)
		switch x := v.(type) {
		case int64:
			// already integral
		case float64:
			n := int64(x)
			if float64(n) != x {
				return &TypeCoercionError{Column: colYear, Row: i, Value: v, Want: "int"}
			}
			_ = t.SetValue(i, colYear, n)
		case string:
			n, err := strconv.ParseInt(x, 10, 64)
			if err != nil {
				return &TypeCoercionError{Column: colYear, Row: i, Value: v, Want: "int"}
			}
			_ = t.SetValue(i, colYear, n)
		default:
			return &TypeCoercionError{Column: colYear, Row: i, Value: v, Want: "int"}
		}
	}
	return nil
}
