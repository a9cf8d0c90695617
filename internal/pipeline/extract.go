package pipeline

// extract.go - bronze stage: load raw JSON record arrays

import (
	"path/filepath"

	"github.com/leapstack-labs/medallion/internal/table"
)

// ExtractResult reports what the bronze stage loaded.
type ExtractResult struct {
	SalesRows    int
	ForecastRows int
}

// extract reads the two raw source files into tables, preserving column
// identity and order from the source records.
func (p *Pipeline) extract() (sales, forecast *table.Table, res ExtractResult, err error) {
	salesPath := filepath.Join(p.cfg.RawDir, p.cfg.SalesFile)
	sales, err = table.ReadJSONRecords(salesPath)
	if err != nil {
		return nil, nil, res, &MissingSourceError{Path: salesPath, Err: err}
	}

	forecastPath := filepath.Join(p.cfg.RawDir, p.cfg.ForecastFile)
	forecast, err = table.ReadJSONRecords(forecastPath)
	if err != nil {
		return nil, nil, res, &MissingSourceError{Path: forecastPath, Err: err}
	}

	res.SalesRows = sales.Len()
	res.ForecastRows = forecast.Len()

	p.logger.Info("raw data loaded", "sales_rows", res.SalesRows, "forecast_rows", res.ForecastRows)
	return sales, forecast, res, nil
}
