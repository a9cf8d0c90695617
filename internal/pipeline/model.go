package pipeline

// model.go - gold stage: star-schema derivation

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/medallion/internal/table"
)

// Column subsets for the dimension projections and the fact table.
var (
	productCols  = []string{"ProductKey", "Product Name", "Brand", "Color", "Subcategory", "Category"}
	customerCols = []string{"CustomerKey", "Customer Code", "Name", "Education", "Occupation"}
	geoCols      = []string{"City", "State", "CountryRegion", "Continent"}
	factCols     = []string{"ProductKey", "CustomerKey", "GeoKey", "OrderDate", "Quantity", "Net Price"}
)

const colGeoKey = "GeoKey"

// ModelResult reports the gold-layer cardinalities and the join-integrity
// verdict.
type ModelResult struct {
	DimProductRows   int
	DimCustomerRows  int
	DimGeoRows       int
	FactSalesRows    int
	FactForecastRows int
	// RowsLost is the number of sales rows the geography join dropped.
	// Zero when the integrity check passes.
	RowsLost int
	// Warning carries the integrity diagnostic under the warn policy.
	Warning string
	// Outputs lists the files written.
	Outputs []string
}

// model derives the dimension and fact tables from the cleaned data and
// persists the gold layer. The three dimension projections are independent
// and run concurrently; the fact join waits for the geography dimension.
func (p *Pipeline) model(ctx context.Context, sales, forecast *table.Table) (ModelResult, error) {
	var res ModelResult
	inputCount := sales.Len()

	var dimProduct, dimCustomer, dimGeo *table.Table
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := sales.Project(productCols...)
		if err != nil {
			return fmt.Errorf("deriving dim_product: %w", err)
		}
		dimProduct = t.Distinct()
		return nil
	})
	g.Go(func() error {
		t, err := sales.Project(customerCols...)
		if err != nil {
			return fmt.Errorf("deriving dim_customer: %w", err)
		}
		dimCustomer = t.Distinct()
		return nil
	})
	g.Go(func() error {
		t, err := sales.Project(geoCols...)
		if err != nil {
			return fmt.Errorf("deriving dim_geo: %w", err)
		}
		dimGeo = numberGeo(t.Distinct())
		return nil
	})
	if err := g.Wait(); err != nil {
		return res, err
	}

	factSales, err := joinFactSales(sales, dimGeo)
	if err != nil {
		return res, err
	}

	res.DimProductRows = dimProduct.Len()
	res.DimCustomerRows = dimCustomer.Len()
	res.DimGeoRows = dimGeo.Len()
	res.FactSalesRows = factSales.Len()
	res.FactForecastRows = forecast.Len()
	res.RowsLost = inputCount - factSales.Len()

	outputs := []struct {
		name string
		t    *table.Table
	}{
		{FactSalesFile, factSales},
		{FactForecastFile, forecast},
		{DimProductFile, dimProduct},
		{DimCustomerFile, dimCustomer},
		{DimGeoFile, dimGeo},
	}
	for _, out := range outputs {
		path := filepath.Join(p.cfg.FinalDir, out.name)
		if err := out.t.WriteCSV(path); err != nil {
			return res, err
		}
		res.Outputs = append(res.Outputs, path)
	}

	p.logger.Info("gold layer written",
		"dim_product", res.DimProductRows,
		"dim_customer", res.DimCustomerRows,
		"dim_geo", res.DimGeoRows,
		"fact_sales", res.FactSalesRows)

	if err := p.applyIntegrity(&res, inputCount); err != nil {
		return res, err
	}
	return res, nil
}

// applyIntegrity resolves the join-integrity verdict against the configured
// policy: fail returns a JoinIntegrityError, warn records the diagnostic on
// the result and keeps the run successful.
func (p *Pipeline) applyIntegrity(res *ModelResult, inputCount int) error {
	if res.RowsLost == 0 {
		p.logger.Info("join integrity check passed", "rows", res.FactSalesRows)
		return nil
	}
	err := &JoinIntegrityError{Expected: inputCount, Actual: res.FactSalesRows}
	if p.cfg.Integrity == IntegrityFail {
		return err
	}
	res.Warning = err.Error()
	p.logger.Warn("join integrity check failed", "rows_lost", res.RowsLost)
	return nil
}

// numberGeo assigns the GeoKey surrogate: a 1-based sequence in the order
// distinct geography tuples first appeared.
func numberGeo(geo *table.Table) *table.Table {
	geo.AddColumn(colGeoKey)
	for i := 0; i < geo.Len(); i++ {
		_ = geo.SetValue(i, colGeoKey, int64(i+1))
	}
	return geo
}

// joinFactSales inner-joins the cleaned sales rows against the geography
// dimension on all four geography columns at once, then projects the fact
// columns. The lookup map is keyed on the encoded geography tuple, so the
// join is a single O(n) pass. Matching is exact: any whitespace, case, or
// null difference forms a distinct tuple and the row is dropped; the
// integrity check is the backstop for that.
func joinFactSales(sales, dimGeo *table.Table) (*table.Table, error) {
	geoIdx := make([]int, len(geoCols))
	for i, c := range geoCols {
		ci, ok := dimGeo.Column(c)
		if !ok {
			return nil, fmt.Errorf("dim_geo missing column %s", c)
		}
		geoIdx[i] = ci
	}
	keyIdx, _ := dimGeo.Column(colGeoKey)

	geoKeys := make(map[string]int64, dimGeo.Len())
	tuple := make([]any, len(geoCols))
	for i := 0; i < dimGeo.Len(); i++ {
		row := dimGeo.Row(i)
		for j, ci := range geoIdx {
			tuple[j] = row[ci]
		}
		geoKeys[table.Key(tuple)] = row[keyIdx].(int64)
	}

	salesGeoIdx := make([]int, len(geoCols))
	for i, c := range geoCols {
		ci, ok := sales.Column(c)
		if !ok {
			return nil, fmt.Errorf("sales table missing column %s", c)
		}
		salesGeoIdx[i] = ci
	}

	joined := sales.Clone()
	gk := joined.AddColumn(colGeoKey)

	fact := table.New(factCols...)
	factIdx := make([]int, len(factCols))
	for i, c := range factCols {
		ci, ok := joined.Column(c)
		if !ok {
			return nil, fmt.Errorf("sales table missing column %s", c)
		}
		factIdx[i] = ci
	}

	for i := 0; i < joined.Len(); i++ {
		row := joined.Row(i)
		for j, ci := range salesGeoIdx {
			tuple[j] = row[ci]
		}
		key, ok := geoKeys[table.Key(tuple)]
		if !ok {
			continue // no geography match: inner join drops the row
		}
		row[gk] = key

		factRow := make([]any, len(factIdx))
		for j, ci := range factIdx {
			factRow[j] = row[ci]
		}
		if err := fact.AppendRow(factRow); err != nil {
			return nil, err
		}
	}
	return fact, nil
}
