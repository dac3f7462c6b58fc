// backend-go/internal/forecast/history.go
package forecast

import (
	"fmt"
	"sort"
	"time"

	"github.com/smartstock/backend-go/internal/domain"
)

// lookbackDays is the trailing window of real history used to seed a
// simulation's sales buffer.
const lookbackDays = 30

// HistoryStore is the frozen, per-product indexed view of the historical
// dataset. Built once from repository rows and never mutated afterwards;
// every forecast call reads the same snapshot.
type HistoryStore struct {
	records    map[domain.ProductID][]domain.HistoricalRecord
	productIDs []domain.ProductID
	latestDate time.Time
}

// NewHistoryStore indexes the given rows by product. Rows are expected in
// chronological order per product (the repository guarantees it), but the
// store re-sorts defensively since the anchor date depends on it.
func NewHistoryStore(rows []domain.HistoricalRecord) (*HistoryStore, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: historical dataset is empty", domain.ErrAssetLoad)
	}

	s := &HistoryStore{
		records: make(map[domain.ProductID][]domain.HistoricalRecord),
	}

	for _, row := range rows {
		s.records[row.ProductID] = append(s.records[row.ProductID], row)
		if row.Date.After(s.latestDate) {
			s.latestDate = row.Date
		}
	}

	for id, recs := range s.records {
		sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
		s.records[id] = recs
		s.productIDs = append(s.productIDs, id)
	}
	sort.Slice(s.productIDs, func(i, j int) bool { return s.productIDs[i] < s.productIDs[j] })

	return s, nil
}

// LatestDate is the most recent date across the whole dataset. Every
// forecast starts at LatestDate+1, regardless of a product's own last sale.
func (s *HistoryStore) LatestDate() time.Time {
	return s.latestDate
}

// ProductIDs enumerates every known product in ascending order.
func (s *HistoryStore) ProductIDs() []domain.ProductID {
	out := make([]domain.ProductID, len(s.productIDs))
	copy(out, s.productIDs)
	return out
}

// Context extracts the immutable per-product snapshot from the most recent
// record for the product.
func (s *HistoryStore) Context(id domain.ProductID) (domain.ProductContext, error) {
	recs := s.records[id]
	if len(recs) == 0 {
		return domain.ProductContext{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}

	last := recs[len(recs)-1]
	return domain.ProductContext{
		ProductID:       id,
		Price:           last.Price,
		Discount:        last.Discount,
		InventoryLevel:  last.InventoryLevel,
		CategoryID:      last.CategoryID,
		StoreEncoded:    last.StoreEncoded,
		ProductEncoded:  last.ProductEncoded,
		CategoryEncoded: last.CategoryEncoded,
	}, nil
}

// LookbackSales returns the product's unit sales inside the dataset's
// trailing 30-day window, oldest first. May be empty.
func (s *HistoryStore) LookbackSales(id domain.ProductID) []float64 {
	cutoff := s.latestDate.AddDate(0, 0, -lookbackDays)

	var sales []float64
	for _, rec := range s.records[id] {
		if rec.Date.Before(cutoff) {
			continue
		}
		sales = append(sales, rec.UnitsSold)
	}
	return sales
}
