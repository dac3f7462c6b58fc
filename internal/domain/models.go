// backend-go/internal/domain/models.go
package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DateFormat is the wire format for forecast dates.
const DateFormat = "2006-01-02"

// ProductID is the canonical product identifier. It is numeric everywhere
// inside the service and projected to a string at the API boundary.
type ProductID int64

func (p ProductID) String() string {
	return strconv.FormatInt(int64(p), 10)
}

// MarshalJSON emits the string projection, e.g. 5 -> "5".
func (p ProductID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(p.String())), nil
}

// UnmarshalJSON accepts both "5" and 5 since older clients send either.
func (p *ProductID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	id, err := ParseProductID(s)
	if err != nil {
		return err
	}
	*p = id
	return nil
}

// ParseProductID parses the string projection of a product identifier.
func ParseProductID(s string) (ProductID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid product id %q", ErrInvalidRequest, s)
	}
	return ProductID(id), nil
}

// HistoricalRecord is one daily observation for one product, joined with
// its product master data and the integer encodings the model was fit on.
type HistoricalRecord struct {
	Date            time.Time `db:"history_date"`
	ProductID       ProductID `db:"product_id"`
	UnitsSold       float64   `db:"units_sold"`
	Price           float64   `db:"price"`
	Discount        float64   `db:"discount"`
	InventoryLevel  float64   `db:"inventory_level"`
	CategoryID      int64     `db:"category_id"`
	StoreEncoded    float64   `db:"store_encoded"`
	ProductEncoded  float64   `db:"product_encoded"`
	CategoryEncoded float64   `db:"category_encoded"`
}

// ProductContext is the immutable per-product snapshot taken from the most
// recent historical record. It never changes during a simulation.
type ProductContext struct {
	ProductID       ProductID
	Price           float64
	Discount        float64
	InventoryLevel  float64
	CategoryID      int64
	StoreEncoded    float64
	ProductEncoded  float64
	CategoryEncoded float64
}

// DailyPrediction is one forecast day for one product. Immutable once
// returned by the engine. Confidence bounds are reserved and always null.
type DailyPrediction struct {
	Date              time.Time
	ProductID         ProductID
	PredictedQuantity int
	PredictedRevenue  float64
	ConfidenceLower   *int
	ConfidenceUpper   *int
}

// MarshalJSON emits the wire shape expected by the frontend:
// {"date":"YYYY-MM-DD","product_id":"5","predicted_quantity":12,...}
func (d DailyPrediction) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date              string    `json:"date"`
		ProductID         ProductID `json:"product_id"`
		PredictedQuantity int       `json:"predicted_quantity"`
		PredictedRevenue  float64   `json:"predicted_revenue"`
		ConfidenceLower   *int      `json:"confidence_lower"`
		ConfidenceUpper   *int      `json:"confidence_upper"`
	}{
		Date:              d.Date.Format(DateFormat),
		ProductID:         d.ProductID,
		PredictedQuantity: d.PredictedQuantity,
		PredictedRevenue:  d.PredictedRevenue,
		ConfidenceLower:   d.ConfidenceLower,
		ConfidenceUpper:   d.ConfidenceUpper,
	})
}

// ForecastRequest is the body of POST /forecast.
type ForecastRequest struct {
	HorizonDays int        `json:"horizon_days"`
	ProductID   *ProductID `json:"product_id"`
	IsBatch     bool       `json:"is_batch"`

	// Optional scenario overrides, applied to the product context of a
	// single-product run before the simulation starts.
	FuturePrice     *float64 `json:"future_price"`
	FutureDiscount  *float64 `json:"future_discount"`
	FutureInventory *float64 `json:"future_inventory"`
}

// Validate enforces the request contract before any simulation starts.
func (r *ForecastRequest) Validate() error {
	switch r.HorizonDays {
	case 7, 14, 30, 90:
	default:
		return fmt.Errorf("%w: horizon_days must be one of 7, 14, 30, 90 (got %d)", ErrInvalidRequest, r.HorizonDays)
	}
	if !r.IsBatch && r.ProductID == nil {
		return fmt.Errorf("%w: request must specify a product_id or set is_batch", ErrInvalidRequest)
	}
	return nil
}

// ForecastResponse is the successful response of POST /forecast.
type ForecastResponse struct {
	Message      string            `json:"message"`
	ForecastData []DailyPrediction `json:"forecast_data"`
	ModelVersion string            `json:"model_version"`
}

// ForecastRecord is a persisted forecast row (forecasts table).
type ForecastRecord struct {
	ProductID         ProductID `db:"product_id"`
	ForecastDate      time.Time `db:"forecast_date"`
	ForecastPeriod    string    `db:"forecast_period"`
	PredictedQuantity int       `db:"predicted_quantity"`
	PredictedRevenue  float64   `db:"predicted_revenue"`
	ConfidenceLower   *int      `db:"confidence_lower"`
	ConfidenceUpper   *int      `db:"confidence_upper"`
	ModelVersion      string    `db:"model_version"`
	GeneratedAt       time.Time `db:"generated_at"`
}

// Product is a row in the products master table.
type Product struct {
	ProductID       ProductID `json:"product_id" db:"product_id"`
	SKU             string    `json:"sku" db:"sku"`
	ProductName     string    `json:"product_name" db:"product_name"`
	CategoryID      *int64    `json:"category_id" db:"category_id"`
	SupplierID      *int64    `json:"supplier_id" db:"supplier_id"`
	UnitPrice       float64   `json:"unit_price" db:"unit_price"`
	CostPrice       *float64  `json:"cost_price" db:"cost_price"`
	ReorderLevel    int       `json:"reorder_level" db:"reorder_level"`
	ReorderQuantity int       `json:"reorder_quantity" db:"reorder_quantity"`
	UnitOfMeasure   string    `json:"unit_of_measure" db:"unit_of_measure"`
	IsActive        bool      `json:"is_active" db:"is_active"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// NewProductInput is the payload for creating a product.
type NewProductInput struct {
	ProductName string   `json:"product_name"`
	SKU         string   `json:"sku"`
	CategoryID  *int64   `json:"category_id"`
	SupplierID  *int64   `json:"supplier_id"`
	UnitPrice   float64  `json:"unit_price"`
	CostPrice   *float64 `json:"cost_price"`
}
