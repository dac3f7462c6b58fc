// backend-go/cmd/seed/historical.go
package main

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
)

// nullIfEmpty returns NULL if the string is empty, otherwise returns the string
func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// runHistoricalSeeder loads daily sales records from a CSV with the header:
// history_date,product_id,units_sold,sales_revenue,inventory_start,inventory_end
func runHistoricalSeeder(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}

	path := c.String("file")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if c.Bool("truncate") {
		if _, err := db.ExecContext(c.Context, "TRUNCATE historical_data"); err != nil {
			return fmt.Errorf("failed to truncate historical_data: %w", err)
		}
		log.Println("truncated historical_data")
	}

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := indexColumns(header)

	required := []string{"history_date", "product_id", "units_sold", "inventory_start"}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return fmt.Errorf("missing required column %q in %s", name, path)
		}
	}

	stmt, err := db.PrepareContext(c.Context, `
        INSERT INTO historical_data (
            history_date, product_id, units_sold, sales_revenue,
            inventory_start, inventory_end, period_type, data_source
        ) VALUES ($1, $2, $3, $4, $5, $6, 'daily', 'csv_seed')
        ON CONFLICT (history_date, product_id, period_type) DO UPDATE SET
            units_sold = EXCLUDED.units_sold,
            sales_revenue = EXCLUDED.sales_revenue,
            inventory_start = EXCLUDED.inventory_start,
            inventory_end = EXCLUDED.inventory_end
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var rows int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed reading row %d: %w", rows+1, err)
		}

		productID, err := strconv.ParseInt(record[col["product_id"]], 10, 64)
		if err != nil {
			log.Printf("skipping row %d: bad product_id %q", rows+1, record[col["product_id"]])
			continue
		}

		_, err = stmt.ExecContext(c.Context,
			record[col["history_date"]],
			productID,
			atoiOrZero(record[col["units_sold"]]),
			atofOrZero(lookup(record, col, "sales_revenue")),
			atoiOrZero(record[col["inventory_start"]]),
			atoiOrZero(lookup(record, col, "inventory_end")),
		)
		if err != nil {
			return fmt.Errorf("failed inserting row %d: %w", rows+1, err)
		}
		rows++
	}

	log.Printf("seeded %d historical records from %s", rows, path)
	return nil
}

// runProductSeeder loads the products master table from a CSV with the header:
// product_id,sku,product_name,category_id,supplier_id,unit_price,cost_price
func runProductSeeder(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}

	path := c.String("file")
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("failed to read CSV header: %w", err)
	}
	col := indexColumns(header)

	required := []string{"product_id", "sku", "product_name", "unit_price"}
	for _, name := range required {
		if _, ok := col[name]; !ok {
			return fmt.Errorf("missing required column %q in %s", name, path)
		}
	}

	stmt, err := db.PrepareContext(c.Context, `
        INSERT INTO products (
            product_id, sku, product_name, category_id, supplier_id,
            unit_price, cost_price, reorder_level, reorder_quantity,
            unit_of_measure, is_active, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, 10, 50, 'piece', TRUE, NOW(), NOW())
        ON CONFLICT (product_id) DO UPDATE SET
            sku = EXCLUDED.sku,
            product_name = EXCLUDED.product_name,
            category_id = EXCLUDED.category_id,
            supplier_id = EXCLUDED.supplier_id,
            unit_price = EXCLUDED.unit_price,
            cost_price = EXCLUDED.cost_price,
            updated_at = NOW()
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var rows int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed reading row %d: %w", rows+1, err)
		}

		productID, err := strconv.ParseInt(record[col["product_id"]], 10, 64)
		if err != nil {
			log.Printf("skipping row %d: bad product_id %q", rows+1, record[col["product_id"]])
			continue
		}

		_, err = stmt.ExecContext(c.Context,
			productID,
			record[col["sku"]],
			record[col["product_name"]],
			nullIfEmpty(lookup(record, col, "category_id")),
			nullIfEmpty(lookup(record, col, "supplier_id")),
			atofOrZero(record[col["unit_price"]]),
			nullIfEmpty(lookup(record, col, "cost_price")),
		)
		if err != nil {
			return fmt.Errorf("failed inserting row %d: %w", rows+1, err)
		}
		rows++
	}

	log.Printf("seeded %d products from %s", rows, path)
	return nil
}

func indexColumns(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return col
}

func lookup(record []string, col map[string]int, name string) string {
	idx, ok := col[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func atoiOrZero(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func atofOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
