package service

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"inventory-backend/internal/apps/product/models"
)

// ErrInvalidCSV is returned when the input cannot be read as CSV at all
var ErrInvalidCSV = errors.New("invalid csv")

// CSVHeader is the first row of every export
var CSVHeader = []string{"ID", "Name", "Category", "Quantity", "Price", "Threshold"}

// WriteCSV writes products as CSV with a header row; prices use two decimals
func WriteCSV(w io.Writer, products []models.Product) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, p := range products {
		record := []string{
			strconv.Itoa(p.ID),
			p.Name,
			p.Category,
			strconv.Itoa(p.Quantity),
			fmt.Sprintf("%.2f", p.Price),
			strconv.Itoa(p.Threshold),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseCSV reads products from r. The first row is a header. Rows with five
// fields (no threshold) or six fields are accepted; rows with any other field
// count are skipped. Rows that fail to parse or validate are skipped and
// reported by line. A later row with the same id replaces an earlier one.
func ParseCSV(r io.Reader) ([]models.Product, models.ImportResult, error) {
	result := models.ImportResult{Errors: []string{}}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, result, nil
		}
		return nil, result, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
	}

	var products []models.Product
	index := make(map[int]int)

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", parseErr.StartLine, parseErr.Err))
				continue
			}
			return nil, result, fmt.Errorf("%w: %v", ErrInvalidCSV, err)
		}

		line, _ := cr.FieldPos(0)
		if len(record) != 5 && len(record) != 6 {
			result.Skipped++
			continue
		}

		product, err := parseRecord(record)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		if i, ok := index[product.ID]; ok {
			products[i] = product
			continue
		}
		index[product.ID] = len(products)
		products = append(products, product)
	}

	return products, result, nil
}

func parseRecord(record []string) (models.Product, error) {
	var (
		p   models.Product
		err error
	)

	if p.ID, err = strconv.Atoi(strings.TrimSpace(record[0])); err != nil {
		return p, fmt.Errorf("invalid id %q", record[0])
	}
	p.Name = record[1]
	p.Category = record[2]
	if p.Quantity, err = strconv.Atoi(strings.TrimSpace(record[3])); err != nil {
		return p, fmt.Errorf("invalid quantity %q", record[3])
	}
	if p.Price, err = strconv.ParseFloat(strings.TrimSpace(record[4]), 64); err != nil {
		return p, fmt.Errorf("invalid price %q", record[4])
	}
	if len(record) == 6 {
		if p.Threshold, err = strconv.Atoi(strings.TrimSpace(record[5])); err != nil {
			return p, fmt.Errorf("invalid threshold %q", record[5])
		}
	}

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}
