package seller

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"broker-office/core/sheet"
	"broker-office/core/syncengine"
	"broker-office/core/utils"

	"broker-office/feature/seller/models"
)

// sellerNumberPattern is the business key format: two letters, five digits.
var sellerNumberPattern = regexp.MustCompile(`^[A-Z]{2}[0-9]{5}$`)

// Mapper converts between sheet rows and canonical seller records. It
// implements syncengine.Mapper.
type Mapper struct{}

// NewMapper creates a seller mapper.
func NewMapper() *Mapper {
	return &Mapper{}
}

// KeyColumn returns the business key column name.
func (m *Mapper) KeyColumn() string {
	return "seller_number"
}

// ToCanonical converts a sheet row into a canonical record. Cell values are
// trimmed and the price is parsed into a number.
func (m *Mapper) ToCanonical(row sheet.Row) (syncengine.Record, error) {
	key := strings.ToUpper(utils.NormalizeCell(row["seller_number"]))

	price, err := parsePrice(row["price"])
	if err != nil {
		return syncengine.Record{}, fmt.Errorf("seller %s: %w", key, err)
	}

	fields := make(map[string]any, len(models.Columns()))
	for _, col := range models.Columns() {
		fields[col] = utils.NormalizeCell(row[col])
	}
	fields["seller_number"] = key
	fields["price"] = price

	return syncengine.Record{Key: key, Fields: fields}, nil
}

// ToTabular converts a canonical record into a sheet row.
func (m *Mapper) ToTabular(record syncengine.Record) sheet.Row {
	row := make(sheet.Row, len(models.Columns()))
	for _, col := range models.Columns() {
		row[col] = utils.NormalizeCell(record.Fields[col])
	}
	row["seller_number"] = record.Key
	return row
}

// Validate checks a sheet row before it is applied to the canonical store.
func (m *Mapper) Validate(row sheet.Row) syncengine.ValidationResult {
	var errs []string

	key := strings.ToUpper(utils.NormalizeCell(row["seller_number"]))
	if key == "" {
		errs = append(errs, "seller_number is required")
	} else if !sellerNumberPattern.MatchString(key) {
		errs = append(errs, fmt.Sprintf("seller_number %q does not match AA00000 format", key))
	}

	if utils.NormalizeCell(row["name"]) == "" {
		errs = append(errs, "name is required")
	}

	if _, err := parsePrice(row["price"]); err != nil {
		errs = append(errs, err.Error())
	}

	return syncengine.ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// parsePrice parses a price cell. Empty cells mean zero; anything else must
// be numeric after currency separators are stripped.
func parsePrice(val any) (float64, error) {
	switch v := val.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}

	s := utils.NormalizeCell(val)
	if s == "" {
		return 0, nil
	}
	cleaned := strings.NewReplacer(",", "", "¥", "", "$", "").Replace(s)
	price, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("price %q is not numeric", s)
	}
	return price, nil
}
