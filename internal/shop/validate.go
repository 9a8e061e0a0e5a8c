package shop

import (
	"errors"
	"fmt"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"strings"
	"unicode/utf8"
)

var validate = validator.New()

const (
	maxNameLen    = 200
	priceDecimals = 2
)

// Prices are stored as NUMERIC(12,2).
var maxPrice = decimal.New(1, 12-priceDecimals)

// normalizeName returns v without surrounding whitespace, which is what gets
// stored.
func normalizeName(field, v string) (string, error) {
	if !utf8.ValidString(v) || strings.ContainsRune(v, 0) {
		return "", invalid("%s must be valid UTF-8 without NUL bytes", field)
	}
	v = strings.TrimSpace(v)
	if err := validate.Var(v, fmt.Sprintf("required,max=%d", maxNameLen)); err != nil {
		return "", invalid("%s must be 1-%d characters", field, maxNameLen)
	}
	return v, nil
}

func normalizeProduct(in ProductInput) (ProductInput, error) {
	name, err := normalizeName("name", in.Name)
	if err != nil {
		return ProductInput{}, err
	}
	in.Name = name
	if err := validate.Struct(in); err != nil {
		return ProductInput{}, structError(err)
	}
	switch {
	case in.Price.IsNegative():
		return ProductInput{}, invalid("price cannot be negative: %s", in.Price)
	case !in.Price.Equal(in.Price.Round(priceDecimals)):
		return ProductInput{}, invalid("price has more than %d decimal places: %s", priceDecimals, in.Price)
	case in.Price.GreaterThanOrEqual(maxPrice):
		return ProductInput{}, invalid("price must be below %s: %s", maxPrice, in.Price)
	}
	return in, nil
}

func validateOrder(in OrderInput) error {
	if len(in.ProductIDs) == 0 {
		return invalid("order needs at least one product")
	}
	if err := validate.Struct(in); err != nil {
		return structError(err)
	}
	seen := make(map[int64]struct{}, len(in.ProductIDs))
	for _, id := range in.ProductIDs {
		if _, dup := seen[id]; dup {
			return invalid("product %d listed more than once", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validateID(field string, id int64) error {
	if id <= 0 {
		return invalid("%s must be positive, got %d", field, id)
	}
	return nil
}

func structError(err error) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch field := fe.Field(); {
		case field == "Name":
			return invalid("name must be 1-%d characters", maxNameLen)
		case field == "SellerID":
			return invalid("seller_id must be positive")
		case field == "BuyerID":
			return invalid("buyer_id must be positive")
		case strings.HasPrefix(field, "ProductIDs"):
			return invalid("product ids must be positive")
		}
		return invalid("%s failed %q", fe.Namespace(), fe.Tag())
	}
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
