package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "stockpilot/internal/errors"
	"stockpilot/internal/model"
)

const (
	msgRequired      = "This field is required."
	msgNull          = "This field may not be null."
	msgBlank         = "This field may not be blank."
	msgInvalidString = "Not a valid string."
	msgInvalidNumber = "A valid number is required."
	msgInvalidInt    = "A valid integer is required."

	maxNameLength = 255
	maxPositive   = 2147483647
)

var (
	validate = validator.New()

	// Integral values may carry a zero fraction, as in "3.0".
	zeroFraction = regexp.MustCompile(`\.0*\s*$`)

	ten = big.NewInt(10)
)

type decimalRule struct {
	maxDigits int
	places    int
	min       decimal.Decimal
	max       *decimal.Decimal
}

var (
	moneyRule  = decimalRule{maxDigits: 10, places: 2, min: decimal.Zero}
	ratingMax  = decimal.NewFromInt(5)
	ratingRule = decimalRule{maxDigits: 3, places: 2, min: decimal.Zero, max: &ratingMax}
)

// ProductInput is a decoded JSON object of product fields. A key mapped to JSON
// null is distinct from an absent key: null clears nullable fields, absence keeps
// the stored value on update.
type ProductInput map[string]json.RawMessage

// Apply validates the input and writes accepted values onto p. Every field error
// is collected; nothing is written unless all fields are valid. When partial is
// false the required fields must be present. Server-owned fields (id, created_by,
// timestamps, profit_margin) and unknown keys are ignored.
func (in ProductInput) Apply(p *model.Product, partial bool) error {
	r := &fieldReader{in: in, partial: partial, errs: apperrors.ValidationErrors{}}
	next := *p

	if v, ok := r.text("name", true); ok {
		next.Name = v
	}
	if v, ok := r.optionalText("description"); ok {
		next.Description = v
	}
	if v, ok := r.decimal("cost_price", moneyRule, true); ok {
		next.CostPrice = v
	}
	if v, ok := r.decimal("selling_price", moneyRule, true); ok {
		next.SellingPrice = v
	}
	if v, ok := r.category("category"); ok {
		next.Category = v
	}
	if v, ok := r.count("stock_available"); ok {
		next.StockAvailable = v
	}
	if v, ok := r.count("units_sold"); ok {
		next.UnitsSold = v
	}
	if v, ok := r.nullDecimal("customer_rating", ratingRule); ok {
		next.CustomerRating = v
	}
	if v, ok := r.nullCount("demand_forecast"); ok {
		next.DemandForecast = v
	}
	if v, ok := r.nullDecimal("optimized_price", moneyRule); ok {
		next.OptimizedPrice = v
	}

	if err := r.errs.Err(); err != nil {
		return err
	}
	*p = next
	return nil
}

type fieldReader struct {
	in      ProductInput
	partial bool
	errs    apperrors.ValidationErrors
}

// lookup returns the raw value for field. present is false when the field was
// omitted; null reports an explicit JSON null.
func (r *fieldReader) lookup(field string, required bool) (raw json.RawMessage, present, null bool) {
	raw, present = r.in[field]
	if !present {
		if required && !r.partial {
			r.errs.Add(field, msgRequired)
		}
		return nil, false, false
	}
	raw = bytes.TrimSpace(raw)
	return raw, true, len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func (r *fieldReader) text(field string, required bool) (string, bool) {
	raw, present, null := r.lookup(field, required)
	if !present {
		return "", false
	}
	if null {
		r.errs.Add(field, msgNull)
		return "", false
	}
	s, ok := scalarText(raw)
	if !ok {
		r.errs.Add(field, msgInvalidString)
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		r.errs.Add(field, msgBlank)
		return "", false
	}
	if err := validate.Var(s, fmt.Sprintf("max=%d", maxNameLength)); err != nil {
		r.errs.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", maxNameLength))
		return "", false
	}
	return s, true
}

func (r *fieldReader) optionalText(field string) (*string, bool) {
	raw, present, null := r.lookup(field, false)
	if !present {
		return nil, false
	}
	if null {
		return nil, true
	}
	s, ok := scalarText(raw)
	if !ok {
		r.errs.Add(field, msgInvalidString)
		return nil, false
	}
	s = strings.TrimSpace(s)
	return &s, true
}

func (r *fieldReader) category(field string) (model.Category, bool) {
	raw, present, null := r.lookup(field, false)
	if !present {
		return "", false
	}
	if null {
		r.errs.Add(field, msgNull)
		return "", false
	}
	s, ok := scalarText(raw)
	if !ok {
		s = string(raw)
	}
	c := model.Category(s)
	if !ok || !c.Valid() {
		r.errs.Add(field, fmt.Sprintf("%q is not a valid choice.", s))
		return "", false
	}
	return c, true
}

func (r *fieldReader) decimal(field string, rule decimalRule, required bool) (decimal.Decimal, bool) {
	raw, present, null := r.lookup(field, required)
	if !present {
		return decimal.Decimal{}, false
	}
	if null {
		r.errs.Add(field, msgNull)
		return decimal.Decimal{}, false
	}
	return r.parseDecimal(field, raw, rule)
}

func (r *fieldReader) nullDecimal(field string, rule decimalRule) (decimal.NullDecimal, bool) {
	raw, present, null := r.lookup(field, false)
	if !present {
		return decimal.NullDecimal{}, false
	}
	if null {
		return decimal.NullDecimal{}, true
	}
	d, ok := r.parseDecimal(field, raw, rule)
	if !ok {
		return decimal.NullDecimal{}, false
	}
	return decimal.NewNullDecimal(d), true
}

func (r *fieldReader) parseDecimal(field string, raw json.RawMessage, rule decimalRule) (decimal.Decimal, bool) {
	d, err := decodeDecimal(raw)
	if err != nil {
		r.errs.Add(field, msgInvalidNumber)
		return decimal.Decimal{}, false
	}
	if msg := checkPrecision(d, rule.maxDigits, rule.places); msg != "" {
		r.errs.Add(field, msg)
		return decimal.Decimal{}, false
	}

	ok := true
	if d.LessThan(rule.min) {
		r.errs.Add(field, fmt.Sprintf("Ensure this value is greater than or equal to %s.", rule.min))
		ok = false
	}
	if rule.max != nil && d.GreaterThan(*rule.max) {
		r.errs.Add(field, fmt.Sprintf("Ensure this value is less than or equal to %s.", rule.max))
		ok = false
	}
	return d, ok
}

func (r *fieldReader) count(field string) (uint, bool) {
	raw, present, null := r.lookup(field, false)
	if !present {
		return 0, false
	}
	if null {
		r.errs.Add(field, msgNull)
		return 0, false
	}
	return r.parseCount(field, raw)
}

func (r *fieldReader) nullCount(field string) (*uint, bool) {
	raw, present, null := r.lookup(field, false)
	if !present {
		return nil, false
	}
	if null {
		return nil, true
	}
	n, ok := r.parseCount(field, raw)
	if !ok {
		return nil, false
	}
	return &n, true
}

func (r *fieldReader) parseCount(field string, raw json.RawMessage) (uint, bool) {
	s, ok := scalarText(raw)
	if !ok {
		r.errs.Add(field, msgInvalidInt)
		return 0, false
	}
	n, err := strconv.ParseInt(zeroFraction.ReplaceAllString(strings.TrimSpace(s), ""), 10, 64)
	if err != nil {
		r.errs.Add(field, msgInvalidInt)
		return 0, false
	}
	if err := validate.Var(n, "gte=0"); err != nil {
		r.errs.Add(field, "Ensure this value is greater than or equal to 0.")
		return 0, false
	}
	if err := validate.Var(n, fmt.Sprintf("lte=%d", maxPositive)); err != nil {
		r.errs.Add(field, fmt.Sprintf("Ensure this value is less than or equal to %d.", maxPositive))
		return 0, false
	}
	return uint(n), true
}

// scalarText returns the text of a JSON string or number. Booleans, objects and
// arrays are rejected.
func scalarText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case c == '-' || (c >= '0' && c <= '9'):
		return string(raw), true
	default:
		return "", false
	}
}

// decodeDecimal accepts JSON numbers and numeric strings. Trailing fractional
// zeros of JSON numbers are dropped, so 12.50 and 12.5 are the same value.
func decodeDecimal(raw json.RawMessage) (decimal.Decimal, error) {
	s, ok := scalarText(raw)
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("not a number: %s", raw)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, err
	}
	if raw[0] != '"' {
		d = trimFractionZeros(d)
	}
	return d, nil
}

func trimFractionZeros(d decimal.Decimal) decimal.Decimal {
	coef, exp := d.Coefficient(), d.Exponent()
	if coef.Sign() == 0 {
		return decimal.Zero
	}
	rem := new(big.Int)
	for exp < 0 {
		q, m := new(big.Int).QuoRem(coef, ten, rem)
		if m.Sign() != 0 {
			break
		}
		coef, exp = q, exp+1
	}
	return decimal.NewFromBigInt(coef, exp)
}

// checkPrecision enforces a decimal(maxDigits, places) column and returns the
// first violated limit as a message, or "" when d fits.
func checkPrecision(d decimal.Decimal, maxDigits, places int) string {
	digits := len(new(big.Int).Abs(d.Coefficient()).String())
	exp := int(d.Exponent())

	var total, whole, fraction int
	switch {
	case exp >= 0:
		total, whole, fraction = digits+exp, digits+exp, 0
	case digits > -exp:
		total, whole, fraction = digits, digits+exp, -exp
	default:
		total, whole, fraction = -exp, 0, -exp
	}

	switch {
	case total > maxDigits:
		return fmt.Sprintf("Ensure that there are no more than %d digits in total.", maxDigits)
	case fraction > places:
		return fmt.Sprintf("Ensure that there are no more than %d decimal places.", places)
	case whole > maxDigits-places:
		return fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", maxDigits-places)
	}
	return ""
}
