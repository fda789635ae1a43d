// Package validation checks request payloads before anything reaches the
// store. Failures are reported per field using the JSON field names.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Errors maps a JSON field name to a user-facing message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + e[f]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// messages are keyed by "<field>.<tag>".
var messages = map[string]string{
	"name.required":           "Name is required",
	"target_amount.posamount": "Target amount must be a positive number",
	"deadline.ymd":            "Invalid date format",
	"amount.posamount":        "Amount must be a positive number",
	"category.required":       "Please select a category",
	"date.ymd":                "Invalid date format",
	"goal_id.uuid":            "Invalid goal ID",
	"reason.required":         "Please provide a reason for the adjustment",
	"email.required":          "Invalid email address",
	"email.email":             "Invalid email address",
	"role.oneof":              "Please select a role",
	"password.required":       "Password is required",
	"password.min":            "Password must be at least 6 characters",
	"theme.oneof":             "Theme must be light or dark",
	"token.required":          "Device token is required",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	must(v.RegisterValidation("posamount", func(fl validator.FieldLevel) bool {
		_, err := Amount(fl.Field().String())
		return err == nil
	}))
	must(v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		return IsDate(fl.Field().String())
	}))
	// Ids are compared as parsed values, so either hex case is accepted.
	must(v.RegisterValidation("uuid", func(fl validator.FieldLevel) bool {
		_, err := uuid.Parse(fl.Field().String())
		return err == nil
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Struct validates v against its `validate` tags.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(Errors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe.Tag())
	}
	return out
}

func message(field, tag string) string {
	if m, ok := messages[field+"."+tag]; ok {
		return m
	}
	switch tag {
	case "required":
		return field + " is required"
	case "posamount":
		return "Must be a positive number"
	case "ymd":
		return "Invalid date format"
	case "email":
		return "Invalid email address"
	case "uuid":
		return "Invalid identifier"
	}
	return "Invalid value"
}

// maxAmount is the first value that no longer fits numeric(14,2).
var maxAmount = decimal.New(1, 12)

// Amount parses a positive monetary amount with at most two decimal
// places that fits the numeric(14,2) money columns.
func Amount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, err
	}
	if !d.IsPositive() {
		return decimal.Zero, errors.New("amount must be positive")
	}
	if !d.Equal(d.Round(2)) {
		return decimal.Zero, errors.New("amount has more than two decimal places")
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return decimal.Zero, errors.New("amount is too large")
	}
	return d, nil
}

// IsDate reports whether s is a real calendar date written as YYYY-MM-DD.
func IsDate(s string) bool {
	if !datePattern.MatchString(s) {
		return false
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}
