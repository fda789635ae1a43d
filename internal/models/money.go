package models

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts go over the wire as plain JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// AmountInput is an amount as the client typed it. It accepts a JSON string
// or a JSON number, so amounts read from a response can be sent back as is.
// Parsing and range checks happen in validation.
type AmountInput string

func (a *AmountInput) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*a = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = AmountInput(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return errors.New("amount must be a string or a number")
	}
	*a = AmountInput(n.String())
	return nil
}
