// Package errors formats calculation errors as JSON for scripts and other
// tools that consume capitalg output.
//
// Domain-specific error types remain in their respective packages (parser,
// normalize, ledger); this package only handles the presentation. Terminal
// rendering with row context lives in the cli package.
package errors

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"

	"github.com/robinvdvleuten/capitalg/rates"
	"github.com/robinvdvleuten/capitalg/record"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

var _ Formatter = (*JSONFormatter)(nil)

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Position *PositionJSON  `json:"position,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// PositionJSON represents a row of a CSV file.
type PositionJSON struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.toJSON(err))
	return string(data)
}

// toJSON converts an error to ErrorJSON. The type and position come from the
// first error in the chain that carries a position, so wrapping with
// fmt.Errorf does not hide them.
func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
	}

	var positioned interface {
		error
		GetPosition() record.Position
	}
	if stdErrors.As(err, &positioned) {
		errJSON.Type = fmt.Sprintf("%T", positioned)
		if pos := positioned.GetPosition(); !pos.IsZero() {
			errJSON.Position = &PositionJSON{
				Filename: pos.Filename,
				Line:     pos.Line,
			}
		}
	}

	details := make(map[string]any)

	var txnErr interface {
		error
		GetTransaction() record.Transaction
	}
	if stdErrors.As(err, &txnErr) {
		txn := txnErr.GetTransaction()
		details["raw_id"] = txn.RawID
		details["date"] = txn.Date.Format(record.DateLayout)
		details["type"] = txn.Kind.Label()
		details["asset"] = txn.Asset
		details["quantity"] = txn.Quantity.String()
	}

	var kindErr *record.UnknownKindError
	if stdErrors.As(err, &kindErr) {
		details["label"] = kindErr.Label
	}

	var rateErr *rates.MissingRateError
	if stdErrors.As(err, &rateErr) {
		details["day"] = rateErr.Day
		details["code"] = rateErr.Code
	}

	if len(details) > 0 {
		errJSON.Details = details
	}
	return errJSON
}
