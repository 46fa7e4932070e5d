package model

import (
	"fmt"
	"strconv"
	"time"
)

// Operation is an arithmetic operation supported by the calculator.
type Operation string

// Supported operations.
const (
	OperationAdd      Operation = "add"
	OperationSubtract Operation = "subtract"
	OperationMultiply Operation = "multiply"
	OperationDivide   Operation = "divide"
)

// IsValid returns true if the operation is one of the four supported values.
func (o Operation) IsValid() bool {
	switch o {
	case OperationAdd, OperationSubtract, OperationMultiply, OperationDivide:
		return true
	}
	return false
}

// Currency selects the output format of a calculation result.
type Currency string

// Supported currencies. Anything that is not EUR formats as USD.
const (
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

// HistoryKeyLayout is the layout of history record keys: UTC, millisecond precision.
const HistoryKeyLayout = "2006-01-02T15:04:05.000Z"

// HistoryKey returns the record key for a write happening at t.
func HistoryKey(t time.Time) string {
	return t.UTC().Format(HistoryKeyLayout)
}

// CalculationRecord is one persisted computation owned by a single user.
// Records are never mutated after creation.
type CalculationRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Operand1  float64   `json:"operand1"`
	Operand2  float64   `json:"operand2"`
	Operation Operation `json:"operation"`
	Currency  Currency  `json:"currency"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary renders the record as "<n1> <op> <n2> = <result> (<currency>)".
func (r *CalculationRecord) Summary() string {
	return fmt.Sprintf("%s %s %s = %s (%s)",
		strconv.FormatFloat(r.Operand1, 'f', -1, 64),
		r.Operation,
		strconv.FormatFloat(r.Operand2, 'f', -1, 64),
		r.Result,
		r.Currency,
	)
}
