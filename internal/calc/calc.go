// Package calc implements the arithmetic service: operand validation,
// the four operations, and currency formatting of the result.
package calc

import (
	"errors"
	"fmt"

	"github.com/abacus-app/abacus/internal/model"
)

// ErrorCodeInvalidArgument is the machine-readable kind of every compute rejection.
const ErrorCodeInvalidArgument = "invalid-argument"

// Rejection messages.
const (
	MsgMissingInput     = "Missing input data"
	MsgDivisionByZero   = "Division by zero"
	MsgInvalidOperation = "Invalid operation"
)

// Error is a structured compute error.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

func invalidArgument(msg string) *Error {
	return &Error{Code: ErrorCodeInvalidArgument, Message: msg}
}

// IsInvalidArgument reports whether err is a compute rejection.
func IsInvalidArgument(err error) bool {
	var calcErr *Error
	return errors.As(err, &calcErr) && calcErr.Code == ErrorCodeInvalidArgument
}

// Request is a compute request. Nil operands are missing.
type Request struct {
	Operand1  *float64        `json:"operand1"`
	Operand2  *float64        `json:"operand2"`
	Operation model.Operation `json:"operation"`
	Currency  model.Currency  `json:"currency"`
}

// Response is a successful compute response.
type Response struct {
	Result string `json:"result"`
}

// Options tunes calculator behaviour.
type Options struct {
	// LegacyFalsyZero treats an operand of exactly 0 as missing.
	LegacyFalsyZero bool
}

// Calculator computes and formats results. It holds no state between calls.
type Calculator struct {
	opts Options
}

// New creates a Calculator.
func New(opts Options) *Calculator {
	return &Calculator{opts: opts}
}

// Compute validates the request, applies the operation and formats the result.
func (c *Calculator) Compute(req Request) (*Response, error) {
	if c.missing(req.Operand1) || c.missing(req.Operand2) || req.Operation == "" {
		return nil, invalidArgument(MsgMissingInput)
	}

	value, err := Apply(*req.Operand1, *req.Operand2, req.Operation)
	if err != nil {
		return nil, err
	}

	return &Response{Result: FormatCurrency(value, req.Currency)}, nil
}

func (c *Calculator) missing(v *float64) bool {
	if v == nil {
		return true
	}
	return c.opts.LegacyFalsyZero && *v == 0
}

// Apply performs one IEEE-754 operation.
func Apply(a, b float64, op model.Operation) (float64, error) {
	switch op {
	case model.OperationAdd:
		return a + b, nil
	case model.OperationSubtract:
		return a - b, nil
	case model.OperationMultiply:
		return a * b, nil
	case model.OperationDivide:
		if b == 0 {
			return 0, invalidArgument(MsgDivisionByZero)
		}
		return a / b, nil
	default:
		return 0, invalidArgument(MsgInvalidOperation)
	}
}

// String renders the request for logs.
func (r Request) String() string {
	return fmt.Sprintf("%s(%s, %s) %s", r.Operation, fmtOperand(r.Operand1), fmtOperand(r.Operand2), r.Currency)
}

func fmtOperand(v *float64) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%g", *v)
}
