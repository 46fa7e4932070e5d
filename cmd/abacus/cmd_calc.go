package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abacus-app/abacus/internal/calc"
	"github.com/abacus-app/abacus/internal/model"
)

var operationAliases = map[string]model.Operation{
	"+": model.OperationAdd,
	"-": model.OperationSubtract,
	"x": model.OperationMultiply,
	"*": model.OperationMultiply,
	"/": model.OperationDivide,
}

func parseOperation(s string) model.Operation {
	if op, ok := operationAliases[s]; ok {
		return op
	}
	return model.Operation(strings.ToLower(s))
}

func newCalcCmd(a *app) *cobra.Command {
	var currency string

	cmd := &cobra.Command{
		Use:   "calc <number1> <operation> <number2>",
		Short: "Compute a result and record it in the history",
		Long: `Compute number1 <operation> number2. The operation is add, subtract,
multiply or divide (or + - x /). The result is formatted in USD unless
--currency EUR is given.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ok, err := a.gate("/"); !ok {
				return err
			}

			var validationErr *calc.ValidationError
			n1, err := calc.ParseOperand(args[0], 1)
			if errors.As(err, &validationErr) {
				fmt.Fprintln(a.out, validationErr.Message)
				return nil
			}
			n2, err := calc.ParseOperand(args[2], 2)
			if errors.As(err, &validationErr) {
				fmt.Fprintln(a.out, validationErr.Message)
				return nil
			}

			resp, _, err := a.client.CalculateAndRecord(cmd.Context(), a.manager.State(), calc.Request{
				Operand1:  &n1,
				Operand2:  &n2,
				Operation: parseOperation(args[1]),
				Currency:  model.Currency(strings.ToUpper(currency)),
			})
			if resp == nil {
				fmt.Fprintf(a.out, "Error calling the calculate function: %s\n", computeMessage(err))
				return nil
			}

			fmt.Fprintf(a.out, "Result: %s\n", resp.Result)
			if err != nil {
				a.logger.Error("history append failed", "error", err)
				fmt.Fprintln(a.out, "The result could not be saved to your history.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&currency, "currency", "c", string(model.CurrencyUSD), "Result currency: USD or EUR")
	return cmd
}

func computeMessage(err error) string {
	var calcErr *calc.Error
	if errors.As(err, &calcErr) {
		return calcErr.Message
	}
	return err.Error()
}
