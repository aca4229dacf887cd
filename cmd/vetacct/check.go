package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vetdesk/accounts/internal/apperrors"
)

var checkCmd = &cobra.Command{
	Use:   "check <customer-id>",
	Short: "Verify a customer's incremental balance against the definitive balance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		ctx := a.cmdContext(cmd)
		customerID := args[0]

		balance, err := a.services.Account.DefinitiveBalance(ctx, customerID)
		if err != nil {
			var ruleErr *apperrors.RuleError
			if errors.As(err, &ruleErr) && ruleErr.Code == apperrors.InvalidBalance {
				fmt.Printf("customer %s: OUT OF SYNC (%s)\n", customerID, ruleErr.Error())
				fmt.Println("run 'vetacct rebuild' to repair")
				return nil
			}
			return err
		}
		if err := a.services.Generator.VerifyAllocations(ctx, customerID); err != nil {
			var ruleErr *apperrors.RuleError
			if errors.As(err, &ruleErr) && ruleErr.Code == apperrors.InvalidBalance {
				fmt.Printf("customer %s: ALLOCATIONS OUT OF SYNC (%s)\n", customerID, ruleErr.Error())
				fmt.Println("run 'vetacct rebuild' to repair")
				return nil
			}
			return err
		}
		fmt.Printf("customer %s: balance %s (consistent)\n", customerID, balance.StringFixed(2))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
