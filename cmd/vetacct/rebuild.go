package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rebuildDryRun bool

var rebuildCmd = &cobra.Command{
	Use:   "rebuild <customer-id>",
	Short: "Rebuild a customer's allocations and balance from the full act history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		ctx := a.cmdContext(cmd)
		customerID := args[0]

		if rebuildDryRun {
			preview, err := a.services.Generator.Preview(ctx, customerID)
			if err != nil {
				return err
			}
			fmt.Printf("customer %s\n", preview.CustomerID)
			fmt.Printf("  current balance:  %s\n", preview.CurrentBalance.StringFixed(2))
			fmt.Printf("  rebuilt balance:  %s\n", preview.RebuiltBalance.StringFixed(2))
			fmt.Printf("  allocations:      %d\n", preview.AllocationCount)
			fmt.Printf("  participant acts: %d\n", preview.ParticipantActs)
			if preview.InSync {
				fmt.Println("  state is in sync; rebuild would change nothing")
			} else {
				fmt.Println("  state is out of sync; rebuild would repair it")
			}
			return nil
		}

		balance, err := a.services.Generator.Generate(ctx, customerID)
		if err != nil {
			return err
		}
		fmt.Printf("customer %s rebuilt: balance %s\n", customerID, balance.StringFixed(2))
		return nil
	},
}

func init() {
	rebuildCmd.Flags().BoolVar(&rebuildDryRun, "dry-run", false, "Report what a rebuild would change without persisting")
	rootCmd.AddCommand(rebuildCmd)
}
