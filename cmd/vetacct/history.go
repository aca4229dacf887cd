package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <customer-id>",
	Short: "List a customer's account act history, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		ctx := a.cmdContext(cmd)
		customerID := args[0]

		limit := historyLimit
		if limit == 0 {
			limit = a.cfg.DefaultPageSize
		}

		fmt.Printf("%-36s %-16s %-12s %-10s %12s %12s  %s\n",
			"ACT", "KIND", "STATUS", "DATE", "TOTAL", "ALLOCATED", "FLAGS")
		token := ""
		for {
			acts, next, err := a.services.Account.ActHistory(ctx, customerID, token, limit)
			if err != nil {
				return err
			}
			for _, act := range acts {
				flags := ""
				if act.Hidden {
					flags += "H"
				}
				if act.BalanceParticipation {
					flags += "P"
				}
				fmt.Printf("%-36s %-16s %-12s %-10s %12s %12s  %s\n",
					act.ActID, act.Kind, act.Status, act.StartTime.Format("2006-01-02"),
					act.Total.StringFixed(2), act.Allocated.StringFixed(2), flags)
			}
			if next == "" {
				return nil
			}
			token = next
		}
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Page size")
	rootCmd.AddCommand(historyCmd)
}
