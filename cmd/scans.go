package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/pokescan/internal/model"
	"github.com/sells-group/pokescan/internal/store"
)

var scansCmd = &cobra.Command{
	Use:   "scans",
	Short: "Inspect and confirm stored scans",
}

var scansListStatus string

var scansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored scans, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initService(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		records, err := env.Store.ListScans(cmd.Context(), store.ScanFilter{
			Status: model.ScanStatus(scansListStatus),
			Limit:  50,
		})
		if err != nil {
			return err
		}

		for _, record := range records {
			fmt.Printf("%s  %-9s  %-12s %-8s grade %-4g $%d\n",
				record.ScanID, record.Status,
				record.Identity.Card.Name, record.Identity.Card.CardNumber,
				record.Identity.GradeNumeric, record.Valuation.FairMarketValue)
		}
		return nil
	},
}

var scansGetCmd = &cobra.Command{
	Use:   "get <scan-id>",
	Short: "Print one stored scan as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initService(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		record, err := env.Scans.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(record)
	},
}

var scansConfirmCmd = &cobra.Command{
	Use:   "confirm <scan-id>",
	Short: "Mark a scan's identification as user-confirmed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initService(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		record, err := env.Scans.Confirm(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(record)
	},
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrap(err, "marshal output")
	}
	fmt.Println(string(out))
	return nil
}

func init() {
	scansListCmd.Flags().StringVar(&scansListStatus, "status", "", "filter by status (analyzed, confirmed)")
	scansCmd.AddCommand(scansListCmd, scansGetCmd, scansConfirmCmd)
	rootCmd.AddCommand(scansCmd)
}
