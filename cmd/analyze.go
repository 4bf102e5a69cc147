package main

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/pokescan/internal/model"
)

var analyzeCompany string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image-file>",
	Short: "Analyze a slab photo and print identity and valuation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var hint model.GradingCompany
		if analyzeCompany != "" {
			hint = model.GradingCompany(analyzeCompany)
			if !hint.Valid() {
				return eris.Errorf("unknown grading company %q (use PSA, BGS, or CGC)", analyzeCompany)
			}
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read image %s", args[0])
		}

		env, err := initService(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		record, err := env.Scans.Analyze(cmd.Context(), base64.StdEncoding.EncodeToString(data), hint)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return eris.Wrap(err, "marshal result")
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeCompany, "company", "", "grading company hint (PSA, BGS, CGC)")
	rootCmd.AddCommand(analyzeCmd)
}
