// Command cyclectl runs the predictor and insights over an exported record
// document, the same JSON the portal stores per account.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/periodcalm/period-calm-website-sub000/models"
	"github.com/periodcalm/period-calm-website-sub000/services"

	"github.com/spf13/cobra"
)

var (
	today string
	topN  int
)

var rootCmd = &cobra.Command{
	Use:           "cyclectl",
	Short:         "Inspect Period Calm cycle record documents",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var predictCmd = &cobra.Command{
	Use:   "predict [file]",
	Short: "Predict the next period, ovulation and fertile window",
	Long: `Reads a record document (versioned or a bare date map) from file, or stdin
when file is "-", and prints the prediction as JSON.

Example:
  cyclectl predict export.json --today 2024-02-01`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

var insightsCmd = &cobra.Command{
	Use:   "insights [file]",
	Short: "Summarise symptoms, mood and period days",
	Args:  cobra.ExactArgs(1),
	RunE:  runInsights,
}

var csvCmd = &cobra.Command{
	Use:   "csv [file]",
	Short: "Render the records as the CSV the portal exports",
	Args:  cobra.ExactArgs(1),
	RunE:  runCSV,
}

func init() {
	predictCmd.Flags().StringVar(&today, "today", "", "reference day for phase output (YYYY-MM-DD, default today)")
	insightsCmd.Flags().IntVar(&topN, "top", services.DefaultTopSymptoms, "number of symptoms to rank")
	rootCmd.AddCommand(predictCmd, insightsCmd, csvCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cyclectl:", err)
		os.Exit(1)
	}
}

func readRecords(cmd *cobra.Command, path string) (models.RecordMap, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}
	return services.ParseRecordDocument(data)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runPredict(cmd *cobra.Command, args []string) error {
	records, err := readRecords(cmd, args[0])
	if err != nil {
		return err
	}
	ref := time.Now()
	if today != "" {
		if ref, err = models.ParseDate(today); err != nil {
			return err
		}
	}

	p, err := services.PredictCycle(records)
	if errors.Is(err, services.ErrInsufficientData) {
		return printJSON(cmd, map[string]any{"available": false})
	}
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]any{
		"available":           true,
		"prediction":          p,
		"phase":               p.PhaseOn(ref),
		"daysUntilNextPeriod": p.DaysUntilNextPeriod(ref),
	})
}

func runInsights(cmd *cobra.Command, args []string) error {
	records, err := readRecords(cmd, args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, services.ComputeInsights(records, topN))
}

func runCSV(cmd *cobra.Command, args []string) error {
	records, err := readRecords(cmd, args[0])
	if err != nil {
		return err
	}
	out, err := services.BuildCSV(records)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(out)
	return err
}
