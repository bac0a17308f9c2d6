package evaluate

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Reporter writes evaluation results as a human-readable summary and a
// machine-readable JSON report.
type Reporter struct {
	results    *Results
	outputPath string
}

// NewReporter creates a reporter writing into outputPath.
func NewReporter(results *Results, outputPath string) *Reporter {
	return &Reporter{
		results:    results,
		outputPath: outputPath,
	}
}

// GenerateReport writes all report formats.
func (r *Reporter) GenerateReport() error {
	if err := os.MkdirAll(r.outputPath, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := r.generateSummary(); err != nil {
		return err
	}
	return r.generateJSONReport()
}

// WriteSummary renders the human-readable summary to w.
func (r *Reporter) WriteSummary(w io.Writer) {
	res := r.results

	fmt.Fprintf(w, "EVALUATION RESULTS\n")
	fmt.Fprintf(w, "==================\n\n")

	fmt.Fprintf(w, "Run: %s (%s)\n",
		res.StartTime.Format("2006-01-02 15:04:05"),
		res.EndTime.Sub(res.StartTime).Round(1e6))
	fmt.Fprintf(w, "Train samples: %d\n", res.TrainSamples)
	fmt.Fprintf(w, "Test samples: %d\n\n", res.TestSamples)

	fmt.Fprintf(w, "CONFUSION MATRIX\n")
	fmt.Fprintf(w, "----------------\n")
	fmt.Fprintf(w, "True positives (dga as dga):      %d\n", res.TruePositives)
	fmt.Fprintf(w, "False positives (benign as dga):  %d\n", res.FalsePositives)
	fmt.Fprintf(w, "True negatives (benign as benign): %d\n", res.TrueNegatives)
	fmt.Fprintf(w, "False negatives (dga as benign):  %d\n\n", res.FalseNegatives)

	fmt.Fprintf(w, "METRICS\n")
	fmt.Fprintf(w, "-------\n")
	fmt.Fprintf(w, "Accuracy:  %.4f\n", res.Accuracy)
	fmt.Fprintf(w, "Precision: %.4f\n", res.Precision)
	fmt.Fprintf(w, "Recall:    %.4f\n", res.Recall)
	fmt.Fprintf(w, "F1:        %.4f\n", res.F1)

	if len(res.BaseAccuracy) > 0 {
		fmt.Fprintf(w, "\nBASE MODEL ACCURACY\n")
		fmt.Fprintf(w, "-------------------\n")
		for _, name := range []string{"lexical", "ngram", "sequence"} {
			fmt.Fprintf(w, "%-9s %.4f\n", name+":", res.BaseAccuracy[name])
		}
	}

	if len(res.Misclassified) > 0 {
		fmt.Fprintf(w, "\nSAMPLE MISCLASSIFICATIONS\n")
		fmt.Fprintf(w, "-------------------------\n")
		for _, m := range res.Misclassified {
			fmt.Fprintf(w, "%s: expected %s, got %s (%.3f | lex=%.3f ngram=%.3f seq=%.3f)\n",
				m.Domain, m.Expected, m.Verdict.Label, m.Verdict.Confidence,
				m.Verdict.Triple.Lexical, m.Verdict.Triple.Ngram, m.Verdict.Triple.Sequence)
		}
	}
}

func (r *Reporter) generateSummary() error {
	summaryPath := filepath.Join(r.outputPath, "evaluation_summary.txt")
	file, err := os.Create(summaryPath)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	r.WriteSummary(file)

	log.Info().Str("file", summaryPath).Msg("Summary report generated")
	return nil
}

func (r *Reporter) generateJSONReport() error {
	jsonPath := filepath.Join(r.outputPath, "evaluation_results.json")

	data, err := json.MarshalIndent(r.results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON report: %w", err)
	}

	log.Info().Str("file", jsonPath).Msg("JSON report generated")
	return nil
}
