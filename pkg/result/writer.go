package result

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"dreip/pkg/metrics"
)

// Writer is responsible for creating and writing result files.
type Writer struct {
	resultsPath string
	runLabel    string
	runs        uint64
}

// NewWriter creates a new writer for result files. runLabel tags the
// filename (e.g. the election ID the run covered).
func NewWriter(resultsPath string, runLabel string, runs uint64) *Writer {
	return &Writer{
		resultsPath: resultsPath,
		runLabel:    runLabel,
		runs:        runs,
	}
}

// WriteAllResults is the main entry point that generates and writes all
// result files from one metrics.Analyzer pass.
func (w *Writer) WriteAllResults(analysis metrics.AnalysisResult) error {
	if err := os.MkdirAll(w.resultsPath, 0755); err != nil {
		return fmt.Errorf("could not create results directory %s: %w", w.resultsPath, err)
	}

	if err := w.writeRawResults(analysis); err != nil {
		return fmt.Errorf("failed to write raw results: %w", err)
	}
	if err := w.writeStatResults(analysis); err != nil {
		return fmt.Errorf("failed to write statistical results: %w", err)
	}
	return nil
}

// generateFilename creates a standardized filename for a result file.
// Example: RAW_demo-election_R1_T2025-01-02-15-04-05.csv
func (w *Writer) generateFilename(fileType string) string {
	timestamp := time.Now().Format("2006-01-02-15-04-05")
	base := fmt.Sprintf("%s_%s_R%d_T%s.csv",
		fileType,
		w.runLabel,
		w.runs,
		timestamp,
	)
	return filepath.Join(w.resultsPath, base)
}

// writeRawResults saves every individual sample underlying the analysis,
// walking each run's raw measurement tree rather than the pre-aggregated
// per-component summaries.
func (w *Writer) writeRawResults(analysis metrics.AnalysisResult) error {
	filePath := w.generateFilename("RAW")
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("could not create raw results file %s: %w", filePath, err)
	}
	defer file.Close()

	csvWriter := csv.NewWriter(file)
	defer csvWriter.Flush()

	header := []string{"Run", "Component", "Depth", "WallClock_us", "UserTime_us", "SystemTime_us"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header to %s: %w", filePath, err)
	}

	for runIdx, rec := range analysis.Recorders {
		for _, root := range rec.RootMeasurements() {
			if err := writeMeasurementRows(csvWriter, runIdx, root); err != nil {
				return fmt.Errorf("failed to write row to %s: %w", filePath, err)
			}
		}
	}
	fmt.Printf("Raw results written to %s\n", filePath)
	return nil
}

func writeMeasurementRows(w *csv.Writer, runIdx int, m *metrics.Measurement) error {
	row := []string{
		strconv.Itoa(runIdx),
		m.ConceptualName,
		strconv.Itoa(m.Depth),
		strconv.FormatInt(m.Inclusive.WallClock.Microseconds(), 10),
		strconv.FormatInt(m.Inclusive.UserTime.Microseconds(), 10),
		strconv.FormatInt(m.Inclusive.SystemTime.Microseconds(), 10),
	}
	if err := w.Write(row); err != nil {
		return err
	}
	for _, child := range m.Children {
		if err := writeMeasurementRows(w, runIdx, child); err != nil {
			return err
		}
	}
	return nil
}

// writeStatResults saves the per-component, per-derived-metric summary
// statistics the Analyzer already computed.
func (w *Writer) writeStatResults(analysis metrics.AnalysisResult) error {
	filePath := w.generateFilename("STATS")
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("could not create stats file %s: %w", filePath, err)
	}
	defer file.Close()

	csvWriter := csv.NewWriter(file)
	defer csvWriter.Flush()

	header := []string{"Component", "MetricType", "Count", "Mean_us", "Median_us", "Min_us", "Max_us", "P95_us"}
	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header to %s: %w", filePath, err)
	}

	for _, componentName := range getSortedKeys(analysis.Components) {
		comp := analysis.Components[componentName]
		for _, metricType := range getSortedSummaryKeys(comp.Summaries) {
			stats := comp.Summaries[metricType]
			if err := writeStatsRow(csvWriter, componentName, metricType, stats.WallClock); err != nil {
				return err
			}
		}
	}
	fmt.Printf("Statistical results written to %s\n", filePath)
	return nil
}

// writeStatsRow formats one already-computed StatSummary into a CSV row.
func writeStatsRow(writer *csv.Writer, component, metricType string, s metrics.StatSummary) error {
	if s.Count == 0 {
		return nil
	}
	row := []string{
		component,
		metricType,
		strconv.Itoa(s.Count),
		strconv.FormatInt(s.Mean.Microseconds(), 10),
		strconv.FormatInt(s.P50.Microseconds(), 10),
		strconv.FormatInt(s.Min.Microseconds(), 10),
		strconv.FormatInt(s.Max.Microseconds(), 10),
		strconv.FormatInt(s.P95.Microseconds(), 10),
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write stats row for %s (%s): %w", component, metricType, err)
	}
	return nil
}

// getSortedKeys extracts component names and returns them sorted alphabetically.
func getSortedKeys(m map[string]metrics.ComponentResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func getSortedSummaryKeys(m map[string]metrics.TimeTotalsStats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
