package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"genesearch/internal/model"
)

const (
	runFile      = "run.json"
	historyFile  = "fitness_history.csv"
	snapshotsDir = "snapshots"
)

// RunArtifacts is everything exported for one run.
type RunArtifacts struct {
	Run       model.RunRecord
	Snapshots []model.ImpactSnapshot
}

// WriteRunArtifacts writes a run below outDir/<run id> and returns that
// directory. Snapshots are named after their round.
func WriteRunArtifacts(outDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(outDir, artifacts.Run.ID)
	if err := os.MkdirAll(filepath.Join(runDir, snapshotsDir), 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, runFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := WriteFitnessHistory(runDir, artifacts.Run.History); err != nil {
		return "", err
	}
	for _, snap := range artifacts.Snapshots {
		if snap.RunID != artifacts.Run.ID {
			return "", fmt.Errorf("snapshot %s belongs to run %s, not %s", snap.ID, snap.RunID, artifacts.Run.ID)
		}
		name := fmt.Sprintf("round_%06d.json", snap.Round)
		if err := writeJSON(filepath.Join(runDir, snapshotsDir, name), snap); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

func ReadRun(runDir string) (model.RunRecord, bool, error) {
	data, err := os.ReadFile(filepath.Join(runDir, runFile))
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

func WriteFitnessHistory(runDir string, bestByRound []float64) error {
	file, err := os.Create(filepath.Join(runDir, historyFile))
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"round", "best_total"}); err != nil {
		return err
	}
	for i, best := range bestByRound {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(best, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func ReadFitnessHistory(runDir string) ([]float64, bool, error) {
	file, err := os.Open(filepath.Join(runDir, historyFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return []float64{}, true, nil
		}
		return nil, false, err
	}
	if len(header) < 2 {
		return nil, false, fmt.Errorf("fitness history header must have at least 2 columns")
	}

	series := make([]float64, 0, 128)
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, false, err
		}
		if len(record) < 2 {
			return nil, false, fmt.Errorf("fitness history row must have at least 2 columns")
		}
		value, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, false, err
		}
		series = append(series, value)
	}
	return series, true, nil
}

// HistorySummary condenses a best-total series.
type HistorySummary struct {
	Rounds int
	First  float64
	Best   float64
	// FirstBestRound is the 1-based round where Best was first reached.
	FirstBestRound int
	Plateaus       int
}

func SummarizeHistory(series []float64) HistorySummary {
	var s HistorySummary
	s.Rounds = len(series)
	if len(series) == 0 {
		return s
	}
	s.First = series[0]
	s.Best = series[0]
	s.FirstBestRound = 1
	for i := 1; i < len(series); i++ {
		if series[i] > s.Best {
			s.Best = series[i]
			s.FirstBestRound = i + 1
		}
		if series[i] == series[i-1] {
			s.Plateaus++
		}
	}
	return s
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
