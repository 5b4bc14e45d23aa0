package testkit

import (
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"

	"flureport/domain/dataset"
	"flureport/domain/stats"
)

// TestKit provides synthetic encounter tables and file fixtures for tests.
// All generation is seeded so fixtures are stable across runs.
type TestKit struct {
	rng *rand.Rand
}

// NewTestKit creates a test kit with a fixed seed.
func NewTestKit(seed int64) *TestKit {
	return &TestKit{rng: rand.New(rand.NewSource(seed))}
}

// EncounterTable generates a synthetic table with plausible structure:
// body temperature roughly normal around 98.9 F with a right tail, symptom
// prevalences spread between rare and common, and nausea odds rising with
// temperature so the logistic smoother has signal to find.
func (t *TestKit) EncounterTable(rows int) (*dataset.Table, error) {
	prevalence := map[string]float64{
		dataset.ColCoughYN:         0.85,
		dataset.ColWeaknessYN:      0.65,
		dataset.ColMyalgiaYN:       0.55,
		dataset.ColChillsSweats:    0.60,
		dataset.ColSubjectiveFever: 0.70,
	}

	bodyTemp := make([]float64, rows)
	binary := map[string][]stats.Level{}
	for _, col := range dataset.SymptomColumns {
		binary[col] = make([]stats.Level, rows)
	}
	binary[dataset.ColNausea] = make([]stats.Level, rows)

	for i := 0; i < rows; i++ {
		temp := 98.9 + t.rng.NormFloat64()*0.9
		if t.rng.Float64() < 0.08 {
			temp += t.rng.Float64() * 3 // feverish tail
		}
		// Tenth-of-a-degree readings, like a clinic thermometer.
		bodyTemp[i] = math.Round(temp*10) / 10

		for _, col := range dataset.SymptomColumns {
			binary[col][i] = t.level(t.rng.Float64() < prevalence[col])
		}

		logOdds := -1.5 + 0.8*(bodyTemp[i]-99.0)
		pNausea := 1 / (1 + math.Exp(-logOdds))
		binary[dataset.ColNausea][i] = t.level(t.rng.Float64() < pNausea)
	}

	columns := append([]string{dataset.ColBodyTemp, dataset.ColNausea}, dataset.SymptomColumns...)
	return dataset.NewTable(columns,
		map[string][]float64{dataset.ColBodyTemp: bodyTemp},
		binary, rows)
}

// WriteCSV writes a generated table as a CSV fixture for reader tests.
func (t *TestKit) WriteCSV(path string, rows int) error {
	table, err := t.EncounterTable(rows)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	columns := table.Columns()
	if err := w.Write(columns); err != nil {
		return err
	}

	bodyTemp, err := table.Numeric(dataset.ColBodyTemp)
	if err != nil {
		return err
	}
	levels := map[string][]stats.Level{}
	for _, col := range columns {
		if col == dataset.ColBodyTemp {
			continue
		}
		levels[col], err = table.Binary(col)
		if err != nil {
			return err
		}
	}

	for i := 0; i < table.Rows(); i++ {
		record := make([]string, len(columns))
		for j, col := range columns {
			if col == dataset.ColBodyTemp {
				record[j] = fmt.Sprintf("%.1f", bodyTemp[i])
			} else {
				record[j] = string(levels[col][i])
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func (t *TestKit) level(positive bool) stats.Level {
	if positive {
		return stats.LevelYes
	}
	return stats.LevelNo
}
