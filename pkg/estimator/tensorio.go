package estimator

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// writeMatrix writes rows as tab-separated float64 values, one row per
// line, matching the "flat tensor" layout described under persisted state in
// SPEC_FULL.md: no NumPy-style binary format, just text a human can diff.
func writeMatrix(folder, name string, rows [][]float64) error {
	f, err := os.Create(filepath.Join(folder, name+".tsv"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, row := range rows {
		parts := make([]string, len(row))
		for i, v := range row {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if _, err := fmt.Fprintln(w, strings.Join(parts, "\t")); err != nil {
			return err
		}
	}
	return w.Flush()
}

func readMatrix(folder, name string) ([][]float64, error) {
	f, err := os.Open(filepath.Join(folder, name+".tsv"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rows [][]float64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		row := make([]float64, len(fields))
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("parse %s row %d: %w", name, len(rows), err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// writeVector stores v as a single-row matrix.
func writeVector(folder, name string, v []float64) error {
	return writeMatrix(folder, name, [][]float64{v})
}

func readVector(folder, name string) ([]float64, error) {
	rows, err := readMatrix(folder, name)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s.tsv: empty", name)
	}
	return rows[0], nil
}

func intsToFloats(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}

func floatsToInts(xs []float64) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		out[i] = int(x)
	}
	return out
}

func intMatrixToFloats(m [][]int) [][]float64 {
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = intsToFloats(row)
	}
	return out
}

func floatMatrixToInts(m [][]float64) [][]int {
	out := make([][]int, len(m))
	for i, row := range m {
		out[i] = floatsToInts(row)
	}
	return out
}

// writeAxes writes one name per line in index order, the sidecar that lets
// a saved matrix be read back with its row/column labels.
func writeAxes(folder string, names []string) error {
	f, err := os.Create(filepath.Join(folder, "average_axes.txt"))
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, name := range names {
		if _, err := fmt.Fprintln(w, name); err != nil {
			return err
		}
	}
	return w.Flush()
}

func readAxes(folder string) ([]string, error) {
	f, err := os.Open(filepath.Join(folder, "average_axes.txt"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var names []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		names = append(names, line)
	}
	return names, scanner.Err()
}
