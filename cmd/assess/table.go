package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/JaimeStill/vantage/internal/evaluation"
)

func evaluateTable(path string, w io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open table: %w", err)
	}
	defer f.Close()

	t, err := evaluation.ReadTable(f)
	if err != nil {
		return fmt.Errorf("read table %s: %w", path, err)
	}

	records, mismatches := t.Records()
	return writeJSON(w, evaluation.Evaluate(records, mismatches))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFile(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := writeJSON(f, v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
