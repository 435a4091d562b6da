package cmd

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
)

func TestRunScenarioCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "house.csv")
	rootCmd.SetArgs([]string{"run", "--scenario", filepath.Join("..", "qa", "scenarios", "testdata", "house.yaml"), "--out", out})
	if err := Execute(); err != nil {
		t.Fatalf("run: %v", err)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(recs) < 2 || recs[0][0] != "simulation_at" {
		t.Fatalf("unexpected csv: %v", recs)
	}
}

func TestRunScenarioBadOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "house.xml")
	rootCmd.SetArgs([]string{"run", "--scenario", filepath.Join("..", "qa", "scenarios", "testdata", "house.yaml"), "--out", out})
	if err := Execute(); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
