package main

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/bodul/xweditor/grid"
)

func TestAnalyzeImage(t *testing.T) {
	projectID := os.Getenv("GCP_PROJECT_ID")
	if projectID == "" {
		t.Skip("GCP_PROJECT_ID not set, skipping integration test")
	}

	ctx := context.Background()
	client, err := NewGeminiClient(ctx, Config{ProjectID: projectID})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	defer client.Close()

	imageData, err := os.ReadFile("test_data/example.png")
	if err != nil {
		t.Skipf("read image: %v", err)
	}

	pattern, err := client.AnalyzeImage(ctx, imageData, "image/png")
	if err != nil {
		t.Fatalf("analyze image: %v", err)
	}
	if len(pattern.Cells) != pattern.Rows {
		t.Fatalf("expected %d cell rows, got %d", pattern.Rows, len(pattern.Cells))
	}

	// Print a sample for manual inspection.
	out, _ := json.MarshalIndent(pattern, "", "  ")
	t.Logf("Extracted pattern:\n%s", string(out))
}

func patternJSON(t *testing.T, size int, black ...[2]int) string {
	t.Helper()
	b, err := json.Marshal(squarePattern(size, black...))
	if err != nil {
		t.Fatalf("marshal pattern: %v", err)
	}
	return string(b)
}

func TestParsePattern(t *testing.T) {
	text := patternJSON(t, grid.Size, [2]int{0, 4}, [2]int{14, 10})
	p, err := parsePattern(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	mask, err := p.Mask()
	if err != nil {
		t.Fatalf("mask: %v", err)
	}
	for id, black := range mask {
		want := id == grid.Index(0, 4) || id == grid.Index(14, 10)
		if black != want {
			t.Fatalf("cell %d: black=%v, want %v", id, black, want)
		}
	}
}

func TestParsePatternInvalid(t *testing.T) {
	for _, text := range []string{"", "not json", `{"rows":0,"cols":0,"cells":[]}`} {
		if _, err := parsePattern(text); err == nil {
			t.Fatalf("parse %q: expected error", text)
		}
	}
}

func TestPatternMaskWrongSize(t *testing.T) {
	p, err := parsePattern(patternJSON(t, 13))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := p.Mask(); err == nil {
		t.Fatal("expected error for 13x13 pattern")
	}

	// Declared 15x15 but a short row.
	p = squarePattern(grid.Size)
	p.Cells[3] = p.Cells[3][:10]
	if _, err := p.Mask(); err == nil {
		t.Fatal("expected error for ragged pattern")
	}
}
