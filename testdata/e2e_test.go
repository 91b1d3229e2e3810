package testdata

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bytecorpus/internal/batch"
	cfgpkg "bytecorpus/internal/config"
	"bytecorpus/internal/pipeline"
	"bytecorpus/internal/sanitize"
	"bytecorpus/pkg/contract"
)

// baseConfig 基于 config/basic.json，输入指向 raw/，输出写入 outDir。
func baseConfig(t *testing.T, outDir, compress string) cfgpkg.Config {
	t.Helper()
	cfg, err := cfgpkg.LoadJSON("config/basic.json", nil)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg = cfgpkg.Merge(cfgpkg.Defaults(), cfg)
	cfg.Inputs = []string{"raw"}
	cfg.NamesFile = "config/names_ignore.json"
	w, _ := json.Marshal(map[string]any{"output_dir": outDir, "compress": compress})
	cfg.Options.Writer = w
	return cfg
}

func runBuild(t *testing.T, cfg cfgpkg.Config) contract.Split {
	t.Helper()
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	names, err := cfgpkg.LoadNames(cfg.NamesFile)
	if err != nil {
		t.Fatalf("names: %v", err)
	}
	set.Names = sanitize.NewNameScrubber(names)
	split, err := pipeline.Run(context.Background(), comp, set, nil)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	return split
}

func readRecords(t *testing.T, path string) []contract.Record {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var out []contract.Record
	for _, line := range bytes.Split(b, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var r contract.Record
		if err := json.Unmarshal(line, &r); err != nil {
			t.Fatalf("bad line %q: %v", line, err)
		}
		out = append(out, r)
	}
	return out
}

func TestE2EBuild(t *testing.T) {
	out := t.TempDir()
	cfg := baseConfig(t, out, "")
	split := runBuild(t, cfg)

	train := readRecords(t, filepath.Join(out, "train.jsonl"))
	val := readRecords(t, filepath.Join(out, "val.jsonl"))
	if len(train) != len(split.Train) || len(val) != len(split.Val) {
		t.Fatalf("persisted %d/%d, built %d/%d", len(train), len(val), len(split.Train), len(split.Val))
	}
	n := len(train) + len(val)
	if n < 2 {
		t.Fatalf("expected at least 2 records, got %d", n)
	}
	if want := n * contract.TrainRatioNum / contract.TrainRatioDen; len(train) != want {
		t.Fatalf("train=%d want %d", len(train), want)
	}

	leaks := []string{
		"555-123-4567", "bob@example.com", "https://", "@ann_lee",
		"alice", "bob", "missed voice call", "end-to-end encrypted", "media omitted",
	}
	tags := map[string]bool{}
	for _, r := range append(train, val...) {
		end := strings.Index(r.Text, "> ")
		if !strings.HasPrefix(r.Text, "<context:") || end < 0 {
			t.Fatalf("record without marker: %q", r.Text)
		}
		tag := contract.ContextTag(r.Text[len("<context:"):end])
		if !tag.Valid() {
			t.Fatalf("unknown tag in %q", r.Text)
		}
		tags[string(tag)] = true
		lower := strings.ToLower(r.Text)
		for _, l := range leaks {
			if strings.Contains(lower, l) {
				t.Fatalf("record leaks %q: %q", l, r.Text)
			}
		}
		if r.Text == contract.TagGeneric.Marker()+"ok" {
			t.Fatalf("short file should be dropped")
		}
	}
	if !tags["chat"] || !tags["essay"] {
		t.Fatalf("expected chat and essay records, got %v", tags)
	}
}

func TestE2EDeterministic(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	runBuild(t, baseConfig(t, a, ""))
	cfg := baseConfig(t, b, "")
	cfg.Concurrency = 1
	runBuild(t, cfg)
	for _, name := range []string{"train.jsonl", "val.jsonl"} {
		x, _ := os.ReadFile(filepath.Join(a, name))
		y, _ := os.ReadFile(filepath.Join(b, name))
		if !bytes.Equal(x, y) {
			t.Fatalf("%s differs across runs with the same seed", name)
		}
	}
}

func TestE2EBuildThenBatch(t *testing.T) {
	out := t.TempDir()
	cfg := baseConfig(t, out, "zstd")
	runBuild(t, cfg)
	if _, err := os.Stat(filepath.Join(out, "train.jsonl.zst")); err != nil {
		t.Fatalf("compressed corpus missing: %v", err)
	}

	dec, set, path, err := cfgpkg.AssembleBatch(cfg)
	if err != nil {
		t.Fatalf("assemble batch: %v", err)
	}
	if path != filepath.Join(out, "train.jsonl.zst") {
		t.Fatalf("records path=%q", path)
	}
	b, err := batch.Run(context.Background(), dec, path, set, nil)
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if b.Len() != cfg.Batch.BatchSize {
		t.Fatalf("batch len=%d want %d", b.Len(), cfg.Batch.BatchSize)
	}
	for i := range b.Inputs {
		if len(b.Inputs[i]) != set.SeqLen-1 || len(b.Targets[i]) != set.SeqLen-1 {
			t.Fatalf("example %d has lengths %d/%d", i, len(b.Inputs[i]), len(b.Targets[i]))
		}
		for j := 1; j < len(b.Inputs[i]); j++ {
			if b.Inputs[i][j] != b.Targets[i][j-1] {
				t.Fatalf("example %d target is not input shifted by one", i)
			}
		}
	}
}

func TestE2ECount(t *testing.T) {
	cfg := baseConfig(t, t.TempDir(), "")
	r, err := cfgpkg.AssembleCount(cfg)
	if err != nil {
		t.Fatalf("assemble count: %v", err)
	}
	counts, total, err := pipeline.Count(context.Background(), r, cfg.Inputs, nil)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if len(counts) != 3 {
		t.Fatalf("expected 3 files, got %d", len(counts))
	}
	sum := 0
	for _, c := range counts {
		b, err := os.ReadFile(string(c.ID))
		if err != nil {
			t.Fatalf("read %s: %v", c.ID, err)
		}
		if c.Tokens != len(b) {
			t.Fatalf("%s: tokens=%d bytes=%d", c.ID, c.Tokens, len(b))
		}
		sum += c.Tokens
	}
	if sum != total {
		t.Fatalf("total=%d sum=%d", total, sum)
	}
}
