package stress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	cfgpkg "bytecorpus/internal/config"
	"bytecorpus/internal/pipeline"
	"bytecorpus/internal/sanitize"
)

// baseConfig 构造可运行的最小配置。
func baseConfig(input, outDir string) cfgpkg.Config {
	cfg := cfgpkg.DefaultTemplateConfig()
	cfg.Inputs = []string{input}
	cfg.Logging.Level = "error"
	cfg.Options.Writer = json.RawMessage(fmt.Sprintf(`{"output_dir":%q,"atomic":false,"flat":true,"perm_file":0,"perm_dir":0,"buf_size":65536}`, outDir))
	return cfg
}

// runPipeline 执行完整构建流水线。
func runPipeline(cfg cfgpkg.Config) error {
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		return err
	}
	set.Names = sanitize.NewNameScrubber([]string{"alice", "bob"})
	_, err = pipeline.Run(context.Background(), comp, set, nil)
	return err
}

// seedInputs 将 testdata/raw 下的样例复制 copies 份到 dir，文件名保留来源语境。
func seedInputs(t *testing.T, dir string, copies int) {
	t.Helper()
	src := filepath.Join("..", "testdata", "raw")
	entries, err := os.ReadDir(src)
	if err != nil {
		t.Fatalf("read samples: %v", err)
	}
	for _, e := range entries {
		b, err := os.ReadFile(filepath.Join(src, e.Name()))
		if err != nil {
			t.Fatalf("read %s: %v", e.Name(), err)
		}
		for i := 0; i < copies; i++ {
			name := fmt.Sprintf("%03d_%s", i, e.Name())
			if err := os.WriteFile(filepath.Join(dir, name), b, 0o644); err != nil {
				t.Fatalf("write %s: %v", name, err)
			}
		}
	}
}

// TestStress 在不同并发度下运行构建并记录延迟统计；同一种子下各并发度产物必须一致。
func TestStress(t *testing.T) {
	if testing.Short() {
		t.Skip("stress test skipped in -short mode")
	}
	input := t.TempDir()
	seedInputs(t, input, 200)

	var reference []byte
	levels := []int{1, 8, 16, 32, 64}
	for _, conc := range levels {
		t.Run(fmt.Sprintf("concurrency_%d", conc), func(t *testing.T) {
			const runs = 5
			successes := 0
			latencies := make([]time.Duration, 0, runs)
			for i := 0; i < runs; i++ {
				outDir := t.TempDir()
				cfg := baseConfig(input, outDir)
				cfg.Concurrency = conc
				start := time.Now()
				err := runPipeline(cfg)
				dur := time.Since(start)
				if err != nil {
					t.Errorf("run %d: %v", i, err)
					continue
				}
				train, err := os.ReadFile(filepath.Join(outDir, cfgpkg.DefaultTrainFile))
				if err != nil {
					t.Errorf("run %d: %v", i, err)
					continue
				}
				if reference == nil {
					reference = train
				} else if !bytes.Equal(reference, train) {
					t.Errorf("run %d: output differs from reference", i)
					continue
				}
				successes++
				latencies = append(latencies, dur)
			}
			if successes == 0 {
				t.Fatalf("全部运行失败")
			}
			sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
			var total time.Duration
			for _, d := range latencies {
				total += d
			}
			avg := total / time.Duration(len(latencies))
			idx := int(math.Ceil(float64(len(latencies))*0.95)) - 1
			if idx < 0 {
				idx = 0
			}
			p95 := latencies[idx]
			t.Logf("并发%d 成功率%.2f 平均%v 95%%延迟%v", conc, float64(successes)/float64(runs), avg, p95)
		})
	}
}
