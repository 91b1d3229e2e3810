package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bytecorpus/internal/batch"
	cfgpkg "bytecorpus/internal/config"
	"bytecorpus/internal/diag"
	"bytecorpus/internal/pipeline"
	"bytecorpus/internal/sanitize"
	"bytecorpus/pkg/contract"
	"bytecorpus/pkg/tokenizer"
)

// 可在测试中替换。
var (
	pipelineRun = pipeline.Run
	batchRun    = batch.Run
	countRun    = pipeline.Count
)

// runBuild: 读取→清洗→切分→打乱→划分→落盘。
func runBuild(ctx context.Context, cfg cfgpkg.Config, logger *diag.Logger, start time.Time) int {
	if err := cfgpkg.Validate(cfg); err != nil {
		fprintf(os.Stderr, "配置校验失败: %v\n", err)
		logger.Error("config", string(diag.CodeConfig), err.Error(), &start)
		return exitConfig
	}
	if strings.EqualFold(cfg.Logging.Level, "debug") {
		_ = dumpConfig(cfg)
	}
	if err := preflightCheckOutputDir(cfg); err != nil {
		fprintf(os.Stderr, "输出目录不可写: %v\n", err)
		logger.Error("writer", string(diag.CodeIO), "output dir not writable: "+err.Error(), &start)
		return exitConfig
	}
	comp, set, err := cfgpkg.Assemble(cfg)
	if err != nil {
		fprintf(os.Stderr, "装配失败: %v\n", err)
		logger.Error("config", string(diag.CodeConfig), err.Error(), &start)
		return exitConfig
	}

	// 人名忽略表缺失时降级为不替换
	names, err := cfgpkg.LoadNames(cfg.NamesFile)
	switch {
	case errors.Is(err, contract.ErrConfigMissing):
		fprintf(os.Stderr, "提示：未找到人名忽略表（%s），跳过人名替换\n", cfg.NamesFile)
		logger.Warn("config", string(diag.CodeConfig), "names file missing; name scrubbing disabled", map[string]string{"path": cfg.NamesFile})
	case err != nil:
		fprintf(os.Stderr, "人名忽略表解析失败: %v\n", err)
		logger.Error("config", string(diag.CodeConfig), err.Error(), &start)
		return exitConfig
	}
	set.Names = sanitize.NewNameScrubber(names)

	term := diag.GetTerminal()
	term.RunStart(cfg.Concurrency, cmdBuild)
	split, err := pipelineRun(ctx, comp, set, logger)
	if errors.Is(err, contract.ErrEmptyCorpus) {
		term.RunFinish(true, "无合格片段", time.Since(start))
		fprintf(os.Stderr, "提示：没有合格片段，未写出任何文件\n")
		return exitOK
	}
	if err != nil {
		term.RunFinish(false, "", time.Since(start))
		fprintf(os.Stderr, "运行失败: %v\n", err)
		logger.Error("pipeline", string(diag.Classify(err)), err.Error(), &start)
		return exitRuntime
	}
	term.RunFinish(true, fmt.Sprintf("train %d | val %d", len(split.Train), len(split.Val)), time.Since(start))
	logger.InfoFinish("pipeline", "build done", start, int64(split.Len()))
	return exitOK
}

// runBatch: 读取训练语料并组出一批 (input, target) 样本，打印预览。
func runBatch(ctx context.Context, cfg cfgpkg.Config, logger *diag.Logger, start time.Time) int {
	dec, set, path, err := cfgpkg.AssembleBatch(cfg)
	if err != nil {
		fprintf(os.Stderr, "配置校验失败: %v\n", err)
		logger.Error("config", string(diag.CodeConfig), err.Error(), &start)
		return exitConfig
	}
	b, err := batchRun(ctx, dec, path, set, logger)
	if err != nil {
		switch {
		case errors.Is(err, contract.ErrNoSequences):
			fprintf(os.Stderr, "No sequences created; try a smaller seq_len (current %d).\n", set.SeqLen)
		case errors.Is(err, contract.ErrEmptyCorpus):
			fprintf(os.Stderr, "语料为空: %s\n", path)
		default:
			fprintf(os.Stderr, "组批失败: %v\n", err)
		}
		logger.Error("batch", string(diag.Classify(err)), err.Error(), &start)
		return exitRuntime
	}
	tok := tokenizer.NewByteLevel(&tokenizer.Options{AddBOS: set.AddBOS, AddEOS: set.AddEOS})
	_, _ = fmt.Fprint(os.Stdout, batch.Preview(b, tok, cfgpkg.PreviewCount(cfg)))
	return exitOK
}

// runCount: 逐文件统计字节级 token 数。
func runCount(ctx context.Context, cfg cfgpkg.Config, logger *diag.Logger, start time.Time) int {
	r, err := cfgpkg.AssembleCount(cfg)
	if err != nil {
		fprintf(os.Stderr, "配置校验失败: %v\n", err)
		logger.Error("config", string(diag.CodeConfig), err.Error(), &start)
		return exitConfig
	}
	counts, total, err := countRun(ctx, r, cfg.Inputs, logger)
	if err != nil {
		fprintf(os.Stderr, "计数失败: %v\n", err)
		logger.Error("count", string(diag.Classify(err)), err.Error(), &start)
		return exitRuntime
	}
	for _, c := range counts {
		_, _ = fmt.Fprintf(os.Stdout, "%s: %d tokens\n", filepath.Base(string(c.ID)), c.Tokens)
	}
	_, _ = fmt.Fprintf(os.Stdout, "TOTAL tokens: %d\n", total)
	return exitOK
}

// preflightCheckOutputDir: 当 Writer 使用文件系统实现(fs)时，启动前检查输出目录可写性。
// 规则：
// - 若目录已存在：尝试创建并删除临时文件；失败则判为不可写。
// - 若目录不存在：检查父目录是否可写（尝试在父目录创建并删除临时目录）。
// 仅针对 fs writer 生效；其他 writer 跳过。
func preflightCheckOutputDir(cfg cfgpkg.Config) error {
	writerName := strings.TrimSpace(cfg.Components.Writer)
	if writerName == "" {
		writerName = cfgpkg.Defaults().Components.Writer
	}
	if writerName != "fs" {
		return nil
	}
	var wopts struct {
		OutputDir string `json:"output_dir"`
	}
	if len(cfg.Options.Writer) > 0 {
		_ = json.Unmarshal(cfg.Options.Writer, &wopts)
	}
	dir := strings.TrimSpace(wopts.OutputDir)
	if dir == "" {
		// 未指定时无法可靠检查，让装配阶段按实现自行报错
		return nil
	}
	if st, err := os.Stat(dir); err == nil && st.IsDir() {
		f, err := os.CreateTemp(dir, ".wcheck-*")
		if err != nil {
			return err
		}
		name := f.Name()
		_ = f.Close()
		_ = os.Remove(name)
		return nil
	} else if err == nil {
		return fmt.Errorf("路径存在但不是目录: %s", dir)
	} else if !os.IsNotExist(err) {
		return err
	}
	// 目录不存在：逐级向上找到最近的已存在祖先并检查可写性
	parent := filepath.Dir(dir)
	for {
		pst, err := os.Stat(parent)
		if err == nil {
			if !pst.IsDir() {
				return fmt.Errorf("父路径不是目录: %s", parent)
			}
			break
		}
		if !os.IsNotExist(err) {
			return err
		}
		next := filepath.Dir(parent)
		if next == parent {
			return fmt.Errorf("无法确定父目录: %s", dir)
		}
		parent = next
	}
	tmpd, err := os.MkdirTemp(parent, ".wcheck-*")
	if err != nil {
		return err
	}
	_ = os.RemoveAll(tmpd)
	return nil
}
