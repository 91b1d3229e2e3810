package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	cfgpkg "bytecorpus/internal/config"
	"bytecorpus/internal/diag"
)

// 子命令。
const (
	cmdBuild = "build"
	cmdBatch = "batch"
	cmdCount = "count"
)

// 退出码。
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 3
)

// cliFlags: 全局旗标（最小集）。
type cliFlags struct {
	config      string
	concurrency int
	names       string
	shuffleSeed int64
	records     string
	seqLen      int
	batchSize   int
	addBOS      bool
	addEOS      bool
	seed        int64
	preview     int
	metrics     string
	initDir     string
	status      bool
	set         map[string]bool
}

// 简化的 CLI：bytecorpus [build|batch|count] [flags] [roots...]
// 默认子命令 build。位置参数为 roots（文件/目录 或 "-" 表示 STDIN，不能与其他根混用）。
func main() {
	os.Exit(run())
}

func run() int {
	start := time.Now()
	corrID := uuid.NewString()
	// 在任何 ENV 读取前，尝试加载工作目录下的 .env（不覆盖已有 ENV）。
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fprintf(os.Stderr, "提示：.env 解析失败（已跳过）：%v\n", err)
	}
	// 先占位默认，稍后在解析/合并配置后重建 logger 以使用最终 level
	logger := diag.NewLogger(corrID, "info")
	defer func() { _ = logger.Close() }()

	cmd := parseCommand()
	var f cliFlags
	flag.StringVar(&f.config, "config", "", "配置文件路径（JSON）；缺省读取 ./config.json（若存在）")
	flag.IntVar(&f.concurrency, "concurrency", 0, "并发度（覆盖配置）")
	flag.StringVar(&f.names, "names", "", "人名忽略表路径（覆盖配置）")
	flag.Int64Var(&f.shuffleSeed, "shuffle-seed", 0, "语料洗牌种子（覆盖配置；未设置时非确定）")
	flag.StringVar(&f.records, "records", "", "batch: JSONL 语料路径（覆盖配置）")
	flag.IntVar(&f.seqLen, "seq-len", 0, "batch: 窗口长度")
	flag.IntVar(&f.batchSize, "batch-size", 0, "batch: 样本数")
	flag.BoolVar(&f.addBOS, "add-bos", false, "batch: 前置 BOS")
	flag.BoolVar(&f.addEOS, "add-eos", false, "batch: 追加 EOS")
	flag.Int64Var(&f.seed, "seed", 0, "batch: 洗牌种子（默认 42）")
	flag.IntVar(&f.preview, "preview", 0, "batch: 预览条数（默认 2）")
	flag.StringVar(&f.metrics, "metrics-textfile", "", "运行结束后写出 Prometheus textfile 指标")
	flag.StringVar(&f.initDir, "init-config", "", "在指定目录生成默认配置 config.json 和 .env 模板（若已存在则跳过，不覆盖）；不带值时默认当前目录")
	flag.BoolVar(&f.status, "status", true, "终端状态提示（stderr）。TTY 动态刷新；非 TTY 打点输出")
	normalizeInitArg()
	if err := flag.CommandLine.Parse(os.Args[1:]); err != nil {
		return exitConfig
	}
	f.set = map[string]bool{}
	flag.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })

	// --init-config: 生成模板并退出
	if dir := strings.TrimSpace(f.initDir); dir != "" {
		if err := initConfig(dir); err != nil {
			fprintf(os.Stderr, "生成默认配置失败: %v\n", err)
			logger.Error("config", string(diag.Classify(err)), "init-config failed", &start)
			return exitConfig
		}
		return exitOK
	}

	cfg, err := loadConfig(f, flag.Args())
	if err != nil {
		fprintf(os.Stderr, "配置解析失败: %v\n", err)
		logger.Error("config", string(diag.CodeConfig), err.Error(), &start)
		return exitConfig
	}

	// 使用最终配置中的日志级别重建 logger
	_ = logger.Close()
	logger = diag.NewLogger(corrID, cfg.Logging.Level)
	logger.DebugStart("config", "effective", "", map[string]string{
		"command":     cmd,
		"inputs":      strings.Join(cfg.Inputs, ","),
		"concurrency": fmt.Sprint(cfg.Concurrency),
		"names_file":  cfg.NamesFile,
		"reader":      cfg.Components.Reader,
		"splitter":    cfg.Components.Splitter,
		"assembler":   cfg.Components.Assembler,
		"decoder":     cfg.Components.Decoder,
		"writer":      cfg.Components.Writer,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 终端信息提示（非日志）：按 CLI 启用，默认开启
	term := diag.NewTerminal(os.Stderr, f.status)
	diag.SetTerminal(term)
	defer diag.SetTerminal(nil)

	var code int
	switch cmd {
	case cmdBatch:
		code = runBatch(ctx, cfg, logger, start)
	case cmdCount:
		code = runCount(ctx, cfg, logger, start)
	default:
		code = runBuild(ctx, cfg, logger, start)
	}

	if p := strings.TrimSpace(cfg.Metrics.Textfile); p != "" {
		diag.ObserveDuration(cmd, "finish", time.Since(start).Milliseconds())
		if err := diag.WriteMetrics(p); err != nil {
			fprintf(os.Stderr, "提示：指标写出失败：%v\n", err)
			logger.Warn("metrics", string(diag.Classify(err)), "write textfile failed", map[string]string{"path": p})
		}
	}
	return code
}

// parseCommand 识别首个位置参数中的子命令并从 os.Args 中移除；未识别时为 build。
func parseCommand() string {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case cmdBuild, cmdBatch, cmdCount:
			c := os.Args[1]
			os.Args = append(os.Args[:1:1], os.Args[2:]...)
			return c
		}
	}
	return cmdBuild
}

// loadConfig 合并 defaults < JSON < ENV < CLI。
func loadConfig(f cliFlags, roots []string) (cfgpkg.Config, error) {
	// JSON 配置（文件或 ENV: BYTECORPUS_CONFIG_JSON）
	var cfgJSON []byte
	if s := os.Getenv("BYTECORPUS_CONFIG_JSON"); s != "" {
		cfgJSON = []byte(s)
	}
	path := f.config
	if path == "" {
		path = os.Getenv("BYTECORPUS_CONFIG_FILE")
	}
	// 默认读取工作目录下 config.json（若存在）
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}

	cfg := cfgpkg.Defaults()
	if path != "" || len(cfgJSON) > 0 {
		base, err := cfgpkg.LoadJSON(path, cfgJSON)
		if err != nil {
			return cfg, err
		}
		cfg = cfgpkg.Merge(cfg, base)
	}

	overEnv, err := cfgpkg.EnvOverlay(os.Environ())
	if err != nil {
		return cfg, err
	}
	cfg = cfgpkg.Merge(cfg, overEnv)

	// CLI 覆盖：仅显式设置的旗标生效
	var over cfgpkg.Config
	if len(roots) > 0 {
		over.Inputs = roots
	}
	if f.set["concurrency"] {
		over.Concurrency = f.concurrency
	}
	if f.set["names"] {
		over.NamesFile = f.names
	}
	if f.set["shuffle-seed"] {
		v := f.shuffleSeed
		over.Corpus.ShuffleSeed = &v
	}
	if f.set["records"] {
		over.Batch.Records = f.records
	}
	if f.set["seq-len"] {
		over.Batch.SeqLen = f.seqLen
	}
	if f.set["batch-size"] {
		over.Batch.BatchSize = f.batchSize
	}
	if f.set["add-bos"] {
		v := f.addBOS
		over.Batch.AddBOS = &v
	}
	if f.set["add-eos"] {
		v := f.addEOS
		over.Batch.AddEOS = &v
	}
	if f.set["seed"] {
		v := f.seed
		over.Batch.Seed = &v
	}
	if f.set["preview"] {
		v := f.preview
		over.Batch.Preview = &v
	}
	if f.set["metrics-textfile"] {
		over.Metrics.Textfile = f.metrics
	}
	cfg = cfgpkg.Merge(cfg, over)
	// Merge 对 0 值不覆盖；CLI 显式 0 以校验失败呈现
	if f.set["concurrency"] && f.concurrency == 0 {
		cfg.Concurrency = 0
	}
	if f.set["seq-len"] && f.seqLen == 0 {
		cfg.Batch.SeqLen = 0
	}
	if f.set["batch-size"] && f.batchSize == 0 {
		cfg.Batch.BatchSize = 0
	}
	return cfg, nil
}

func fprintf(w *os.File, format string, a ...any) { _, _ = fmt.Fprintf(w, format, a...) }

func dumpConfig(c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	_, _ = os.Stderr.Write(append([]byte("有效配置:\n"), b...))
	_, _ = os.Stderr.Write([]byte("\n"))
	return nil
}

// initConfig 在 dir 生成 config.json 与 .env（均不覆盖）；config.json 已存在视为失败。
func initConfig(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeConfig(filepath.Join(dir, "config.json"), cfgpkg.DefaultTemplateConfig()); err != nil {
		return err
	}
	if err := writeDotEnv(filepath.Join(dir, ".env")); err != nil {
		fprintf(os.Stderr, "提示：.env 生成失败（已跳过）：%v\n", err)
	}
	return nil
}

func writeConfig(path string, c cfgpkg.Config) error {
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if path == "-" {
		_, err = os.Stdout.Write(append(b, '\n'))
		return err
	}
	// 不覆盖已存在文件
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.Write(append(b, '\n'))
	return err
}

// writeDotEnv 生成 .env 模板（若文件已存在则跳过）。
func writeDotEnv(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()
	_, err = f.WriteString(cfgpkg.DefaultEnvTemplate())
	return err
}

// normalizeInitArg: 允许 --init-config 在未提供路径值时采用默认值当前目录 "."。
// 兼容以下形式：
//
//	--init-config                => 等价于 --init-config .
//	--init-config=out
//	--init-config out
//
// 仅在检测到“裸开关或后继为下一个开关”的情况下插入默认值。
func normalizeInitArg() {
	args := os.Args
	if len(args) <= 1 {
		return
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0])
	for i := 1; i < len(args); i++ {
		a := args[i]
		out = append(out, a)
		if a == "--init-config" || a == "-init-config" {
			if i == len(args)-1 || strings.HasPrefix(args[i+1], "-") {
				out = append(out, ".")
			}
		}
	}
	os.Args = out
}
