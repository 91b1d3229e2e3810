package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// envPrefix 为环境变量覆盖前缀。
const envPrefix = "BYTECORPUS_"

// 默认值。
const (
	DefaultNamesFile = "names_ignore.json"
	DefaultMinChars  = 20
	DefaultTrainFile = "train.jsonl"
	DefaultValFile   = "val.jsonl"
	DefaultSeqLen    = 128
	DefaultBatchSize = 2
	DefaultSeed      = int64(42)
	DefaultPreview   = 2
	DefaultOutputDir = "out"
)

// Defaults 返回带有安全默认值的 Config 雏形。
// 注意：inputs 不设默认（必须由 JSON/ENV/CLI 提供）。
func Defaults() Config {
	seed, preview := DefaultSeed, DefaultPreview
	f := false
	return Config{
		Concurrency: 1,
		NamesFile:   DefaultNamesFile,
		Logging:     Logging{Level: "info"},
		Corpus: Corpus{
			MinChars:  DefaultMinChars,
			TrainFile: DefaultTrainFile,
			ValFile:   DefaultValFile,
		},
		Batch: Batch{
			SeqLen:    DefaultSeqLen,
			BatchSize: DefaultBatchSize,
			AddBOS:    &f,
			AddEOS:    &f,
			Seed:      &seed,
			Preview:   &preview,
		},
		Components: Components{
			Reader:    "fs",
			Splitter:  "sentence",
			Assembler: "jsonl",
			Decoder:   "jsonl",
			Writer:    "fs",
		},
		Options: Options{
			Writer: json.RawMessage(`{"output_dir":"` + DefaultOutputDir + `"}`),
		},
	}
}

// LoadJSON 从文件路径或原始 JSON 解析 Config（严格拒绝未知字段）。
func LoadJSON(path string, raw []byte) (Config, error) {
	var cfg Config
	var r io.Reader
	switch {
	case len(raw) > 0:
		r = bytes.NewReader(raw)
	case path != "":
		f, err := os.Open(path)
		if err != nil {
			return cfg, err
		}
		defer f.Close()
		r = f
	default:
		return cfg, errors.New("no config source provided")
	}
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Merge 按优先级合并（后者覆盖前者）。
// 仅标量/字符串/原样 JSON 为“替换”；不做深度合并。指针字段非 nil 即覆盖。
func Merge(base, over Config) Config {
	out := base
	// 顶层
	if len(over.Inputs) > 0 {
		out.Inputs = cloneStrings(over.Inputs)
	}
	if over.Concurrency != 0 {
		out.Concurrency = over.Concurrency
	}
	if s := strings.TrimSpace(over.NamesFile); s != "" {
		out.NamesFile = s
	}
	if s := strings.TrimSpace(over.Logging.Level); s != "" {
		out.Logging.Level = s
	}

	// Corpus
	if over.Corpus.MinChars != 0 {
		out.Corpus.MinChars = over.Corpus.MinChars
	}
	if over.Corpus.ShuffleSeed != nil {
		out.Corpus.ShuffleSeed = cloneInt64(over.Corpus.ShuffleSeed)
	}
	if over.Corpus.TrainFile != "" {
		out.Corpus.TrainFile = over.Corpus.TrainFile
	}
	if over.Corpus.ValFile != "" {
		out.Corpus.ValFile = over.Corpus.ValFile
	}

	// Batch
	if over.Batch.Records != "" {
		out.Batch.Records = over.Batch.Records
	}
	if over.Batch.SeqLen != 0 {
		out.Batch.SeqLen = over.Batch.SeqLen
	}
	if over.Batch.BatchSize != 0 {
		out.Batch.BatchSize = over.Batch.BatchSize
	}
	if over.Batch.AddBOS != nil {
		v := *over.Batch.AddBOS
		out.Batch.AddBOS = &v
	}
	if over.Batch.AddEOS != nil {
		v := *over.Batch.AddEOS
		out.Batch.AddEOS = &v
	}
	if over.Batch.Seed != nil {
		out.Batch.Seed = cloneInt64(over.Batch.Seed)
	}
	if over.Batch.Preview != nil {
		v := *over.Batch.Preview
		out.Batch.Preview = &v
	}

	if over.Metrics.Textfile != "" {
		out.Metrics.Textfile = over.Metrics.Textfile
	}

	// 组件名（空不覆盖）
	if over.Components.Reader != "" {
		out.Components.Reader = over.Components.Reader
	}
	if over.Components.Splitter != "" {
		out.Components.Splitter = over.Components.Splitter
	}
	if over.Components.Assembler != "" {
		out.Components.Assembler = over.Components.Assembler
	}
	if over.Components.Decoder != "" {
		out.Components.Decoder = over.Components.Decoder
	}
	if over.Components.Writer != "" {
		out.Components.Writer = over.Components.Writer
	}

	// Options（完整替换对应键）
	if len(over.Options.Reader) > 0 {
		out.Options.Reader = cloneRaw(over.Options.Reader)
	}
	if len(over.Options.Splitter) > 0 {
		out.Options.Splitter = cloneRaw(over.Options.Splitter)
	}
	if len(over.Options.Assembler) > 0 {
		out.Options.Assembler = cloneRaw(over.Options.Assembler)
	}
	if len(over.Options.Decoder) > 0 {
		out.Options.Decoder = cloneRaw(over.Options.Decoder)
	}
	if len(over.Options.Writer) > 0 {
		out.Options.Writer = cloneRaw(over.Options.Writer)
	}
	return out
}

// EnvOverlay 从环境变量构建一个 Config 覆盖（仅解析有限键集合）。
// 规则：前缀 BYTECORPUS_；集合之外的键忽略；数值解析失败返回错误。
// 支持：INPUTS, CONCURRENCY, NAMES_FILE, LOGGING_LEVEL, CORPUS_*, BATCH_*,
// METRICS_TEXTFILE, COMPONENTS_*, OPTIONS_<KIND>_JSON。
func EnvOverlay(environ []string) (Config, error) {
	var over Config
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		eq := strings.IndexByte(kv, '=')
		if eq <= len(envPrefix) {
			continue
		}
		key := kv[:eq]
		val := kv[eq+1:]
		nk := strings.TrimPrefix(key, envPrefix)
		tv := strings.TrimSpace(val)
		if tv == "" {
			// 空值视为未设置，避免清空 config.json 中的值
			continue
		}
		var err error
		switch nk {
		case "INPUTS":
			over.Inputs = splitComma(val)
		case "CONCURRENCY":
			over.Concurrency, err = atoi(val)
		case "NAMES_FILE":
			over.NamesFile = tv
		case "LOGGING_LEVEL":
			over.Logging.Level = tv
		case "CORPUS_MIN_CHARS":
			over.Corpus.MinChars, err = atoi(val)
		case "CORPUS_SHUFFLE_SEED":
			over.Corpus.ShuffleSeed, err = atoi64Ptr(val)
		case "CORPUS_TRAIN_FILE":
			over.Corpus.TrainFile = tv
		case "CORPUS_VAL_FILE":
			over.Corpus.ValFile = tv
		case "BATCH_RECORDS":
			over.Batch.Records = tv
		case "BATCH_SEQ_LEN":
			over.Batch.SeqLen, err = atoi(val)
		case "BATCH_SIZE", "BATCH_BATCH_SIZE":
			over.Batch.BatchSize, err = atoi(val)
		case "BATCH_ADD_BOS":
			over.Batch.AddBOS, err = boolPtr(val)
		case "BATCH_ADD_EOS":
			over.Batch.AddEOS, err = boolPtr(val)
		case "BATCH_SEED":
			over.Batch.Seed, err = atoi64Ptr(val)
		case "BATCH_PREVIEW":
			var n int
			if n, err = atoi(val); err == nil {
				over.Batch.Preview = &n
			}
		case "METRICS_TEXTFILE":
			over.Metrics.Textfile = tv
		case "COMPONENTS_READER":
			over.Components.Reader = tv
		case "COMPONENTS_SPLITTER":
			over.Components.Splitter = tv
		case "COMPONENTS_ASSEMBLER":
			over.Components.Assembler = tv
		case "COMPONENTS_DECODER":
			over.Components.Decoder = tv
		case "COMPONENTS_WRITER":
			over.Components.Writer = tv
		case "OPTIONS_READER_JSON":
			over.Options.Reader = json.RawMessage(tv)
		case "OPTIONS_SPLITTER_JSON":
			over.Options.Splitter = json.RawMessage(tv)
		case "OPTIONS_ASSEMBLER_JSON":
			over.Options.Assembler = json.RawMessage(tv)
		case "OPTIONS_DECODER_JSON":
			over.Options.Decoder = json.RawMessage(tv)
		case "OPTIONS_WRITER_JSON":
			over.Options.Writer = json.RawMessage(tv)
		default:
			// CONFIG_FILE / CONFIG_JSON 等由 CLI 处理
		}
		if err != nil {
			return Config{}, fmt.Errorf("env %s: %w", key, err)
		}
	}
	return over, nil
}

func cloneStrings(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func cloneRaw(in json.RawMessage) json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]byte, len(in))
	copy(out, in)
	return out
}

func cloneInt64(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func splitComma(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}

func atoi64Ptr(s string) (*int64, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func boolPtr(s string) (*bool, error) {
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	return &v, nil
}
