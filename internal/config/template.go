package config

import "encoding/json"

// DefaultTemplateConfig 返回一个“可运行”的默认配置模板：
// - 默认输入为 ./raw 目录，Writer 输出到 ./out；
// - 组件名采用仓库内置实现；
// - 选项包含全部键并给出中性默认值。
func DefaultTemplateConfig() Config {
	d := Defaults()
	seed := DefaultSeed
	cfg := Config{
		Inputs:      []string{"raw"},
		Concurrency: 4,
		NamesFile:   d.NamesFile,
		Logging:     Logging{Level: "info"},
		Corpus:      d.Corpus,
		Batch: Batch{
			SeqLen:    d.Batch.SeqLen,
			BatchSize: d.Batch.BatchSize,
			AddBOS:    d.Batch.AddBOS,
			AddEOS:    d.Batch.AddEOS,
			Seed:      &seed,
			Preview:   d.Batch.Preview,
		},
		Components: d.Components,
	}
	cfg.Corpus.ShuffleSeed = &seed
	// Options：包含所有键（值可为空/默认），确保键存在。
	cfg.Options.Reader = json.RawMessage(`{
  "buf_size": 65536,
  "exclude_dir_names": [".git", "node_modules"],
  "exts": [".txt"]
}`)
	cfg.Options.Splitter = json.RawMessage(`{
  "max_len": 160,
  "group": false
}`)
	// jsonl 装配器无配置项，保持空对象
	cfg.Options.Assembler = json.RawMessage(`{}`)
	cfg.Options.Decoder = json.RawMessage(`{
  "strict": false
}`)
	cfg.Options.Writer = json.RawMessage(`{
  "output_dir": "out",
  "atomic": true,
  "flat": true,
  "perm_file": 0,
  "perm_dir": 0,
  "buf_size": 65536,
  "compress": "",
  "level": 0
}`)
	return cfg
}

// DefaultEnvTemplate 返回 .env 模板（全部注释，按需启用）。
func DefaultEnvTemplate() string {
	return `# bytecorpus 环境变量覆盖（优先级：config.json < ENV < CLI）
# BYTECORPUS_INPUTS=raw
# BYTECORPUS_CONCURRENCY=4
# BYTECORPUS_NAMES_FILE=names_ignore.json
# BYTECORPUS_LOGGING_LEVEL=info
# BYTECORPUS_CORPUS_MIN_CHARS=20
# BYTECORPUS_CORPUS_SHUFFLE_SEED=42
# BYTECORPUS_CORPUS_TRAIN_FILE=train.jsonl
# BYTECORPUS_CORPUS_VAL_FILE=val.jsonl
# BYTECORPUS_BATCH_RECORDS=out/train.jsonl
# BYTECORPUS_BATCH_SEQ_LEN=128
# BYTECORPUS_BATCH_SIZE=2
# BYTECORPUS_BATCH_ADD_BOS=false
# BYTECORPUS_BATCH_ADD_EOS=false
# BYTECORPUS_BATCH_SEED=42
# BYTECORPUS_BATCH_PREVIEW=2
# BYTECORPUS_METRICS_TEXTFILE=
# BYTECORPUS_OPTIONS_WRITER_JSON={"output_dir":"out","compress":"zstd"}
`
}
