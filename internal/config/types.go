package config

import (
	"encoding/json"
)

// Config: 运行期只读配置（一次解析，运行期不变）。
// JSON 使用 snake_case；未知字段在解析期失败。
type Config struct {
	Inputs      []string `json:"inputs"`
	Concurrency int      `json:"concurrency"`
	// NamesFile: 人名忽略表（{"manual_names": [...]}）；缺失仅告警。
	NamesFile string  `json:"names_file"`
	Logging   Logging `json:"logging"`

	Corpus  Corpus  `json:"corpus"`
	Batch   Batch   `json:"batch"`
	Metrics Metrics `json:"metrics"`

	// 组件名选择（空则使用默认名）。
	Components Components `json:"components"`

	// 各组件 Options 子树，原样 JSON 传入工厂。
	Options Options `json:"options"`
}

// Logging: 仅保留日志等级可配置；输出路径与轮转策略为固定默认。
type Logging struct {
	Level string `json:"level"`
}

// Corpus: 语料构建参数。
type Corpus struct {
	// MinChars: 清洗后文件与片段的最小码点数。
	MinChars int `json:"min_chars"`
	// ShuffleSeed: 为空时使用非确定性种子。
	ShuffleSeed *int64 `json:"shuffle_seed"`
	TrainFile   string `json:"train_file"`
	ValFile     string `json:"val_file"`
}

// Batch: 组批参数。指针字段区分“未设置”与显式零值。
type Batch struct {
	// Records: JSONL 语料路径；为空时取 Writer 输出下的 corpus.train_file。
	Records   string `json:"records"`
	SeqLen    int    `json:"seq_len"`
	BatchSize int    `json:"batch_size"`
	AddBOS    *bool  `json:"add_bos"`
	AddEOS    *bool  `json:"add_eos"`
	Seed      *int64 `json:"seed"`
	Preview   *int   `json:"preview"`
}

// Metrics: 指标导出（node-exporter textfile）；路径为空则不导出。
type Metrics struct {
	Textfile string `json:"textfile"`
}

// Components: 组件名选择（注册表中的实现名）。
type Components struct {
	Reader    string `json:"reader"`
	Splitter  string `json:"splitter"`
	Assembler string `json:"assembler"`
	Decoder   string `json:"decoder"`
	Writer    string `json:"writer"`
}

// Options: 各组件的原样 JSON Options。
type Options struct {
	Reader    json.RawMessage `json:"reader"`
	Splitter  json.RawMessage `json:"splitter"`
	Assembler json.RawMessage `json:"assembler"`
	Decoder   json.RawMessage `json:"decoder"`
	Writer    json.RawMessage `json:"writer"`
}
