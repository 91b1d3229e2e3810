package registry

import (
	"bytes"
	"encoding/json"

	"bytecorpus/pkg/contract"
	ajsonl "bytecorpus/plugins/assembler/jsonl"
	djsonl "bytecorpus/plugins/decoder/jsonl"
	rfs "bytecorpus/plugins/reader/filesystem"
	ssent "bytecorpus/plugins/splitter/sentence"
	wfs "bytecorpus/plugins/writer/filesystem"
)

// strictUnmarshal: 使用 DisallowUnknownFields 严格解码，拒绝未知字段。
func strictUnmarshal(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		// 保持零值（默认选项）
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// NewReader 工厂签名：接收原样 JSON Options。
type NewReader func(raw json.RawMessage) (contract.Reader, error)

// NewSplitter 工厂签名：接收原样 JSON Options。
type NewSplitter func(raw json.RawMessage) (contract.Segmenter, error)

// NewAssembler 工厂签名：接收原样 JSON Options。
type NewAssembler func(raw json.RawMessage) (contract.Assembler, error)

// NewDecoder 工厂签名：接收原样 JSON Options。
type NewDecoder func(raw json.RawMessage) (contract.Decoder, error)

// NewWriter 工厂签名：接收原样 JSON Options。
type NewWriter func(raw json.RawMessage) (contract.Writer, error)

// Reader 工厂注册表（显式、零反射）。
var Reader = map[string]NewReader{
	// fs: 文件系统/STDIN Reader
	"fs": func(raw json.RawMessage) (contract.Reader, error) {
		var opts rfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return rfs.New(&opts), nil
	},
}

// Splitter 工厂注册表。
var Splitter = map[string]NewSplitter{
	// sentence: 换行 + 句末标点切分，超长硬切或贪心合并
	"sentence": func(raw json.RawMessage) (contract.Segmenter, error) {
		var opts ssent.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return ssent.New(&opts), nil
	},
}

// Assembler 工厂注册表。
var Assembler = map[string]NewAssembler{
	// jsonl: 每行一个 {"text": ...}
	"jsonl": func(raw json.RawMessage) (contract.Assembler, error) {
		var opts ajsonl.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return ajsonl.New(raw)
	},
}

// Decoder 工厂注册表。
var Decoder = map[string]NewDecoder{
	// jsonl: Assembler(jsonl) 的逆过程
	"jsonl": func(raw json.RawMessage) (contract.Decoder, error) {
		var opts djsonl.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return djsonl.New(raw)
	},
}

// Writer 工厂注册表。
var Writer = map[string]NewWriter{
	// fs: 文件系统 Writer（原子替换、可选 zstd）
	"fs": func(raw json.RawMessage) (contract.Writer, error) {
		var opts wfs.Options
		if err := strictUnmarshal(raw, &opts); err != nil {
			return nil, err
		}
		return wfs.New(&opts)
	},
}
