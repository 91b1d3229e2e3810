package registry

import (
	"encoding/json"
	"fmt"
	"testing"
)

// TestStrictUnmarshal 验证严格解码逻辑。
func TestStrictUnmarshal(t *testing.T) {
	type opt struct {
		A int `json:"a"`
	}
	var o opt
	if err := strictUnmarshal(nil, &o); err != nil || o.A != 0 {
		t.Fatalf("nil 输入失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1}`), &o); err != nil || o.A != 1 {
		t.Fatalf("合法 JSON 解析失败: %v", err)
	}
	if err := strictUnmarshal(json.RawMessage(`{"a":1,"b":2}`), &o); err == nil {
		t.Fatalf("未知字段应报错")
	}
}

// TestFactories 遍历注册表入口：合法选项成功，未知字段报错。
func TestFactories(t *testing.T) {
	tmp := t.TempDir()
	type entry struct {
		name string
		make func(json.RawMessage) (any, error)
		good string
	}
	entries := []entry{
		{"reader", func(r json.RawMessage) (any, error) { return Reader["fs"](r) }, `{"exts":[".txt"]}`},
		{"splitter", func(r json.RawMessage) (any, error) { return Splitter["sentence"](r) }, `{"max_len":80,"group":true}`},
		{"assembler", func(r json.RawMessage) (any, error) { return Assembler["jsonl"](r) }, `{}`},
		{"decoder", func(r json.RawMessage) (any, error) { return Decoder["jsonl"](r) }, `{"strict":true}`},
		{"writer", func(r json.RawMessage) (any, error) { return Writer["fs"](r) }, fmt.Sprintf(`{"output_dir":%q,"compress":"zstd"}`, tmp)},
	}
	for _, e := range entries {
		t.Run(e.name, func(t *testing.T) {
			if _, err := e.make(json.RawMessage(e.good)); err != nil {
				t.Fatalf("%s: %v", e.name, err)
			}
			bad := e.good[:len(e.good)-1]
			if bad != "{" {
				bad += ","
			}
			bad += `"x":1}`
			if _, err := e.make(json.RawMessage(bad)); err == nil {
				t.Fatalf("%s 未对未知字段报错", e.name)
			}
		})
	}
}

// TestSplitterDefault 空选项得到默认 Splitter。
func TestSplitterDefault(t *testing.T) {
	s, err := Splitter["sentence"](nil)
	if err != nil {
		t.Fatalf("splitter: %v", err)
	}
	if got := s.Segment("One. Two."); len(got) != 2 {
		t.Fatalf("segments %v", got)
	}
}
