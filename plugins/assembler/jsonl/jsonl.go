package jsonl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"bytecorpus/pkg/contract"
)

// Options: 预留占位，JSONL 装配无需配置。
type Options struct{}

type assembler struct{}

// New 从原样 JSON Options 创建 JSONL 装配器（当前忽略选项）。
func New(raw json.RawMessage) (contract.Assembler, error) {
	_ = raw
	return &assembler{}, nil
}

// Assemble 将记录逐行编码为 {"text": ...}\n。
// 非 ASCII 与 HTML 字符原样输出（不转义）；零条记录返回空流。
func (a *assembler) Assemble(ctx context.Context, recs []contract.Record) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i := range recs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		// Encoder 自带行尾 '\n'
		if err := enc.Encode(&recs[i]); err != nil {
			return nil, fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return &buf, nil
}
