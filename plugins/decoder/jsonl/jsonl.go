package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"bytecorpus/pkg/contract"
)

// Options 为 JSONL 解码器的可选配置。
type Options struct {
	// Strict: 为 true 时拒绝缺少 text 字段的对象（默认视为空文本并跳过）。
	Strict bool `json:"strict"`
}

type decoder struct {
	strict bool
}

// New 从原样 JSON Options 创建 JSONL 解码器。
func New(raw json.RawMessage) (contract.Decoder, error) {
	var opts Options
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &opts); err != nil {
			return nil, fmt.Errorf("jsonl decoder options: %w", err)
		}
	}
	return &decoder{strict: opts.Strict}, nil
}

// Decode 逐行解析 {"text": string}；跳过空白行与空文本。
// 行号从 1 开始计入错误信息。
func (d *decoder) Decode(ctx context.Context, r io.Reader) ([]contract.Record, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	var out []contract.Record
	for lineNo := 1; ; lineNo++ {
		if lineNo%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		if strings.TrimSpace(line) != "" {
			var obj struct {
				Text *string `json:"text"`
			}
			if uerr := json.Unmarshal([]byte(line), &obj); uerr != nil {
				return nil, fmt.Errorf("line %d: %v: %w", lineNo, uerr, contract.ErrRecordInvalid)
			}
			switch {
			case obj.Text == nil && d.strict:
				return nil, fmt.Errorf("line %d: missing text: %w", lineNo, contract.ErrRecordInvalid)
			case obj.Text != nil && *obj.Text != "":
				out = append(out, contract.Record{Text: *obj.Text})
			}
		}
		if errors.Is(err, io.EOF) {
			return out, nil
		}
	}
}
