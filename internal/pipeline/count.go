package pipeline

import (
	"context"
	"fmt"
	"io"

	"bytecorpus/internal/diag"
	"bytecorpus/pkg/contract"
	"bytecorpus/pkg/tokenizer"
)

// FileCount: 单文件原始 token 数（不含控制符）。
type FileCount struct {
	ID     contract.FileID
	Tokens int
}

// Count 统计每个输入文件的字节级 token 数与总数；按 Reader 顺序返回。
// 文件按宽松 UTF-8 读取，非法字节计为 U+FFFD 的 3 个字节。
func Count(ctx context.Context, r contract.Reader, inputs []string, logger *diag.Logger) ([]FileCount, int, error) {
	tok := tokenizer.NewByteLevel(nil)
	var out []FileCount
	total := 0
	timer := logger.Start("count", "iterate")
	err := r.Iterate(ctx, inputs, func(fid contract.FileID, rc io.ReadCloser) error {
		text, err := readText(rc)
		if err != nil {
			return fmt.Errorf("read %s: %w", fid, err)
		}
		n := len(tok.EncodeSpecial(text, false))
		out = append(out, FileCount{ID: fid, Tokens: n})
		total += n
		return nil
	})
	if err != nil {
		code := diag.RecordError("count", err)
		logger.Error("count", string(code), err.Error(), timer.Since())
		return nil, 0, err
	}
	timer.Finish("iterate", int64(total))
	diag.IncOp("count", "finish", "success")
	diag.AddItems("tokens", total)
	return out, total, nil
}
