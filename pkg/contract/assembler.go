package contract

import (
	"context"
	"io"
)

// Assembler: 将一组 Record 序列化为单个持久化工件的字节流。
// 约束：
//  1. 每条记录一行，行尾 '\n'；
//  2. 保持输入顺序，不去重、不过滤；
//  3. 纯计算，不做 I/O。
type Assembler interface {
	Assemble(ctx context.Context, recs []Record) (io.Reader, error)
}

// Decoder: Assembler 的逆过程，将持久化字节流还原为 Record。
// 约束：跳过空行与空文本记录；无法解析的行返回 ErrRecordInvalid。
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) ([]Record, error)
}
