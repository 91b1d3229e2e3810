package contract

import (
	"context"
	"io"
)

// Reader: 原始文本输入源抽象（目录/单文件/STDIN）。
// 约束：
// 1) 按文件回调，顺序稳定（字典序）；
// 2) FileID 稳定且去平台差异化；
// 3) 只提供字节流，不做解码（宽松 UTF-8 解码由调用方负责）；
// 4) 不在内部起并发；回调负责关闭 ReadCloser。
type Reader interface {
	Iterate(ctx context.Context, roots []string, yield func(fileID FileID, r io.ReadCloser) error) error
}
