package contract

import (
	"path"
	"strings"
)

// NormalizeFileID 规范化路径为跨平台稳定的 FileID：
// 反斜杠统一为正斜杠，再做 path.Clean；不做隐式绝对化。
func NormalizeFileID(p string) FileID {
	return FileID(path.Clean(strings.ReplaceAll(p, "\\", "/")))
}

// Base 返回 FileID 的基名（用于标签推导与终端展示）。
func (f FileID) Base() string { return path.Base(string(f)) }
