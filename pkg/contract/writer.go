package contract

import (
	"context"
	"io"
)

// ArtifactID: 持久化工件标识（如 "train.jsonl"），与 FileID 共用表示。
type ArtifactID = FileID

// Writer: 将装配好的字节流持久化到目标介质。
// 约束：
//  1. 同一 ArtifactID 单写者；
//  2. 流式透传，不修改业务内容（压缩等传输编码除外）；
//  3. ctx 取消需尽快返回；
//  4. 错误直接上抛，不做重试。
type Writer interface {
	Write(ctx context.Context, id ArtifactID, r io.Reader) error
}
