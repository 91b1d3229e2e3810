// Package tokenizer 提供字节级分词：0..255 为原始字节，256..258 为保留控制符。
package tokenizer

// ID: 词表内的整数标识，取值 [0, VocabSize)。
type ID int32

// 保留控制符；必须位于字节区间之外。
const (
	BOS ID = 256 // 序列起始
	EOS ID = 257 // 序列结束
	PAD ID = 258 // 填充

	// VocabSize 固定为 259（256 字节 + 3 个控制符），改动需同步模型嵌入层。
	VocabSize = 259
)

var specialNames = map[ID]string{
	BOS: "<|bos|>",
	EOS: "<|eos|>",
	PAD: "<|pad|>",
}

// Tokenizer: 文本与 ID 序列的双向映射。
type Tokenizer interface {
	Encode(text string) []ID
	Decode(ids []ID) string
	VocabSize() int
}

// IsByte 判断 id 是否落在原始字节区间。
func IsByte(id ID) bool { return id >= 0 && id <= 255 }

// IsSpecial 判断 id 是否为保留控制符。
func IsSpecial(id ID) bool {
	_, ok := specialNames[id]
	return ok
}

// SpecialName 返回控制符的可读名；非控制符返回空串。
func SpecialName(id ID) string { return specialNames[id] }
