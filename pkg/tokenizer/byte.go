package tokenizer

import (
	"golang.org/x/text/encoding/unicode"
)

// Options: 构造期确定的控制符开关。
type Options struct {
	AddBOS bool `json:"add_bos"`
	AddEOS bool `json:"add_eos"`
}

// ByteLevel 是最小字节级分词器：每个 UTF-8 字节即一个 token。
// 无训练词表；encode/decode 永不失败，非法编码按 U+FFFD 替换。
type ByteLevel struct {
	addBOS bool
	addEOS bool
}

// NewByteLevel 创建字节级分词器；opts 可为 nil。
func NewByteLevel(opts *Options) *ByteLevel {
	t := &ByteLevel{}
	if opts != nil {
		t.addBOS = opts.AddBOS
		t.addEOS = opts.AddEOS
	}
	return t
}

var _ Tokenizer = (*ByteLevel)(nil)

// AddBOS 返回构造期的 BOS 开关。
func (t *ByteLevel) AddBOS() bool { return t.addBOS }

// AddEOS 返回构造期的 EOS 开关。
func (t *ByteLevel) AddEOS() bool { return t.addEOS }

// VocabSize 固定返回 259。
func (t *ByteLevel) VocabSize() int { return VocabSize }

// Encode 使用默认的 add_special（= AddBOS || AddEOS）编码。
func (t *ByteLevel) Encode(text string) []ID {
	return t.EncodeSpecial(text, t.addBOS || t.addEOS)
}

// EncodeSpecial 将文本编码为字节 ID；addSpecial 为 true 时按构造期开关
// 分别前置 BOS、追加 EOS（两者独立）。
func (t *ByteLevel) EncodeSpecial(text string, addSpecial bool) []ID {
	b := validUTF8(text)
	n := len(b)
	if addSpecial {
		if t.addBOS {
			n++
		}
		if t.addEOS {
			n++
		}
	}
	ids := make([]ID, 0, n)
	if addSpecial && t.addBOS {
		ids = append(ids, BOS)
	}
	for i := 0; i < len(b); i++ {
		ids = append(ids, ID(b[i]))
	}
	if addSpecial && t.addEOS {
		ids = append(ids, EOS)
	}
	return ids
}

// Decode 仅保留 [0,255] 的 ID（控制符静默丢弃），按 UTF-8 宽松解码。
func (t *ByteLevel) Decode(ids []ID) string {
	b := make([]byte, 0, len(ids))
	for _, id := range ids {
		if IsByte(id) {
			b = append(b, byte(id))
		}
	}
	out, err := unicode.UTF8.NewDecoder().Bytes(b)
	if err != nil {
		// UTF8 解码器对非法序列做替换而非报错；保底返回原字节。
		return string(b)
	}
	return string(out)
}

// validUTF8: 非法字节序列替换为 U+FFFD 后的字节视图。
func validUTF8(s string) []byte {
	out, err := unicode.UTF8.NewEncoder().String(s)
	if err != nil {
		return []byte(s)
	}
	return []byte(out)
}
