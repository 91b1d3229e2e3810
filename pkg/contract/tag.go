package contract

import (
	"path"
	"strings"
)

// ContextTag: 片段来源语境的封闭枚举。
type ContextTag string

const (
	TagChat     ContextTag = "chat"
	TagLinkedIn ContextTag = "linkedin"
	TagLog      ContextTag = "log"
	TagEssay    ContextTag = "essay"
	TagGeneric  ContextTag = "generic"
)

// tagRules: 文件名子串 → 标签，按顺序首个命中生效。
var tagRules = []struct {
	substr string
	tag    ContextTag
}{
	{"whatsapp", TagChat},
	{"linkedin", TagLinkedIn},
	{"log", TagLog},
	{"essay", TagEssay},
}

// DetectContextTag 依据文件基名（大小写不敏感）推导标签；未命中返回 generic。
func DetectContextTag(name string) ContextTag {
	base := strings.ToLower(path.Base(strings.ReplaceAll(name, "\\", "/")))
	for _, r := range tagRules {
		if strings.Contains(base, r.substr) {
			return r.tag
		}
	}
	return TagGeneric
}

// Marker 返回嵌入文本的标记前缀（含结尾空格）。
func (t ContextTag) Marker() string { return "<context:" + string(t) + "> " }

// Valid 判断是否为已知标签。
func (t ContextTag) Valid() bool {
	switch t {
	case TagChat, TagLinkedIn, TagLog, TagEssay, TagGeneric:
		return true
	}
	return false
}
