// Package sanitize 提供原始文本的隐私清洗：平台噪声行过滤、敏感信息占位替换与空白规整。
//
// 清洗由一组有序的整串改写 Pass 组成；顺序固定且有意义：
// 先按行剔除结构噪声，再做模式替换，最后规整空白。每个 Pass 都是全函数，不返回错误。
package sanitize

// 占位符（嵌入清洗后文本）。
const (
	PlaceholderURL    = "<url>"
	PlaceholderEmail  = "<email>"
	PlaceholderPhone  = "<phone>"
	PlaceholderHandle = "<handle>"
	PlaceholderName   = "<name>"
)

// Pass 为单个整串改写步骤。
type Pass struct {
	Name  string
	Apply func(string) string
}

// Passes 返回默认清洗流水线（每次调用返回新切片，调用方可安全修改）。
func Passes() []Pass {
	return []Pass{
		{Name: "artifacts", Apply: DropArtifactLines},
		{Name: "url", Apply: RedactURLs},
		{Name: "email", Apply: RedactEmails},
		{Name: "phone", Apply: RedactPhones},
		{Name: "handle", Apply: RedactHandles},
		{Name: "space", Apply: NormalizeSpace},
	}
}

var defaultPasses = Passes()

// Clean 按默认顺序执行全部 Pass；对任意输入（含空串）均有定义。
func Clean(raw string) string {
	return Apply(raw, defaultPasses)
}

// Apply 依序执行给定 Pass。
func Apply(s string, passes []Pass) string {
	for _, p := range passes {
		s = p.Apply(s)
	}
	return s
}
