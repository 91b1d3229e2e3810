package sanitize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// urlRE: 协议前缀起，到下一个空白为止（含尾随标点）。
	urlRE = regexp.MustCompile(`https?://[^\s\v\x{85}\p{Z}]+`)
	// emailRE: 宽松邮箱。
	emailRE = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	// phoneRE: 宽松国际/北美号码，容忍 Unicode 空白、点、连字符分隔与括号区号；数字为任意 Nd。
	// 锚定在候选起点；末尾须为非词字符或文本结尾（组 1 为号码本体）。起点词边界在 RedactPhones 中判定。
	phoneRE = regexp.MustCompile(`^((?:\+?\p{Nd}{1,3}[\s\v\x{85}\x1c-\x1f\p{Z}.-]?)?(?:\(\p{Nd}{3}\)|\p{Nd}{3})[\s\v\x{85}\x1c-\x1f\p{Z}.-]?\p{Nd}{3}[\s\v\x{85}\x1c-\x1f\p{Z}.-]?\p{Nd}{4})(?:[^\p{L}\p{N}\p{M}_]|$)`)
	// handleRE: '@' 后接词字符；前置词字符约束在 RedactHandles 中判定。
	handleRE = regexp.MustCompile(`@[\p{L}\p{N}\p{M}_]+`)
)

// RedactURLs 将 http(s) 链接替换为 <url>。
func RedactURLs(s string) string { return urlRE.ReplaceAllLiteralString(s, PlaceholderURL) }

// RedactEmails 将邮箱替换为 <email>。
func RedactEmails(s string) string { return emailRE.ReplaceAllLiteralString(s, PlaceholderEmail) }

// RedactPhones 将电话号码替换为 <phone>。
// 起点边界按 Unicode 词字符判定：以数字开头的号码前一字符须为非词字符；
// 以 '+' 或 '(' 开头的号码不限前一字符，国家码与括号区号一并替换。
func RedactPhones(s string) string {
	var b strings.Builder
	last := 0
	for i := 0; i < len(s); {
		r, size := decodeRune(s, i)
		if phoneStartAt(s, i, r) {
			if m := phoneRE.FindStringSubmatchIndex(s[i:]); m != nil {
				if last == 0 {
					b.Grow(len(s))
				}
				b.WriteString(s[last:i])
				b.WriteString(PlaceholderPhone)
				i += m[3]
				last = i
				continue
			}
		}
		i += size
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

func phoneStartAt(s string, i int, r rune) bool {
	switch {
	case r == '+' || r == '(':
		return true
	case unicode.Is(unicode.Nd, r):
		prev := rune(-1)
		if i > 0 {
			prev = lastRune(s[:i])
		}
		return !wordish(prev)
	}
	return false
}

// RedactHandles 将 @handle 替换为 <handle>；'@' 紧跟在词字符之后（如 a@b）不视为 handle。
func RedactHandles(s string) string {
	locs := handleRE.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, loc := range locs {
		if loc[0] > 0 && isWordRune(lastRune(s[:loc[0]])) {
			continue
		}
		b.WriteString(s[last:loc[0]])
		b.WriteString(PlaceholderHandle)
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// isWordRune: 字母、数字、组合标记或下划线。
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.Is(unicode.M, r)
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
