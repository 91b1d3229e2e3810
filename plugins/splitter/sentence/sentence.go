package sentence

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxLen 为片段默认最大长度（码点）。
const DefaultMaxLen = 160

// Options 为句子 Splitter 的可选配置。
type Options struct {
	// MaxLen: 片段最大码点数；<=0 时取 DefaultMaxLen。
	MaxLen int `json:"max_len"`
	// Group: 是否将相邻句子贪心合并（以 '\n' 连接）至 MaxLen 以内。
	Group bool `json:"group"`
}

// Splitter 实现 contract.Segmenter。
type Splitter struct {
	maxLen int
	group  bool
}

// New 创建 Splitter。
func New(opts *Options) *Splitter {
	s := &Splitter{maxLen: DefaultMaxLen}
	if opts != nil {
		if opts.MaxLen > 0 {
			s.maxLen = opts.MaxLen
		}
		s.group = opts.Group
	}
	return s
}

// MaxLen 返回生效的最大长度。
func (s *Splitter) MaxLen() int { return s.maxLen }

// Segment 按配置切分。
func (s *Splitter) Segment(text string) []string { return Segment(text, s.maxLen, s.group) }

// Segment 将文本切为片段：
//   - 换行为硬边界；句末 . ! ? 后接空白为软边界；
//   - group=false：每句一段，超长句按 maxLen 码点硬切（不看词边界）；
//   - group=true：贪心合并相邻句，超长单句自成一段且不硬切。
//
// maxLen<=0 表示不限长。无内容时返回 nil。
func Segment(text string, maxLen int, group bool) []string {
	sents := Sentences(text)
	if len(sents) == 0 {
		return nil
	}
	if group {
		return groupSentences(sents, maxLen)
	}
	out := make([]string, 0, len(sents))
	for _, s := range sents {
		if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
			out = append(out, s)
			continue
		}
		for _, c := range HardWrap(s, maxLen) {
			if c = strings.TrimFunc(c, unicode.IsSpace); c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}

// Sentences 返回去空白后的非空句子候选（按出现顺序）。
func Sentences(text string) []string {
	var out []string
	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimFunc(ln, unicode.IsSpace)
		if ln == "" {
			continue
		}
		for _, p := range splitLine(ln) {
			if p = strings.TrimFunc(p, unicode.IsSpace); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// splitLine 在“句末标点 + 空白串”处切开，空白串本身被丢弃。
func splitLine(ln string) []string {
	var parts []string
	start := 0
	prev := rune(-1)
	for i := 0; i < len(ln); {
		r, size := utf8.DecodeRuneInString(ln[i:])
		if unicode.IsSpace(r) && isTerminal(prev) {
			parts = append(parts, ln[start:i])
			j := i
			for j < len(ln) {
				r2, sz := utf8.DecodeRuneInString(ln[j:])
				if !unicode.IsSpace(r2) {
					break
				}
				j += sz
			}
			start, i, prev = j, j, -1
			continue
		}
		prev = r
		i += size
	}
	return append(parts, ln[start:])
}

func isTerminal(r rune) bool { return r == '.' || r == '!' || r == '?' }

// HardWrap 将 s 按 n 个码点切为连续块（最后一块可能更短）；n<=0 时原样返回。
func HardWrap(s string, n int) []string {
	if n <= 0 {
		return []string{s}
	}
	var out []string
	count, start := 0, 0
	for i := range s {
		if count == n {
			out = append(out, s[start:i])
			start, count = i, 0
		}
		count++
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func groupSentences(sents []string, maxLen int) []string {
	var chunks, buf []string
	cur := 0
	for _, s := range sents {
		l := utf8.RuneCountInString(s)
		add := l
		if len(buf) > 0 {
			add++
		}
		if maxLen <= 0 || cur+add <= maxLen {
			buf = append(buf, s)
			cur += add
			continue
		}
		if len(buf) > 0 {
			chunks = append(chunks, strings.Join(buf, "\n"))
		}
		buf = []string{s}
		cur = l
	}
	if len(buf) > 0 {
		chunks = append(chunks, strings.Join(buf, "\n"))
	}
	return chunks
}
