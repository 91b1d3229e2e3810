package sanitize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NameScrubber 将配置的人名（大小写不敏感、整词匹配）替换为 <name>。
// 空名单是显式的空操作，不会构造任何匹配器。
type NameScrubber struct {
	names [][]rune // 按码点长度降序，同长按字典序
}

// NewNameScrubber 构造替换器；忽略空白名字，大小写不敏感去重。
func NewNameScrubber(names []string) *NameScrubber {
	seen := make(map[string]struct{}, len(names))
	var uniq []string
	for _, n := range names {
		n = TrimSpace(n)
		if n == "" {
			continue
		}
		k := strings.ToLower(n)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	sort.Slice(uniq, func(i, j int) bool {
		li, lj := utf8.RuneCountInString(uniq[i]), utf8.RuneCountInString(uniq[j])
		if li != lj {
			return li > lj
		}
		return uniq[i] < uniq[j]
	})
	ns := &NameScrubber{names: make([][]rune, len(uniq))}
	for i, n := range uniq {
		ns.names[i] = []rune(n)
	}
	return ns
}

// Len 返回有效名字数。
func (n *NameScrubber) Len() int {
	if n == nil {
		return 0
	}
	return len(n.names)
}

// Scrub 执行替换；同一位置优先匹配最长名字，两端须为词边界。
func (n *NameScrubber) Scrub(s string) string {
	if n.Len() == 0 || s == "" {
		return s
	}
	var b strings.Builder
	prev := rune(-1)
	changed := false
	for i := 0; i < len(s); {
		if end, last, ok := n.matchAt(s, i, prev); ok {
			if !changed {
				b.Grow(len(s))
				b.WriteString(s[:i])
				changed = true
			}
			b.WriteString(PlaceholderName)
			prev = last
			i = end
			continue
		}
		r, size := decodeRune(s, i)
		if changed {
			b.WriteString(s[i : i+size])
		}
		prev = r
		i += size
	}
	if !changed {
		return s
	}
	return b.String()
}

// matchAt 尝试在字节偏移 i 处匹配任一名字，返回结束偏移与匹配到的最后一个码点。
func (n *NameScrubber) matchAt(s string, i int, prev rune) (int, rune, bool) {
	for _, name := range n.names {
		if !isBoundary(prev, name[0]) {
			continue
		}
		j := i
		var last rune
		ok := true
		for _, want := range name {
			if j >= len(s) {
				ok = false
				break
			}
			r, size := decodeRune(s, j)
			if !foldEqual(r, want) {
				ok = false
				break
			}
			last = r
			j += size
		}
		if !ok {
			continue
		}
		next := rune(-1)
		if j < len(s) {
			next, _ = decodeRune(s, j)
		}
		if isBoundary(last, next) {
			return j, last, true
		}
	}
	return 0, 0, false
}

// isBoundary: 两侧词属性不同即为边界；-1 表示文本端点（非词）。
func isBoundary(a, b rune) bool {
	return wordish(a) != wordish(b)
}

func wordish(r rune) bool { return r >= 0 && isWordRune(r) }

func foldEqual(a, b rune) bool {
	if a == b {
		return true
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}
