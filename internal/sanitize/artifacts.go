package sanitize

import "strings"

// ArtifactMarkers 为聊天导出中的系统噪声（整行剔除，大小写不敏感子串匹配）。
var ArtifactMarkers = []string{
	"Messages and calls are end-to-end encrypted",
	"This message was deleted",
	"You deleted this message",
	"<Media omitted>",
	"Missed voice call",
	"Missed video call",
	"image omitted",
	"video omitted",
	"sticker omitted",
	"GIF omitted",
	"<This message was edited>",
}

var lowerMarkers = func() []string {
	out := make([]string, len(ArtifactMarkers))
	for i, m := range ArtifactMarkers {
		out[i] = strings.ToLower(m)
	}
	return out
}()

// DropArtifactLines 拆行、去首尾空白，剔除空行与含噪声标记的行，再以 '\n' 重新拼接。
func DropArtifactLines(s string) string {
	lines := SplitLines(s)
	kept := lines[:0]
	for _, ln := range lines {
		ln = TrimSpace(ln)
		if ln == "" || isArtifact(ln) {
			continue
		}
		kept = append(kept, ln)
	}
	return strings.Join(kept, "\n")
}

func isArtifact(line string) bool {
	l := strings.ToLower(line)
	for _, m := range lowerMarkers {
		if strings.Contains(l, m) {
			return true
		}
	}
	return false
}

// SplitLines 按通用行边界拆分：\n、\r、\r\n、\v、\f、\x1c-\x1e、U+0085、U+2028、U+2029。
// 末尾的行边界不产生额外空行。
func SplitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); {
		r, size := decodeRune(s, i)
		if !isLineBreak(r) {
			i += size
			continue
		}
		out = append(out, s[start:i])
		i += size
		if r == '\r' && i < len(s) && s[i] == '\n' {
			i++
		}
		start = i
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func isLineBreak(r rune) bool {
	switch r {
	case '\n', '\r', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		return true
	}
	return false
}
