package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// isSpace: Unicode 空白，另含 \x1c-\x1f 分隔控制符。
func isSpace(r rune) bool {
	if r >= 0x1c && r <= 0x1f {
		return true
	}
	return unicode.IsSpace(r)
}

// TrimSpace 去除首尾空白（同 isSpace 定义）。
func TrimSpace(s string) string { return strings.TrimFunc(s, isSpace) }

func decodeRune(s string, i int) (rune, int) {
	if c := s[i]; c < utf8.RuneSelf {
		return rune(c), 1
	}
	return utf8.DecodeRuneInString(s[i:])
}

// NormalizeSpace 规整空白：
// CRLF→LF；非换行空白串压成单个空格；连续换行压成一个；去首尾空白。
func NormalizeSpace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var b strings.Builder
	b.Grow(len(s))
	inSpace, inNL := false, false
	for i := 0; i < len(s); {
		r, size := decodeRune(s, i)
		i += size
		switch {
		case r == '\n':
			inSpace = false
			if !inNL {
				b.WriteByte('\n')
			}
			inNL = true
		case isSpace(r):
			if !inSpace {
				b.WriteByte(' ')
			}
			inSpace, inNL = true, false
		default:
			inSpace, inNL = false, false
			b.WriteString(s[i-size : i])
		}
	}
	return TrimSpace(b.String())
}
