package contract

import (
	"fmt"
	"path/filepath"
	"testing"
)

// TestNormalizeFileID 验证路径规范化逻辑。
func TestNormalizeFileID(t *testing.T) {
	if got := NormalizeFileID(filepath.Join("a", "b", "c")); got != "a/b/c" {
		t.Fatalf("本地分隔符未规范化: %s", got)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"空串", "", "."},
		{"Windows路径", "C:\\corpus\\whatsapp_chat.txt", "C:/corpus/whatsapp_chat.txt"},
		{"清理多余斜杠", "data//raw///essay.txt", "data/raw/essay.txt"},
		{"处理父目录", "data/raw/../clean/log.txt", "data/clean/log.txt"},
		{"混合分隔符", "data\\raw/notes\\a.txt", "data/raw/notes/a.txt"},
		{"中文路径", "语料\\聊天/记录.txt", "语料/聊天/记录.txt"},
		{"仅分隔符", "\\\\\\///", "/"},
		{"越界父目录", "a\\b\\..\\..\\..\\d", "../d"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeFileID(tt.input); string(got) != tt.expected {
				t.Errorf("NormalizeFileID(%q) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

// TestFileIDBase 验证基名提取。
func TestFileIDBase(t *testing.T) {
	if b := NormalizeFileID("raw\\WhatsApp Chat.txt").Base(); b != "WhatsApp Chat.txt" {
		t.Fatalf("base=%q", b)
	}
}

// TestDetectContextTag 覆盖全部标签与优先顺序。
func TestDetectContextTag(t *testing.T) {
	cases := map[string]ContextTag{
		"WhatsApp_Chat_with_Bob.txt": TagChat,
		"my_linkedin_posts.txt":      TagLinkedIn,
		"server.LOG.txt":             TagLog,
		"Essay-draft.txt":            TagEssay,
		"notes.txt":                  TagGeneric,
		"whatsapp_log.txt":           TagChat,
		"linkedin_essay.txt":         TagLinkedIn,
		"raw/logs/notes.txt":         TagGeneric,
		"C:\\data\\blog.txt":         TagLog,
	}
	for in, want := range cases {
		if got := DetectContextTag(in); got != want {
			t.Errorf("DetectContextTag(%q)=%s want %s", in, got, want)
		}
	}
}

// TestContextTagMarker 验证标记格式。
func TestContextTagMarker(t *testing.T) {
	if m := TagChat.Marker(); m != "<context:chat> " {
		t.Fatalf("marker=%q", m)
	}
	if !TagGeneric.Valid() || ContextTag("misc").Valid() {
		t.Fatalf("Valid 判定错误")
	}
}

// TestPartition 验证 90/10 划分边界。
func TestPartition(t *testing.T) {
	cases := []struct{ n, train, val int }{
		{0, 0, 0},
		{1, 1, 0},
		{2, 1, 1},
		{9, 8, 1},
		{10, 9, 1},
		{11, 9, 2},
		{100, 90, 10},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("n=%d", c.n), func(t *testing.T) {
			recs := make([]Record, c.n)
			for i := range recs {
				recs[i] = Record{Text: fmt.Sprint(i)}
			}
			s := Partition(recs)
			if len(s.Train) != c.train || len(s.Val) != c.val {
				t.Fatalf("train=%d val=%d, want %d/%d", len(s.Train), len(s.Val), c.train, c.val)
			}
			if s.Len() != c.n {
				t.Fatalf("记录丢失: %d", s.Len())
			}
			if c.n > 0 && s.Train[0].Text != "0" {
				t.Fatalf("前缀顺序被改变")
			}
		})
	}
}

// BenchmarkNormalizeFileID 性能基准测试
func BenchmarkNormalizeFileID(b *testing.B) {
	paths := []string{
		"C:\\Users\\test\\Documents\\chat.txt",
		"raw/../../../data/essay.txt",
		"very/long/path/with/many/segments/and/mixed\\separators/log.txt",
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, p := range paths {
			NormalizeFileID(p)
		}
	}
}
