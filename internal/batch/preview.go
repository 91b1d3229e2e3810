package batch

import (
	"fmt"
	"strings"

	"bytecorpus/pkg/tokenizer"
)

// 预览参数。
const (
	PreviewHeadIDs = 12
	PreviewChars   = 80
)

// Preview 渲染前 n 个样本：长度、前 12 个 ID、解码预览（控制符隐藏，换行显示为 \n，截断 80 字符）。
func Preview(b Batch, tok tokenizer.Tokenizer, n int) string {
	if n > b.Len() {
		n = b.Len()
	}
	if n < 0 {
		n = 0
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Got batch of %d examples; showing %d preview(s).\n\n", b.Len(), n)
	for i := 0; i < n; i++ {
		x, y := b.Inputs[i], b.Targets[i]
		fmt.Fprintf(&sb, "Example %d\n", i)
		fmt.Fprintf(&sb, " input_ids len: %d  target_ids len: %d\n", len(x), len(y))
		fmt.Fprintf(&sb, " input ids head: %s\n", formatIDs(head(x, PreviewHeadIDs)))
		fmt.Fprintf(&sb, " target ids head: %s\n", formatIDs(head(y, PreviewHeadIDs)))
		fmt.Fprintf(&sb, " input preview: %s\n", previewText(tok.Decode(x), PreviewChars))
		fmt.Fprintf(&sb, " target preview: %s\n", previewText(tok.Decode(y), PreviewChars))
		sb.WriteString(strings.Repeat("-", 60))
		sb.WriteByte('\n')
	}
	return sb.String()
}

func head(ids []tokenizer.ID, n int) []tokenizer.ID {
	if len(ids) > n {
		return ids[:n]
	}
	return ids
}

func formatIDs(ids []tokenizer.ID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(int(id))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// previewText 按码点截断后转义换行。
func previewText(s string, n int) string {
	if rs := []rune(s); len(rs) > n {
		s = string(rs[:n])
	}
	return strings.ReplaceAll(s, "\n", `\n`)
}
