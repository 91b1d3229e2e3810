package batch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bytecorpus/pkg/contract"
	"bytecorpus/pkg/tokenizer"
	djsonl "bytecorpus/plugins/decoder/jsonl"
)

func seq(n int) []tokenizer.ID {
	out := make([]tokenizer.ID, n)
	for i := range out {
		out[i] = tokenizer.ID(i)
	}
	return out
}

func TestWindowsDropsRemainder(t *testing.T) {
	ws := Windows(seq(12), 5)
	require.Len(t, ws, 2)
	assert.Equal(t, []tokenizer.ID{0, 1, 2, 3, 4}, ws[0])
	assert.Equal(t, []tokenizer.ID{5, 6, 7, 8, 9}, ws[1])

	assert.Nil(t, Windows(seq(4), 5))
	assert.Nil(t, Windows(seq(4), 0))
	assert.Len(t, Windows(seq(10), 5), 2)
}

func TestShift(t *testing.T) {
	in, tgt := Shift([]tokenizer.ID{0, 1, 2, 3, 4})
	assert.Equal(t, []tokenizer.ID{0, 1, 2, 3}, in)
	assert.Equal(t, []tokenizer.ID{1, 2, 3, 4}, tgt)

	in, tgt = Shift([]tokenizer.ID{7})
	assert.Empty(t, in)
	assert.Empty(t, tgt)
}

// 窗口切片的 cap 被截断，追加不会改写相邻窗口。
func TestWindowsAreIsolated(t *testing.T) {
	ids := seq(10)
	ws := Windows(ids, 5)
	_ = append(ws[0], 99)
	assert.Equal(t, tokenizer.ID(5), ws[1][0])
	in, _ := Shift(ws[1])
	_ = append(in, 99)
	assert.Equal(t, tokenizer.ID(9), ws[1][4])
}

func TestMakeTwelveTokensSeqLenFive(t *testing.T) {
	recs := []contract.Record{{Text: "abcdefghijkl"}}
	b, err := Make(context.Background(), recs, Settings{SeqLen: 5, BatchSize: 8, Seed: 42})
	require.NoError(t, err)
	require.Equal(t, 2, b.Len())
	for i := 0; i < b.Len(); i++ {
		assert.Len(t, b.Inputs[i], 4)
		assert.Len(t, b.Targets[i], 4)
		assert.Equal(t, b.Inputs[i][1:], b.Targets[i][:3])
	}
	assert.Equal(t, []tokenizer.ID{'a', 'b', 'c', 'd'}, b.Inputs[0])
	assert.Equal(t, []tokenizer.ID{'b', 'c', 'd', 'e'}, b.Targets[0])
	assert.Equal(t, []tokenizer.ID{'f', 'g', 'h', 'i'}, b.Inputs[1])
	assert.Equal(t, []tokenizer.ID{'g', 'h', 'i', 'j'}, b.Targets[1])
}

func TestMakeStopsAtBatchSize(t *testing.T) {
	var recs []contract.Record
	for i := 0; i < 20; i++ {
		recs = append(recs, contract.Record{Text: strings.Repeat(string(rune('a'+i)), 40)})
	}
	b, err := Make(context.Background(), recs, Settings{SeqLen: 8, BatchSize: 3, Seed: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, b.Len())
	for _, in := range b.Inputs {
		assert.Len(t, in, 7)
	}
}

func TestMakeDeterministicSeed(t *testing.T) {
	var recs []contract.Record
	for i := 0; i < 50; i++ {
		recs = append(recs, contract.Record{Text: strings.Repeat(string(rune('A'+i%26)), 9) + string(rune('a'+i%26))})
	}
	orig := append([]contract.Record(nil), recs...)
	set := Settings{SeqLen: 10, BatchSize: 5, Seed: 7}
	b1, err := Make(context.Background(), recs, set)
	require.NoError(t, err)
	b2, err := Make(context.Background(), recs, set)
	require.NoError(t, err)
	assert.Equal(t, b1, b2)
	assert.Equal(t, orig, recs)
}

func TestMakeSpecials(t *testing.T) {
	recs := []contract.Record{{Text: "abc"}}
	b, err := Make(context.Background(), recs, Settings{SeqLen: 5, BatchSize: 1, AddBOS: true, AddEOS: true})
	require.NoError(t, err)
	require.Equal(t, 1, b.Len())
	assert.Equal(t, []tokenizer.ID{tokenizer.BOS, 'a', 'b', 'c'}, b.Inputs[0])
	assert.Equal(t, []tokenizer.ID{'a', 'b', 'c', tokenizer.EOS}, b.Targets[0])
}

func TestMakeErrors(t *testing.T) {
	ctx := context.Background()
	_, err := Make(ctx, nil, Settings{SeqLen: 5, BatchSize: 1})
	assert.ErrorIs(t, err, contract.ErrEmptyCorpus)

	_, err = Make(ctx, []contract.Record{{Text: "abc"}}, Settings{SeqLen: 5, BatchSize: 1})
	assert.ErrorIs(t, err, contract.ErrNoSequences)

	_, err = Make(ctx, []contract.Record{{Text: "abc"}}, Settings{SeqLen: 1, BatchSize: 1})
	assert.ErrorIs(t, err, contract.ErrInvalidInput)

	_, err = Make(ctx, []contract.Record{{Text: "abc"}}, Settings{SeqLen: 2, BatchSize: 0})
	assert.ErrorIs(t, err, contract.ErrInvalidInput)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, err = Make(cctx, []contract.Record{{Text: "abcdef"}}, Settings{SeqLen: 2, BatchSize: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func writeRecords(t *testing.T, path, body string, compress bool) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	if !compress {
		_, err = f.WriteString(body)
		require.NoError(t, err)
		return
	}
	zw, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = zw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
}

func TestLoadPlainAndZstd(t *testing.T) {
	dec, err := djsonl.New(nil)
	require.NoError(t, err)
	body := "{\"text\":\"<context:chat> héllo there\"}\n\n{\"text\":\"\"}\n{\"text\":\"second\"}\n"
	dir := t.TempDir()
	cases := map[string]bool{
		"train.jsonl":     false,
		"train.jsonl.zst": true,
		// 无后缀也按魔数识别
		"train.bin": true,
	}
	for name, compress := range cases {
		p := filepath.Join(dir, name)
		writeRecords(t, p, body, compress)
		recs, err := Load(context.Background(), dec, p)
		require.NoError(t, err, name)
		assert.Equal(t, []contract.Record{{Text: "<context:chat> héllo there"}, {Text: "second"}}, recs, name)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dec, _ := djsonl.New(nil)
	_, err := Load(context.Background(), dec, filepath.Join(t.TempDir(), "nope.jsonl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRun(t *testing.T) {
	dec, _ := djsonl.New(nil)
	p := filepath.Join(t.TempDir(), "train.jsonl")
	writeRecords(t, p, "{\"text\":\"abcdefghijkl\"}\n", false)

	b, err := Run(context.Background(), dec, p, Settings{SeqLen: 5, BatchSize: 2, Seed: 42}, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Len())

	empty := filepath.Join(t.TempDir(), "empty.jsonl")
	writeRecords(t, empty, "\n", false)
	_, err = Run(context.Background(), dec, empty, Settings{SeqLen: 5, BatchSize: 2}, nil)
	assert.ErrorIs(t, err, contract.ErrEmptyCorpus)

	_, err = Run(context.Background(), dec, p, Settings{SeqLen: 0, BatchSize: 2}, nil)
	assert.ErrorIs(t, err, contract.ErrInvalidInput)
}

func TestPreview(t *testing.T) {
	tok := tokenizer.NewByteLevel(&tokenizer.Options{AddBOS: true})
	b := Batch{
		Inputs:  [][]tokenizer.ID{{tokenizer.BOS, 'h', 'i', '\n', 'x'}},
		Targets: [][]tokenizer.ID{{'h', 'i', '\n', 'x', 'y'}},
	}
	out := Preview(b, tok, 2)
	assert.True(t, strings.HasPrefix(out, "Got batch of 1 examples; showing 1 preview(s).\n\n"))
	assert.Contains(t, out, "Example 0\n")
	assert.Contains(t, out, " input_ids len: 5  target_ids len: 5\n")
	assert.Contains(t, out, " input ids head: [256, 104, 105, 10, 120]\n")
	assert.Contains(t, out, " input preview: hi\\nx\n")
	assert.Contains(t, out, " target preview: hi\\nxy\n")
	assert.Contains(t, out, strings.Repeat("-", 60))

	assert.Equal(t, "Got batch of 1 examples; showing 0 preview(s).\n\n", Preview(b, tok, 0))
}

func TestPreviewTruncates(t *testing.T) {
	ids := make([]tokenizer.ID, 0, 100)
	for i := 0; i < 100; i++ {
		ids = append(ids, 'z')
	}
	out := Preview(Batch{Inputs: [][]tokenizer.ID{ids}, Targets: [][]tokenizer.ID{ids}}, tokenizer.NewByteLevel(nil), 1)
	assert.Contains(t, out, " input ids head: ["+strings.TrimSuffix(strings.Repeat("122, ", 12), ", ")+"]\n")
	assert.Contains(t, out, " input preview: "+strings.Repeat("z", 80)+"\n")
}

func BenchmarkMake(b *testing.B) {
	recs := make([]contract.Record, 1000)
	for i := range recs {
		recs[i] = contract.Record{Text: strings.Repeat("hello world ", 20)}
	}
	set := Settings{SeqLen: 128, BatchSize: 64, Seed: 42}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Make(context.Background(), recs, set); err != nil {
			b.Fatal(err)
		}
	}
}
