// Package batch 将持久化语料组装为定长 (input_ids, target_ids) 训练样本。
package batch

import (
	"context"
	"fmt"
	"math/rand"

	"bytecorpus/pkg/contract"
	"bytecorpus/pkg/tokenizer"
)

// Settings: 组批参数。
type Settings struct {
	// SeqLen: 窗口长度（>=2）；样本长度为 SeqLen-1。
	SeqLen int
	// BatchSize: 目标样本数（>=1）。
	BatchSize int
	AddBOS    bool
	AddEOS    bool
	// Seed: 记录洗牌种子；相同输入与种子得到相同批次。
	Seed int64
}

// Validate 检查窗口与批大小下限。
func (s Settings) Validate() error {
	if s.SeqLen < 2 {
		return fmt.Errorf("%w: seq_len=%d (need >= 2)", contract.ErrInvalidInput, s.SeqLen)
	}
	if s.BatchSize < 1 {
		return fmt.Errorf("%w: batch_size=%d (need >= 1)", contract.ErrInvalidInput, s.BatchSize)
	}
	return nil
}

// Batch: 一组等长样本；Targets[i] 为对应窗口右移一位。
type Batch struct {
	Inputs  [][]tokenizer.ID
	Targets [][]tokenizer.ID
}

// Len 返回样本数。
func (b Batch) Len() int { return len(b.Inputs) }

// Make 以 set.Seed 洗牌记录后逐条编码、切窗、错位，收满 BatchSize 即停止。
// - 无记录：ErrEmptyCorpus；
// - 有记录但没有任何完整窗口：ErrNoSequences；
// - 语料耗尽时返回不足 BatchSize 的短批次。
// 输入切片不被修改。
func Make(ctx context.Context, recs []contract.Record, set Settings) (Batch, error) {
	if err := set.Validate(); err != nil {
		return Batch{}, err
	}
	if len(recs) == 0 {
		return Batch{}, contract.ErrEmptyCorpus
	}
	texts := make([]string, len(recs))
	for i, r := range recs {
		texts[i] = r.Text
	}
	rng := rand.New(rand.NewSource(set.Seed))
	rng.Shuffle(len(texts), func(i, j int) { texts[i], texts[j] = texts[j], texts[i] })

	tok := tokenizer.NewByteLevel(&tokenizer.Options{AddBOS: set.AddBOS, AddEOS: set.AddEOS})
	var b Batch
	for _, text := range texts {
		if err := ctx.Err(); err != nil {
			return Batch{}, err
		}
		for _, w := range Windows(tok.Encode(text), set.SeqLen) {
			in, tgt := Shift(w)
			b.Inputs = append(b.Inputs, in)
			b.Targets = append(b.Targets, tgt)
			if b.Len() == set.BatchSize {
				return b, nil
			}
		}
	}
	if b.Len() == 0 {
		return Batch{}, fmt.Errorf("%w: %d records, seq_len=%d", contract.ErrNoSequences, len(recs), set.SeqLen)
	}
	return b, nil
}

// Windows 将 ids 切为互不重叠的定长窗口，丢弃不足 n 的尾部（不填充）。
// 返回的窗口与 ids 共享底层数组。
func Windows(ids []tokenizer.ID, n int) [][]tokenizer.ID {
	if n <= 0 || len(ids) < n {
		return nil
	}
	out := make([][]tokenizer.ID, 0, len(ids)/n)
	for i := 0; i+n <= len(ids); i += n {
		out = append(out, ids[i:i+n:i+n])
	}
	return out
}

// Shift 返回 (w[:n-1], w[1:])；len(w)<2 时两者为空。
func Shift(w []tokenizer.ID) (input, target []tokenizer.ID) {
	if len(w) < 2 {
		return nil, nil
	}
	return w[: len(w)-1 : len(w)-1], w[1:]
}
