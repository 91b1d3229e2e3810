package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"bytecorpus/internal/diag"
	"bytecorpus/internal/sanitize"
	"bytecorpus/pkg/contract"
)

// - 单点并发：仅此层管理并发；原子组件均为同步、无内部并发。
// - Reader 串行回调读取全文，清洗与切分在有界 errgroup 中并行。
// - 洗牌前按文件发现顺序汇总，种子固定时结果可复现。
// - 首错取消：任一文件出错即 cancel 整体并返回该错误。

// Components 聚合构建所需的原子组件。
type Components struct {
	Reader    contract.Reader
	Segmenter contract.Segmenter
	Assembler contract.Assembler
	Writer    contract.Writer
}

// Settings 运行期配置（最小必要）。
type Settings struct {
	Inputs      []string
	Concurrency int
	// MinChars: 清洗后文件与片段的最小码点数；更短者丢弃。
	MinChars int
	// ShuffleSeed: nil 时以当前时间为种子。
	ShuffleSeed *int64
	// Names: 人名替换器；nil 或空集合为 no-op。
	Names *sanitize.NameScrubber
	// TrainFile/ValFile: 输出工件 ID（交由 Writer 映射路径）。
	TrainFile contract.ArtifactID
	ValFile   contract.ArtifactID
}

// segment: 已清洗、未打标记的片段；人名替换仅作用于 Content。
type segment struct {
	Tag     contract.ContextTag
	Content string
}

// fileResult: 单文件处理结果（按发现顺序收集）。
type fileResult struct {
	id   contract.FileID
	segs []segment
}

// Build 执行 发现 → 宽松读取 → 清洗 → 切分 → 打标记 → 洗牌 → 人名替换 → 90/10 划分。
// 无合格片段时返回 contract.ErrEmptyCorpus。
func Build(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (contract.Split, error) {
	if err := sanity(comp, &set); err != nil {
		return contract.Split{}, fmt.Errorf("sanity: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(set.Concurrency)
	var results []*fileResult

	rtimer := logger.Start("reader", "iterate")
	ierr := comp.Reader.Iterate(gctx, set.Inputs, func(fid contract.FileID, rc io.ReadCloser) error {
		text, err := readText(rc)
		if err != nil {
			code := diag.RecordError("reader", err)
			logger.ErrorWith("reader", string(code), "read failed", nil, string(fid))
			return fmt.Errorf("read %s: %w", fid, err)
		}
		slot := &fileResult{id: fid}
		results = append(results, slot)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			slot.segs = processFile(fid, text, comp.Segmenter, set.MinChars, logger)
			if t := diag.GetTerminal(); t != nil {
				t.FileFinish(string(fid), len(slot.segs), true, time.Since(start))
			}
			return nil
		})
		return nil
	})
	// 先等待已派发任务，避免泄漏
	werr := g.Wait()
	if ierr != nil {
		code := diag.RecordError("reader", ierr)
		logger.Error("reader", string(code), ierr.Error(), rtimer.Since())
		return contract.Split{}, fmt.Errorf("reader iterate: %w", ierr)
	}
	if werr != nil {
		diag.RecordError("pipeline", werr)
		return contract.Split{}, werr
	}
	rtimer.Finish("iterate", int64(len(results)))
	diag.IncOp("reader", "finish", "success")
	diag.AddItems("files", len(results))

	var pool []segment
	for _, r := range results {
		pool = append(pool, r.segs...)
	}
	diag.AddItems("segments", len(pool))
	if len(pool) == 0 {
		return contract.Split{}, contract.ErrEmptyCorpus
	}

	stimer := logger.StartWithKV("shuffle", "shuffle", "", map[string]string{"seeded": strconv.FormatBool(set.ShuffleSeed != nil)})
	shuffle(pool, set.ShuffleSeed)
	stimer.Finish("shuffle", int64(len(pool)))

	ntimer := logger.StartWithKV("sanitizer", "scrub_names", "", map[string]string{"names": strconv.Itoa(set.Names.Len())})
	recs := make([]contract.Record, len(pool))
	for i, s := range pool {
		recs[i] = contract.Record{Text: s.Tag.Marker() + set.Names.Scrub(s.Content)}
	}
	ntimer.Finish("scrub_names", int64(len(recs)))

	split := contract.Partition(recs)
	logger.Info("pipeline", "partition", map[string]string{
		"train": strconv.Itoa(len(split.Train)),
		"val":   strconv.Itoa(len(split.Val)),
	})
	return split, nil
}

// Run 执行 Build 并将 train/val 以 Assembler 编码、Writer 落盘。
// 空语料：告警并不写出任何文件，返回 contract.ErrEmptyCorpus（调用方视为正常完成）。
// Val 为空时仍写出空文件。
func Run(ctx context.Context, comp Components, set Settings, logger *diag.Logger) (contract.Split, error) {
	if comp.Assembler == nil || comp.Writer == nil {
		return contract.Split{}, errors.New("sanity: pipeline: missing components")
	}
	split, err := Build(ctx, comp, set, logger)
	if errors.Is(err, contract.ErrEmptyCorpus) {
		logger.Warn("pipeline", string(diag.CodeEmpty), "no qualifying segments; nothing written", map[string]string{
			"min_chars": strconv.Itoa(set.MinChars),
		})
		return contract.Split{}, err
	}
	if err != nil {
		return contract.Split{}, err
	}
	if err := persist(ctx, comp, set.TrainFile, split.Train, logger); err != nil {
		return split, err
	}
	if err := persist(ctx, comp, set.ValFile, split.Val, logger); err != nil {
		return split, err
	}
	diag.AddItems("records", split.Len())
	return split, nil
}

// persist: Assembler → Writer。
func persist(ctx context.Context, comp Components, id contract.ArtifactID, recs []contract.Record, logger *diag.Logger) error {
	atimer := logger.StartWith("assembler", "assemble", string(id))
	r, err := comp.Assembler.Assemble(ctx, recs)
	if err != nil {
		code := diag.RecordError("assembler", err)
		logger.ErrorWith("assembler", string(code), "assemble failed", atimer.Since(), string(id))
		return fmt.Errorf("assembler assemble: %w", err)
	}
	atimer.Finish("assemble", int64(len(recs)))
	diag.IncOp("assembler", "finish", "success")

	wtimer := logger.StartWith("writer", "write", string(id))
	if err := comp.Writer.Write(ctx, id, r); err != nil {
		code := diag.RecordError("writer", err)
		logger.ErrorWith("writer", string(code), "write failed", wtimer.Since(), string(id))
		return fmt.Errorf("writer write: %w", err)
	}
	wtimer.Finish("write", int64(len(recs)))
	diag.IncOp("writer", "finish", "success")
	return nil
}

// processFile: 清洗 → 长度门槛 → 切分 → 片段门槛。纯函数（仅日志旁路）。
func processFile(fid contract.FileID, raw string, seg contract.Segmenter, minChars int, logger *diag.Logger) []segment {
	cleaned := sanitize.Clean(raw)
	if utf8.RuneCountInString(cleaned) < minChars {
		logger.DebugStart("sanitizer", "file below min_chars", string(fid), map[string]string{
			"chars": strconv.Itoa(utf8.RuneCountInString(cleaned)),
		})
		return nil
	}
	tag := contract.DetectContextTag(string(fid))
	parts := seg.Segment(cleaned)
	out := make([]segment, 0, len(parts))
	for _, p := range parts {
		if utf8.RuneCountInString(p) < minChars {
			continue
		}
		out = append(out, segment{Tag: tag, Content: p})
	}
	logger.DebugStart("splitter", "segmented", string(fid), map[string]string{
		"tag":      string(tag),
		"segments": strconv.Itoa(len(parts)),
		"kept":     strconv.Itoa(len(out)),
	})
	return out
}

// readText 宽松读取全文：去除 UTF-8 BOM，非法字节替换为 U+FFFD；总是关闭 rc。
func readText(rc io.ReadCloser) (string, error) {
	defer rc.Close()
	b, err := io.ReadAll(transform.NewReader(rc, unicode.UTF8BOM.NewDecoder()))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func shuffle(pool []segment, seed *int64) {
	s := time.Now().UnixNano()
	if seed != nil {
		s = *seed
	}
	rng := rand.New(rand.NewSource(s))
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
}

func sanity(c Components, s *Settings) error {
	if c.Reader == nil || c.Segmenter == nil {
		return errors.New("pipeline: missing components")
	}
	if s.Concurrency < 1 {
		s.Concurrency = 1
	}
	if s.MinChars < 0 {
		s.MinChars = 0
	}
	if len(s.Inputs) == 0 {
		return errors.New("pipeline: empty inputs")
	}
	return nil
}
