package batch

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"bytecorpus/internal/diag"
	"bytecorpus/pkg/contract"
)

// zstdMagic 为 zstd 帧头。
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// OpenRecords 打开语料文件；zstd 帧（魔数或 .zst 后缀）透明解压。
func OpenRecords(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	br := bufio.NewReaderSize(f, 64*1024)
	head, _ := br.Peek(len(zstdMagic))
	if !bytes.Equal(head, zstdMagic) && !strings.EqualFold(filepath.Ext(path), ".zst") {
		return &readCloser{Reader: br, closers: []func() error{f.Close}}, nil
	}
	zr, err := zstd.NewReader(br)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zstd %s: %w", path, err)
	}
	return &readCloser{Reader: zr, closers: []func() error{
		func() error { zr.Close(); return nil },
		f.Close,
	}}, nil
}

type readCloser struct {
	io.Reader
	closers []func() error
}

func (r *readCloser) Close() error {
	var first error
	for _, c := range r.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Load 读取并解码语料文件。
func Load(ctx context.Context, dec contract.Decoder, path string) ([]contract.Record, error) {
	rc, err := OpenRecords(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return dec.Decode(ctx, rc)
}

// Run 加载 path 并组批，记录日志与指标；logger 可为 nil。
func Run(ctx context.Context, dec contract.Decoder, path string, set Settings, logger *diag.Logger) (Batch, error) {
	if err := set.Validate(); err != nil {
		code := diag.RecordError("batch", err)
		logger.Error("batch", string(code), err.Error(), nil)
		return Batch{}, err
	}

	dtimer := logger.StartWith("decoder", "load", path)
	recs, err := Load(ctx, dec, path)
	if err != nil {
		code := diag.RecordError("decoder", err)
		logger.ErrorWith("decoder", string(code), err.Error(), dtimer.Since(), path)
		return Batch{}, fmt.Errorf("load records: %w", err)
	}
	dtimer.Finish("load", int64(len(recs)))
	diag.IncOp("decoder", "finish", "success")
	diag.AddItems("records", len(recs))

	btimer := logger.StartWithKV("batch", "make", path, map[string]string{
		"seq_len":    strconv.Itoa(set.SeqLen),
		"batch_size": strconv.Itoa(set.BatchSize),
		"seed":       strconv.FormatInt(set.Seed, 10),
	})
	start := time.Now()
	b, err := Make(ctx, recs, set)
	if err != nil {
		code := diag.RecordError("batch", err)
		logger.ErrorWith("batch", string(code), err.Error(), &start, path)
		return Batch{}, err
	}
	if b.Len() < set.BatchSize {
		logger.Warn("batch", string(diag.CodeEmpty), "corpus exhausted before batch_size", map[string]string{
			"got":  strconv.Itoa(b.Len()),
			"want": strconv.Itoa(set.BatchSize),
		})
	}
	btimer.Finish("make", int64(b.Len()))
	diag.IncOp("batch", "finish", "success")
	diag.AddItems("windows", b.Len())
	return b, nil
}
