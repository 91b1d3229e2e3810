package filesystem

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"bytecorpus/pkg/contract"
)

// 支持的传输压缩。
const (
	CompressNone = ""
	CompressZstd = "zstd"
	// ZstdExt 为压缩工件追加的后缀。
	ZstdExt = ".zst"
)

// Options: 最小必要选项。
type Options struct {
	// OutputDir: 输出根目录（必需）。
	OutputDir string `json:"output_dir"`
	// Atomic: 是否使用原子替换（同目录临时文件 + rename）。默认 true。
	Atomic *bool `json:"atomic,omitempty"`
	// Flat: 是否扁平化输出（仅保留文件名）。默认 true。
	Flat *bool `json:"flat,omitempty"`
	// PermFile/PermDir: 可选权限；为 0 表示使用默认。
	PermFile os.FileMode `json:"perm_file,omitempty"`
	PermDir  os.FileMode `json:"perm_dir,omitempty"`
	// BufSize: 写缓冲区大小；<=0 使用默认。
	BufSize int `json:"buf_size,omitempty"`
	// Compress: "" 不压缩；"zstd" 以 zstd 帧写出并追加 .zst 后缀。
	Compress string `json:"compress,omitempty"`
	// Level: zstd 压缩级别 1..4（fastest..best）；0 表示默认。
	Level int `json:"level,omitempty"`
}

// FS 为文件系统 Writer。
type FS struct {
	root     string
	atomic   bool
	flat     bool
	permF    os.FileMode
	permD    os.FileMode
	bufSize  int
	compress string
	level    zstd.EncoderLevel
}

// New 创建文件系统 Writer 实现。
func New(opts *Options) (*FS, error) {
	if opts == nil || strings.TrimSpace(opts.OutputDir) == "" {
		return nil, os.ErrInvalid
	}
	w := &FS{root: opts.OutputDir, atomic: true, flat: true, permF: 0o644, permD: 0o755, bufSize: 64 * 1024, level: zstd.SpeedDefault}
	if opts.BufSize > 0 {
		w.bufSize = opts.BufSize
	}
	if opts.PermFile != 0 {
		w.permF = opts.PermFile
	}
	if opts.PermDir != 0 {
		w.permD = opts.PermDir
	}
	if opts.Flat != nil {
		w.flat = *opts.Flat
	}
	if opts.Atomic != nil {
		w.atomic = *opts.Atomic
	}
	switch c := strings.ToLower(strings.TrimSpace(opts.Compress)); c {
	case CompressNone, CompressZstd:
		w.compress = c
	default:
		return nil, fmt.Errorf("unsupported compress %q: %w", opts.Compress, os.ErrInvalid)
	}
	if opts.Level != 0 {
		if opts.Level < int(zstd.SpeedFastest) || opts.Level > int(zstd.SpeedBestCompression) {
			return nil, fmt.Errorf("zstd level %d out of range: %w", opts.Level, os.ErrInvalid)
		}
		w.level = zstd.EncoderLevel(opts.Level)
	}
	return w, nil
}

var _ contract.Writer = (*FS)(nil)

// Write 将 r 的全部字节写入到基于 id 映射的目标路径。
func (w *FS) Write(ctx context.Context, id contract.ArtifactID, r io.Reader) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dest, err := w.Path(id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), w.permD); err != nil {
		return err
	}
	if w.atomic {
		return w.writeAtomic(ctx, dest, r)
	}
	return w.writeOverwrite(ctx, dest, r)
}

// Path 返回 id 映射后的最终落盘路径（含压缩后缀）。
func (w *FS) Path(id contract.ArtifactID) (string, error) {
	p, err := w.mapPath(id)
	if err != nil {
		return "", err
	}
	if w.compress == CompressZstd && !strings.EqualFold(filepath.Ext(p), ZstdExt) {
		p += ZstdExt
	}
	return p, nil
}

// mapPath: Clean + Join + 越界校验。
func (w *FS) mapPath(id contract.ArtifactID) (string, error) {
	rel := filepath.Clean(string(id))
	if w.flat {
		rel = filepath.Base(rel)
		if rel == "." || rel == ".." || rel == "" || rel == string(filepath.Separator) {
			return "", contract.ErrPathInvalid
		}
		return filepath.Join(w.root, rel), nil
	}
	// 非扁平：禁止绝对路径、父级逃逸、Windows 卷名
	if rel == "." || rel == "" || filepath.IsAbs(rel) || filepath.VolumeName(rel) != "" {
		return "", contract.ErrPathInvalid
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", contract.ErrPathInvalid
	}
	return filepath.Join(w.root, rel), nil
}

// copyTo 将 r 经缓冲（与可选压缩）写入 dst，并完成 flush。
func (w *FS) copyTo(ctx context.Context, dst io.Writer, r io.Reader) error {
	bw := bufio.NewWriterSize(dst, w.bufSize)
	src := readerWithCtx(ctx, r)
	if w.compress == CompressZstd {
		zw, err := zstd.NewWriter(bw, zstd.WithEncoderLevel(w.level))
		if err != nil {
			return err
		}
		if _, err := io.Copy(zw, src); err != nil {
			_ = zw.Close()
			return err
		}
		if err := zw.Close(); err != nil {
			return err
		}
		return bw.Flush()
	}
	if _, err := io.Copy(bw, src); err != nil {
		return err
	}
	return bw.Flush()
}

func (w *FS) writeOverwrite(ctx context.Context, dest string, r io.Reader) error {
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, w.permF)
	if err != nil {
		return err
	}
	if err := w.copyTo(ctx, f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func (w *FS) writeAtomic(ctx context.Context, dest string, r io.Reader) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, w.permF)

	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := w.copyTo(ctx, tmp, r); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := osReplace(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// 最佳努力：同步父目录
	_ = syncDir(dir)
	return nil
}

// readerWithCtx: 在每次 Read 前检查 ctx 是否已取消。
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
