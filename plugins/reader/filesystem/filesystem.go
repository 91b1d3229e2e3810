package filesystem

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yargevad/filepathx"

	"bytecorpus/pkg/contract"
)

// Options 为 FileSystem Reader 的可选配置（最小必要）。
type Options struct {
	// BufSize 为读缓冲区大小（字节）。默认 64KiB。
	BufSize int `json:"buf_size"`
	// ExcludeDirNames: 递归扫描时跳过路径中含这些目录名的文件（基名完全匹配，大小写不敏感）。
	// 仅影响目录递归，不影响单文件 root。
	ExcludeDirNames []string `json:"exclude_dir_names"`
	// Exts: 目录递归时接受的扩展名（大小写不敏感，含点）。为空时默认 [".txt"]。
	Exts []string `json:"exts"`
}

// FileSystem 实现基于文件系统与 STDIN 的 Reader。
type FileSystem struct {
	bufSize    int
	excludeDir map[string]struct{}
	exts       map[string]struct{}
}

// StdinID 为 STDIN 输入的 FileID（标签推导为 generic）。
const StdinID contract.FileID = "stdin"

// New 创建 FileSystem Reader。
func New(opts *Options) *FileSystem {
	const defaultBuf = 64 * 1024
	b := defaultBuf
	if opts != nil && opts.BufSize > 0 {
		b = opts.BufSize
	}
	ex := make(map[string]struct{})
	exts := map[string]struct{}{}
	if opts != nil {
		for _, name := range opts.ExcludeDirNames {
			if name = strings.Trim(name, `/\`); name != "" {
				ex[strings.ToLower(name)] = struct{}{}
			}
		}
		for _, e := range opts.Exts {
			if e == "" {
				continue
			}
			if !strings.HasPrefix(e, ".") {
				e = "." + e
			}
			exts[strings.ToLower(e)] = struct{}{}
		}
	}
	if len(exts) == 0 {
		exts[".txt"] = struct{}{}
	}
	return &FileSystem{bufSize: b, excludeDir: ex, exts: exts}
}

// Iterate 遍历 roots，按稳定顺序对每个匹配文件调用 yield。
// 支持 roots 为空或仅包含 "-" 作为 STDIN。
func (r *FileSystem) Iterate(ctx context.Context, roots []string, yield func(fileID contract.FileID, rc io.ReadCloser) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(roots) == 0 || (len(roots) == 1 && roots[0] == "-") {
		return yield(StdinID, newBufferedCloser(os.Stdin, r.bufSize))
	}
	for _, s := range roots {
		if s == "-" {
			return errors.New("stdin '-' cannot be mixed with other roots")
		}
	}
	for _, root := range roots {
		if err := r.iterateOne(ctx, root, yield); err != nil {
			return err
		}
	}
	return nil
}

func (r *FileSystem) iterateOne(ctx context.Context, root string, yield func(contract.FileID, io.ReadCloser) error) error {
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if info.IsDir() {
		files, err := r.discover(root)
		if err != nil {
			return err
		}
		for _, p := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := r.open(p, yield); err != nil {
				return err
			}
		}
		return nil
	}
	if !info.Mode().IsRegular() {
		return nil
	}
	return r.open(root, yield)
}

// discover 递归收集 dir 下所有匹配扩展名的常规文件，字典序返回。
// 目录符号链接不跟随；指向常规文件的符号链接保留。
func (r *FileSystem) discover(dir string) ([]string, error) {
	// 单段展开：根经 Glob 字面匹配后由 filepath.Walk 递归，命中路径不再二次 Glob，
	// 因而文件名中的 [ * ? 不会被当作通配符。Walk 不跟随嵌套的目录符号链接。
	// 根不含元字符时保留结尾分隔符，使根目录本身为符号链接时也能进入。
	pattern := escapeGlob(dir)
	if pattern == dir {
		pattern += string(filepath.Separator)
	}
	all, err := filepathx.Globs{pattern}.Expand()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, p := range all {
		if _, ok := r.exts[strings.ToLower(filepath.Ext(p))]; !ok {
			continue
		}
		if r.excluded(dir, p) {
			continue
		}
		st, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !st.Mode().IsRegular() {
			continue
		}
		out = append(out, p)
	}
	sort.Strings(out)
	return out, nil
}

// escapeGlob 转义 Glob 元字符，使路径按字面匹配。
// 使用字符类而非反斜杠，Windows 下反斜杠是路径分隔符。
func escapeGlob(p string) string {
	if !strings.ContainsAny(p, `*?[\`) {
		return p
	}
	var b strings.Builder
	b.Grow(len(p) + 8)
	for _, c := range p {
		switch {
		case c == '*' || c == '?' || c == '[':
			b.WriteByte('[')
			b.WriteRune(c)
			b.WriteByte(']')
		case c == '\\' && filepath.Separator != '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// excluded 判断 p 相对 root 的目录部分是否包含被排除的目录名。
func (r *FileSystem) excluded(root, p string) bool {
	if len(r.excludeDir) == 0 {
		return false
	}
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	parts := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	for _, d := range parts {
		if _, skip := r.excludeDir[strings.ToLower(d)]; skip {
			return true
		}
	}
	return false
}

func (r *FileSystem) open(p string, yield func(contract.FileID, io.ReadCloser) error) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	brc := newBufferedCloser(f, r.bufSize)
	if err := yield(contract.NormalizeFileID(p), brc); err != nil {
		_ = brc.Close()
		return err
	}
	return nil
}

// bufferedCloser 将 bufio.Reader 与底层 Closer 组合为 ReadCloser。
type bufferedCloser struct {
	*bufio.Reader
	c io.Closer
}

func newBufferedCloser(c io.ReadCloser, bufSize int) *bufferedCloser {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &bufferedCloser{Reader: bufio.NewReaderSize(c, bufSize), c: c}
}

func (b *bufferedCloser) Close() error { return b.c.Close() }
