//go:build !windows

package filesystem

import (
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
)

// TestWalkDirNonRegular 非常规文件被忽略 (Unix only - uses mkfifo)
func TestWalkDirNonRegular(t *testing.T) {
	root := t.TempDir()
	if err := syscall.Mkfifo(filepath.Join(root, "pipe.txt"), 0o644); err != nil {
		t.Fatalf("mkfifo: %v", err)
	}
	ids, err := collect(t, New(nil), []string{root})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("non-regular should skip, visited %#v", ids)
	}
}

// TestIterateSymlinkFile 指向常规文件的符号链接被读取 (Unix only)
func TestIterateSymlinkFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "t.dat")
	writeFile(t, target, "ok")
	link := filepath.Join(dir, "l.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlink: %v", err)
	}
	ids, err := collect(t, New(nil), []string{dir})
	if err != nil || len(ids) != 1 || !strings.HasSuffix(ids[0], "l.txt") {
		t.Fatalf("symlink not visited: %v %#v", err, ids)
	}
}

// TestWalkDirSymlinkDir 遍历目录时不跟随指向目录的符号链接 (Unix only)
func TestWalkDirSymlinkDir(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	writeFile(t, filepath.Join(sub, "ok.txt"), "o")
	if err := os.Symlink(sub, filepath.Join(root, "sub_link")); err != nil {
		t.Skipf("symlink: %v", err)
	}
	ids, err := collect(t, New(nil), []string{root})
	if err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if len(ids) != 1 || filepath.Base(ids[0]) != "ok.txt" || strings.Contains(ids[0], "sub_link") {
		t.Fatalf("unexpected files %#v", ids)
	}
}

// TestIterateSymlinkDangling 失效的 .txt 符号链接返回错误 (Unix only)
func TestIterateSymlinkDangling(t *testing.T) {
	dir := t.TempDir()
	if err := os.Symlink(filepath.Join(dir, "no"), filepath.Join(dir, "dangling.txt")); err != nil {
		t.Skipf("symlink: %v", err)
	}
	if _, err := collect(t, New(nil), []string{dir}); err == nil {
		t.Fatalf("expect error for dangling symlink")
	}
}
