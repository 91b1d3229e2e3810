package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"bytecorpus/pkg/contract"
)

// namesFile: 人名忽略表文件结构；其他键忽略。
type namesFile struct {
	ManualNames []string `json:"manual_names"`
}

// LoadNames 读取人名忽略表。
// - 文件不存在：返回 nil 与 contract.ErrConfigMissing（调用方告警后以空集合继续）；
// - 文件存在但非法 JSON：返回错误（配置失败）；
// - 名字去首尾空白、小写、去重，保持首次出现顺序。
func LoadNames(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: names file not set", contract.ErrConfigMissing)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", contract.ErrConfigMissing, path)
		}
		return nil, err
	}
	var nf namesFile
	if err := json.Unmarshal(b, &nf); err != nil {
		return nil, fmt.Errorf("names file %s: %w", path, err)
	}
	seen := make(map[string]struct{}, len(nf.ManualNames))
	var out []string
	for _, n := range nf.ManualNames {
		n = strings.ToLower(strings.TrimSpace(n))
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}
