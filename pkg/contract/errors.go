package contract

import "errors"

// 最小错误分类（用于上层策略判定与退出码映射）。
var (
	// ErrEmptyCorpus: 构建时无任何合格片段，或组批时语料无记录。
	ErrEmptyCorpus = errors.New("empty corpus")
	// ErrNoSequences: 语料有记录，但没有任何记录能切出完整窗口。
	ErrNoSequences = errors.New("no sequences")
	// ErrInvalidInput: 参数越界（如 seq_len < 2）。
	ErrInvalidInput = errors.New("invalid input")
	// ErrRecordInvalid: 持久化记录无法解析。
	ErrRecordInvalid = errors.New("record invalid")
	// ErrConfigMissing: 可选配置文件缺失（调用方降级处理并告警）。
	ErrConfigMissing = errors.New("config missing")
	// ErrPathInvalid: 目标标识映射为无效/越界路径（例如绝对路径或 '..' 逃逸）。
	ErrPathInvalid = errors.New("path invalid")
	// ErrInvariantViolation: 领域不变量违例（通用哨兵）。
	ErrInvariantViolation = errors.New("invariant violation")
)
