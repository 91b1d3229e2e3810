package contract

// FileID: 逻辑文档ID（通常为路径，需规范化，跨平台一致）。
type FileID string

// Record: 持久化语料的最小单元（JSONL 每行一个对象）。
// 约束：
// - Text 以 ContextTag 标记前缀开头（如 "<context:chat> "）；
// - 持久化后不可变；同一 split 内的顺序无语义。
type Record struct {
	Text string `json:"text"`
}

// Split: train/val 划分结果。
// Train 取前 max(1, floor(0.9·N)) 条，其余进入 Val（N=1 时 Val 为空）。
type Split struct {
	Train []Record
	Val   []Record
}

// Len 返回两侧记录总数。
func (s Split) Len() int { return len(s.Train) + len(s.Val) }

// TrainRatioNum/TrainRatioDen: 固定 90/10 划分比例（整数形式，避免浮点截断差异）。
const (
	TrainRatioNum = 9
	TrainRatioDen = 10
)

// Partition 按固定比例切分已打乱的记录；不复制底层数组。
func Partition(recs []Record) Split {
	n := len(recs)
	if n == 0 {
		return Split{}
	}
	cut := n * TrainRatioNum / TrainRatioDen
	if cut < 1 {
		cut = 1
	}
	return Split{Train: recs[:cut], Val: recs[cut:]}
}
