package contract

// Segmenter: 将清洗后的文本切分为长度受限的话语片段。
// 约束：
// 1) 换行为硬边界，句末标点（. ! ?）后接空白为软边界；
// 2) 纯函数、无内部并发、幂等；
// 3) 长度按 Unicode 码点计；
// 4) 无内容时返回空切片。
type Segmenter interface {
	Segment(text string) []string
}
