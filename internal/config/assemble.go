package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"bytecorpus/internal/batch"
	"bytecorpus/internal/pipeline"
	"bytecorpus/pkg/contract"
	"bytecorpus/pkg/registry"
)

// Validate 对构建/计数所需的最小边界做静态校验。
func Validate(cfg Config) error {
	if len(cfg.Inputs) == 0 {
		return errors.New("config: inputs empty")
	}
	// 输入路径不得为空字符串；"-" 不能与其他根混用
	dash := false
	for _, r := range cfg.Inputs {
		if strings.TrimSpace(r) == "" {
			return errors.New("config: input path cannot be empty")
		}
		if strings.TrimSpace(r) == "-" {
			dash = true
		}
	}
	if dash && len(cfg.Inputs) > 1 {
		return errors.New("config: '-' cannot be mixed with other roots")
	}
	if cfg.Concurrency < 1 {
		return errors.New("config: concurrency must be >= 1")
	}
	if cfg.Corpus.MinChars < 0 {
		return errors.New("config: corpus.min_chars must be >= 0")
	}
	if cfg.Corpus.TrainFile == "" || cfg.Corpus.ValFile == "" {
		return errors.New("config: corpus.train_file/val_file must be set")
	}
	if cfg.Corpus.TrainFile == cfg.Corpus.ValFile {
		return errors.New("config: corpus.train_file and val_file must differ")
	}
	// 组件名若为空，使用默认名（由 Defaults() 提供）。此处只要最终有值即可。
	if name := effName(cfg.Components.Reader, Defaults().Components.Reader); registry.Reader[name] == nil {
		return fmt.Errorf("config: reader %q not registered", name)
	}
	if name := effName(cfg.Components.Splitter, Defaults().Components.Splitter); registry.Splitter[name] == nil {
		return fmt.Errorf("config: splitter %q not registered", name)
	}
	if name := effName(cfg.Components.Assembler, Defaults().Components.Assembler); registry.Assembler[name] == nil {
		return fmt.Errorf("config: assembler %q not registered", name)
	}
	if name := effName(cfg.Components.Writer, Defaults().Components.Writer); registry.Writer[name] == nil {
		return fmt.Errorf("config: writer %q not registered", name)
	}
	return nil
}

// ValidateBatch 校验组批参数；不要求 inputs。
func ValidateBatch(cfg Config) error {
	if cfg.Batch.SeqLen < 2 {
		return fmt.Errorf("%w: batch.seq_len must be >= 2", contract.ErrInvalidInput)
	}
	if cfg.Batch.BatchSize < 1 {
		return fmt.Errorf("%w: batch.batch_size must be >= 1", contract.ErrInvalidInput)
	}
	if cfg.Batch.Preview != nil && *cfg.Batch.Preview < 0 {
		return errors.New("config: batch.preview must be >= 0")
	}
	if name := effName(cfg.Components.Decoder, Defaults().Components.Decoder); registry.Decoder[name] == nil {
		return fmt.Errorf("config: decoder %q not registered", name)
	}
	if cfg.Batch.Records == "" {
		if name := effName(cfg.Components.Writer, Defaults().Components.Writer); registry.Writer[name] == nil {
			return fmt.Errorf("config: writer %q not registered", name)
		}
	}
	return nil
}

// Assemble 构造构建期 Components 与 Settings。
// 严格 Options 解析在 registry （工厂）层进行；此处只传 raw JSON。
// 人名替换器由调用方按 LoadNames 结果注入（Settings.Names）。
func Assemble(cfg Config) (pipeline.Components, pipeline.Settings, error) {
	if err := Validate(cfg); err != nil {
		return pipeline.Components{}, pipeline.Settings{}, err
	}

	// 有效名称
	d := Defaults()
	rn := effName(cfg.Components.Reader, d.Components.Reader)
	sn := effName(cfg.Components.Splitter, d.Components.Splitter)
	an := effName(cfg.Components.Assembler, d.Components.Assembler)
	wn := effName(cfg.Components.Writer, d.Components.Writer)

	// 构造实例
	r, err := registry.Reader[rn](cfg.Options.Reader)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("reader options: %w", err)
	}
	s, err := registry.Splitter[sn](cfg.Options.Splitter)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("splitter options: %w", err)
	}
	asm, err := registry.Assembler[an](cfg.Options.Assembler)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("assembler options: %w", err)
	}
	w, err := registry.Writer[wn](cfg.Options.Writer)
	if err != nil {
		return pipeline.Components{}, pipeline.Settings{}, fmt.Errorf("writer options: %w", err)
	}

	comp := pipeline.Components{
		Reader:    r,
		Segmenter: s,
		Assembler: asm,
		Writer:    w,
	}
	set := pipeline.Settings{
		Inputs:      cloneStrings(cfg.Inputs),
		Concurrency: cfg.Concurrency,
		MinChars:    cfg.Corpus.MinChars,
		ShuffleSeed: cloneInt64(cfg.Corpus.ShuffleSeed),
		TrainFile:   contract.ArtifactID(cfg.Corpus.TrainFile),
		ValFile:     contract.ArtifactID(cfg.Corpus.ValFile),
	}
	return comp, set, nil
}

// AssembleCount 仅构造计数所需的 Reader。
func AssembleCount(cfg Config) (contract.Reader, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	rn := effName(cfg.Components.Reader, Defaults().Components.Reader)
	r, err := registry.Reader[rn](cfg.Options.Reader)
	if err != nil {
		return nil, fmt.Errorf("reader options: %w", err)
	}
	return r, nil
}

// pather: 可将产物 ID 映射为落盘路径的 Writer（如 fs）。
type pather interface {
	Path(id contract.ArtifactID) (string, error)
}

// AssembleBatch 构造组批所需 Decoder、Settings 与语料路径。
// batch.records 为空时，经 Writer 解析 corpus.train_file 的实际输出路径。
func AssembleBatch(cfg Config) (contract.Decoder, batch.Settings, string, error) {
	if err := ValidateBatch(cfg); err != nil {
		return nil, batch.Settings{}, "", err
	}
	d := Defaults()
	dn := effName(cfg.Components.Decoder, d.Components.Decoder)
	dec, err := registry.Decoder[dn](cfg.Options.Decoder)
	if err != nil {
		return nil, batch.Settings{}, "", fmt.Errorf("decoder options: %w", err)
	}

	path := cfg.Batch.Records
	if path == "" {
		wn := effName(cfg.Components.Writer, d.Components.Writer)
		w, err := registry.Writer[wn](cfg.Options.Writer)
		if err != nil {
			return nil, batch.Settings{}, "", fmt.Errorf("writer options: %w", err)
		}
		train := effName(cfg.Corpus.TrainFile, d.Corpus.TrainFile)
		if p, ok := w.(pather); ok {
			if path, err = p.Path(contract.ArtifactID(train)); err != nil {
				return nil, batch.Settings{}, "", err
			}
		} else {
			path = filepath.FromSlash(train)
		}
	}

	set := batch.Settings{
		SeqLen:    cfg.Batch.SeqLen,
		BatchSize: cfg.Batch.BatchSize,
		AddBOS:    derefBool(cfg.Batch.AddBOS),
		AddEOS:    derefBool(cfg.Batch.AddEOS),
		Seed:      DefaultSeed,
	}
	if cfg.Batch.Seed != nil {
		set.Seed = *cfg.Batch.Seed
	}
	return dec, set, path, nil
}

// PreviewCount 返回预览条数（未设置取默认）。
func PreviewCount(cfg Config) int {
	if cfg.Batch.Preview == nil {
		return DefaultPreview
	}
	return *cfg.Batch.Preview
}

func derefBool(p *bool) bool { return p != nil && *p }

func effName(got, def string) string {
	if got == "" {
		return def
	}
	return got
}
