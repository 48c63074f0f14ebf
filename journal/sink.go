package journal

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink 追加式记录输出。
type Sink interface {
	Meta(Meta) error
	Attempt(Attempt) error
	Fill(Fill) error
	Equity(Equity) error
	Mid(Mid) error
	Close() error
}

// 文件名
const (
	MetaFile     = "run_meta.json"
	AttemptsFile = "attempts.jsonl"
	FillsFile    = "fills.jsonl"
	EquityFile   = "equity.jsonl"
	MidsFile     = "mids.jsonl"
)

// FileSink 每个运行一个目录，每类记录一个 JSONL 文件。
type FileSink struct {
	dir      string
	attempts *Writer
	fills    *Writer
	equity   *Writer
	mids     *Writer
}

func NewFileSink(baseDir, runID string) (*FileSink, error) {
	dir := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("journal: create run dir: %w", err)
	}
	return &FileSink{
		dir:      dir,
		attempts: NewWriter(filepath.Join(dir, AttemptsFile)),
		fills:    NewWriter(filepath.Join(dir, FillsFile)),
		equity:   NewWriter(filepath.Join(dir, EquityFile)),
		mids:     NewWriter(filepath.Join(dir, MidsFile)),
	}, nil
}

// Dir 运行目录。
func (s *FileSink) Dir() string { return s.dir }

func (s *FileSink) Meta(m Meta) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, MetaFile), b, 0o644)
}

func (s *FileSink) Attempt(a Attempt) error { return s.attempts.Write(a) }
func (s *FileSink) Fill(f Fill) error       { return s.fills.Write(f) }
func (s *FileSink) Equity(e Equity) error   { return s.equity.Write(e) }
func (s *FileSink) Mid(m Mid) error         { return s.mids.Write(m) }

func (s *FileSink) Close() error {
	return errors.Join(s.attempts.Close(), s.fills.Close(), s.equity.Close(), s.mids.Close())
}

// Memory 内存记录，测试和短时评估使用。
type Memory struct {
	mu       sync.Mutex
	meta     []Meta
	attempts []Attempt
	fills    []Fill
	equity   []Equity
	mids     []Mid
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Meta(v Meta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meta = append(m.meta, v)
	return nil
}

func (m *Memory) Attempt(v Attempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, v)
	return nil
}

func (m *Memory) Fill(v Fill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fills = append(m.fills, v)
	return nil
}

func (m *Memory) Equity(v Equity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.equity = append(m.equity, v)
	return nil
}

func (m *Memory) Mid(v Mid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mids = append(m.mids, v)
	return nil
}

func (m *Memory) Close() error { return nil }

func (m *Memory) Attempts() []Attempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Attempt(nil), m.attempts...)
}

func (m *Memory) Fills() []Fill {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Fill(nil), m.fills...)
}

func (m *Memory) EquityRecords() []Equity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Equity(nil), m.equity...)
}

func (m *Memory) Mids() []Mid {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mid(nil), m.mids...)
}

func (m *Memory) Metas() []Meta {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Meta(nil), m.meta...)
}

// Discard 丢弃所有记录。
type Discard struct{}

func (Discard) Meta(Meta) error       { return nil }
func (Discard) Attempt(Attempt) error { return nil }
func (Discard) Fill(Fill) error       { return nil }
func (Discard) Equity(Equity) error   { return nil }
func (Discard) Mid(Mid) error         { return nil }
func (Discard) Close() error          { return nil }

// ReadEquity 读取 equity.jsonl；无法解析的行被跳过。
func ReadEquity(path string) ([]Equity, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []Equity
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var e Equity
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}
