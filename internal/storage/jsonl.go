package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"reliquaryScope/internal/model"
)

// JsonlStorage appends pool metrics samples to a JSONL file.
type JsonlStorage struct {
	path string
	mu   sync.Mutex
}

func NewJsonlStorage(path string) *JsonlStorage {
	return &JsonlStorage{path: path}
}

// WritePoolMetrics appends a batch of samples as JSON lines.
func (s *JsonlStorage) WritePoolMetrics(_ context.Context, samples []model.PoolMetrics) error {
	if len(samples) == 0 {
		return nil
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, sample := range samples {
		line, err := json.Marshal(sample)
		if err != nil {
			return fmt.Errorf("marshal pool metrics: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write pool metrics: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	return nil
}
