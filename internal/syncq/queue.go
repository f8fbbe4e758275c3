package syncq

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Command is one CLI action that could not reach the API. It is replayed
// verbatim by `dlr sync`.
type Command struct {
	Method         string         `json:"method"`
	Path           string         `json:"path"`
	Body           map[string]any `json:"body,omitempty"`
	IdempotencyKey string         `json:"idempotency_key"`
}

type Queue struct {
	mu   sync.Mutex
	path string
}

// DefaultDir is ~/.dlr, or $DLR_HOME when set.
func DefaultDir() (string, error) {
	if dir := os.Getenv("DLR_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".dlr"), nil
}

func Open(dir string) (*Queue, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create queue dir: %w", err)
	}
	return &Queue{path: filepath.Join(dir, "queue.json")}, nil
}

func (q *Queue) Load() ([]Command, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load()
}

func (q *Queue) load() ([]Command, error) {
	raw, err := os.ReadFile(q.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Command{}, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return []Command{}, nil
	}
	var out []Command
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode queue: %w", err)
	}
	return out, nil
}

func (q *Queue) Save(commands []Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.save(commands)
}

func (q *Queue) save(commands []Command) error {
	raw, err := json.MarshalIndent(commands, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(q.path, raw, 0o600)
}

func (q *Queue) Push(cmd Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	commands, err := q.load()
	if err != nil {
		return err
	}
	return q.save(append(commands, cmd))
}

// Drop removes the commands whose keys are in done and keeps the rest in
// their original order.
func (q *Queue) Drop(done map[string]bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	commands, err := q.load()
	if err != nil {
		return err
	}
	kept := commands[:0]
	for _, c := range commands {
		if !done[c.IdempotencyKey] {
			kept = append(kept, c)
		}
	}
	return q.save(kept)
}
