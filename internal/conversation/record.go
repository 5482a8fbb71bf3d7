package conversation

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"
)

// Record is the ordered, in-memory conversation for one session. Turns are
// delimited by BeginTurn; within a completed turn every assistant tool call
// has exactly one corresponding tool-role result message.
type Record struct {
	Key string

	mu        sync.RWMutex
	messages  []*schema.Message
	turnStart int
}

// BeginTurn marks the start of a new turn.
func (r *Record) BeginTurn() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.turnStart = len(r.messages)
}

// Append adds messages to the record.
func (r *Record) Append(msgs ...*schema.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, msgs...)
}

// Messages returns a copy of the full record.
func (r *Record) Messages() []*schema.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*schema.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// History returns the last limit messages (all of them when limit <= 0).
func (r *Record) History(limit int) []*schema.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.messages) {
		limit = len(r.messages)
	}
	start := len(r.messages) - limit
	out := make([]*schema.Message, limit)
	copy(out, r.messages[start:])
	return out
}

// CloseInterrupted patches the current turn so every dangling tool call gets
// a synthetic result carrying note. Returns how many results were inserted.
// Safe to call more than once; an already-closed turn is left untouched.
func (r *Record) CloseInterrupted(note string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	prior := r.messages[:r.turnStart]
	patched, inserted := Patch(r.messages[r.turnStart:], note)
	if inserted == 0 {
		return 0
	}
	r.messages = append(append([]*schema.Message{}, prior...), patched...)
	return inserted
}

// Manager owns the records of all sessions and persists them as JSONL under
// <baseDir>/conversations.
type Manager struct {
	dir     string
	records map[string]*Record
	mu      sync.Mutex
}

// NewManager creates a conversation manager rooted at baseDir.
func NewManager(baseDir string) *Manager {
	dir := filepath.Join(baseDir, "conversations")
	os.MkdirAll(dir, 0755)
	return &Manager{
		dir:     dir,
		records: make(map[string]*Record),
	}
}

// GetOrCreate returns the record for key, loading it from disk on first use.
func (m *Manager) GetOrCreate(key string) *Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[key]; ok {
		return rec
	}

	rec := &Record{Key: key}
	m.loadFromDisk(rec)
	rec.turnStart = len(rec.messages)
	m.records[key] = rec
	return rec
}

// Save persists a record to disk.
func (m *Manager) Save(rec *Record) error {
	rec.mu.RLock()
	defer rec.mu.RUnlock()

	if len(rec.messages) == 0 {
		return nil
	}

	f, err := os.OpenFile(m.recordPath(rec.Key), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, msg := range rec.messages {
		if err := enc.Encode(msg); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) loadFromDisk(rec *Record) {
	f, err := os.Open(m.recordPath(rec.Key))
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var msg schema.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err == nil {
			rec.messages = append(rec.messages, &msg)
		}
	}
}

func (m *Manager) recordPath(key string) string {
	safeKey := strings.NewReplacer(":", "_", "/", "_", "\\", "_").Replace(key)
	return filepath.Join(m.dir, safeKey+".jsonl")
}
