// Package sessions persists one JSON file per completed learning session and
// derives simple success statistics from the history.
package sessions

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/praxislearn/praxis/internal/perr"
	"go.uber.org/zap"
)

// Record captures one proof-practice session end to end.
type Record struct {
	SessionID    string   `json:"session_id"`
	ProblemID    string   `json:"problem_id"`
	Skill        string   `json:"skill"`
	UserAttempt  string   `json:"user_attempt"`
	Issues       []string `json:"issues"`
	EvalSummary  string   `json:"eval_summary"`
	SkillBefore  float64  `json:"skill_before"`
	SkillAfter   float64  `json:"skill_after"`
	Difficulty   float64  `json:"difficulty"`
	Timestamp    int64    `json:"timestamp"`
}

// NewRecord returns a record with a fresh session id.
func NewRecord() Record {
	return Record{SessionID: uuid.NewString(), Difficulty: 0.5}
}

// Store persists records under <dataDir>/sessions, one file per session.
type Store struct {
	mu     sync.RWMutex
	dir    string
	logger *zap.Logger
}

func NewStore(dataDir string, logger *zap.Logger) *Store {
	return &Store{
		dir:    filepath.Join(dataDir, "sessions"),
		logger: logger,
	}
}

// Save writes one session record. An empty session id gets one assigned.
func (s *Store) Save(record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record.SessionID == "" {
		record.SessionID = uuid.NewString()
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return perr.Newf(perr.StageIO, "failed to create sessions directory: %v", err).
			WithContext("path: " + s.dir)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return perr.Newf(perr.StageSerialize, "failed to serialize session record: %v", err)
	}

	path := filepath.Join(s.dir, record.SessionID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return perr.Newf(perr.StageIO, "failed to write session file: %v", err).
			WithContext("path: " + path)
	}
	return nil
}

// LoadAll returns every parseable session record, oldest first. Unreadable or
// corrupt files are logged and skipped.
func (s *Store) LoadAll() ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, perr.Newf(perr.StageIO, "failed to read sessions directory: %v", err).
			WithContext("path: " + s.dir)
	}

	var records []Record
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("Failed to read session file", zap.String("path", path), zap.Error(err))
			continue
		}
		var rec Record
		if err := json.Unmarshal(data, &rec); err != nil {
			s.logger.Warn("Failed to parse session file", zap.String("path", path), zap.Error(err))
			continue
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Timestamp < records[j].Timestamp })
	return records, nil
}

// RecentSuccessRate returns the fraction of the last n sessions for a skill
// that look successful. With fewer than 3 sessions there is not enough signal
// and the neutral 0.5 is returned.
func (s *Store) RecentSuccessRate(skill string, n int) (float64, error) {
	all, err := s.LoadAll()
	if err != nil {
		return 0, err
	}

	var relevant []Record
	for _, rec := range all {
		if rec.Skill == skill {
			relevant = append(relevant, rec)
		}
	}
	if len(relevant) > n {
		relevant = relevant[len(relevant)-n:]
	}
	if len(relevant) < 3 {
		return 0.5, nil
	}

	correct := 0
	for _, rec := range relevant {
		eval := strings.ToLower(rec.EvalSummary)
		// 0.01 slack absorbs rounding in the skill bookkeeping.
		if !strings.Contains(eval, "incorrect") && !strings.Contains(eval, "fail") &&
			rec.SkillAfter >= rec.SkillBefore-0.01 {
			correct++
		}
	}
	return float64(correct) / float64(len(relevant)), nil
}
