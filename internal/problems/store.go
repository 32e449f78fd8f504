package problems

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/praxislearn/praxis/internal/perr"
	"go.uber.org/zap"
)

// HashStatement fingerprints a problem statement for duplicate detection.
func HashStatement(statement string) string {
	sum := sha256.Sum256([]byte(statement))
	return hex.EncodeToString(sum[:])
}

// Store persists problems as JSON files under <dataDir>/problems, with
// generated problems in an autogen/ subdirectory.
type Store struct {
	mu     sync.RWMutex
	dir    string
	logger *zap.Logger
}

func NewStore(dataDir string, logger *zap.Logger) *Store {
	return &Store{
		dir:    filepath.Join(dataDir, "problems"),
		logger: logger,
	}
}

// LoadAll returns every parseable problem from the main directory and the
// autogen subdirectory. Corrupt files are logged and skipped; a missing
// directory yields an empty set, which upstream treats as "generate more".
func (s *Store) LoadAll() []Problem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var problems []Problem
	problems = append(problems, s.loadDir(s.dir)...)
	problems = append(problems, s.loadDir(filepath.Join(s.dir, "autogen"))...)
	return problems
}

func (s *Store) loadDir(dir string) []Problem {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var problems []Problem
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Warn("Failed to read problem file", zap.String("path", path), zap.Error(err))
			continue
		}
		var p Problem
		if err := json.Unmarshal(data, &p); err != nil {
			s.logger.Warn("Failed to parse problem file", zap.String("path", path), zap.Error(err))
			continue
		}
		problems = append(problems, p)
	}
	return problems
}

// StatementHashes returns the statement fingerprints of every stored problem.
func (s *Store) StatementHashes() map[string]bool {
	hashes := make(map[string]bool)
	for _, p := range s.LoadAll() {
		hashes[HashStatement(p.Statement)] = true
	}
	return hashes
}

// SaveAutogen persists a generated problem under autogen/.
func (s *Store) SaveAutogen(p *Problem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.dir, "autogen")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return perr.Newf(perr.StageIO, "failed to create autogen directory: %v", err).
			WithContext("path: " + dir)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return perr.Newf(perr.StageSerialize, "failed to serialize problem: %v", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d_%s.json", time.Now().Unix(), p.Topic))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return perr.Newf(perr.StageIO, "failed to write problem file: %v", err).
			WithContext("path: " + path)
	}
	return nil
}
