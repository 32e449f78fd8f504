package skills

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/praxislearn/praxis/internal/perr"
	"go.uber.org/zap"
)

// Store persists the skill vector as a single JSON file under the data dir.
// A missing or unparseable file yields a fresh default vector rather than an
// error, so a corrupt file can never wedge the service.
type Store struct {
	mu     sync.RWMutex
	path   string
	logger *zap.Logger
}

func NewStore(dataDir string, logger *zap.Logger) *Store {
	return &Store{
		path:   filepath.Join(dataDir, "skills.json"),
		logger: logger,
	}
}

// Load reads the persisted vector, falling back to defaults.
func (s *Store) Load() *Vector {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		s.logger.Debug("No skills file, using defaults",
			zap.String("path", s.path), zap.Error(err))
		return NewVector()
	}

	var v Vector
	if err := json.Unmarshal(data, &v); err != nil || v.Skills == nil {
		s.logger.Warn("Failed to parse skills file, using defaults",
			zap.String("path", s.path), zap.Error(err))
		return NewVector()
	}
	return &v
}

// Save writes the vector atomically via a temp file rename.
func (s *Store) Save(v *Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return perr.Newf(perr.StageIO, "failed to create data directory: %v", err).
			WithContext("path: " + filepath.Dir(s.path))
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return perr.Newf(perr.StageSerialize, "failed to serialize skills: %v", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return perr.Newf(perr.StageIO, "failed to write skills file: %v", err).
			WithContext("path: " + tmp)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return perr.Newf(perr.StageIO, "failed to replace skills file: %v", err).
			WithContext("path: " + s.path)
	}
	return nil
}
