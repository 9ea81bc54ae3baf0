package store

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"

	"github.com/stridehq/stride/internal/goal"
)

// File store formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

const checksumSuffix = ".checksum"

// fileDocument is the on-disk shape of the flat-file backend.
type fileDocument struct {
	Version int          `json:"version" yaml:"version" toml:"version"`
	SavedAt time.Time    `json:"savedAt" yaml:"savedAt" toml:"savedAt"`
	Goals   []*goal.Goal `json:"goals" yaml:"goals" toml:"goals"`
	Edges   []*goal.Edge `json:"edges" yaml:"edges" toml:"edges"`
}

// FileStore keeps the whole graph in one flat file guarded by an advisory
// lock, with a SHA256 checksum sidecar to catch partial or corrupted writes.
// Every Apply reloads the file under the lock before merging, so several
// processes can share one workspace.
type FileStore struct {
	path   string
	format string
	flk    *flock.Flock
}

var _ Store = (*FileStore)(nil)

// NewFileStore opens the flat-file store at path, creating an empty document
// when none exists. Format is one of json, yaml, or toml; empty means json.
func NewFileStore(path, format string) (*FileStore, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatJSON
	}
	switch format {
	case FormatJSON, FormatYAML, FormatTOML:
	default:
		return nil, fmt.Errorf("unsupported file store format %q (supported: json, yaml, toml)", format)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	// The lock lives beside the data file. Saves replace the data file by
	// rename, which would detach a lock held on the data inode itself.
	s := &FileStore{path: path, format: format, flk: flock.New(path + ".lock")}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.flk.Lock(); err != nil {
			return nil, fmt.Errorf("failed to acquire lock to bootstrap store file: %w", err)
		}
		defer func() { _ = s.flk.Unlock() }()
		if err := s.writeDocument(&fileDocument{}); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Load rehydrates every stored goal and dependency edge.
func (s *FileStore) Load() ([]*goal.Goal, []*goal.Edge, error) {
	if err := s.flk.Lock(); err != nil {
		return nil, nil, fmt.Errorf("failed to acquire lock for load: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	doc, err := s.readDocument()
	if err != nil {
		return nil, nil, err
	}
	return doc.Goals, doc.Edges, nil
}

// Apply merges one flushed change set into the file under the lock.
func (s *FileStore) Apply(cs *goal.ChangeSet) error {
	if cs == nil || cs.Empty() {
		return nil
	}
	if err := s.flk.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock for apply: %w", err)
	}
	defer func() { _ = s.flk.Unlock() }()

	doc, err := s.readDocument()
	if err != nil {
		return err
	}

	byID := make(map[string]*goal.Goal, len(doc.Goals))
	for _, g := range doc.Goals {
		byID[g.ID] = g
	}
	for _, g := range cs.Goals {
		byID[g.ID] = g
	}
	for _, id := range cs.RemovedIDs {
		delete(byID, id)
	}

	goals := make([]*goal.Goal, 0, len(byID))
	for _, g := range byID {
		goals = append(goals, g)
	}
	sort.Slice(goals, func(i, j int) bool {
		if goals[i].ParentID != goals[j].ParentID {
			return goals[i].ParentID < goals[j].ParentID
		}
		if goals[i].SortIndex != goals[j].SortIndex {
			return goals[i].SortIndex < goals[j].SortIndex
		}
		return goals[i].ID < goals[j].ID
	})
	doc.Goals = goals

	if cs.EdgesChanged {
		doc.Edges = cs.Edges
	}

	return s.writeDocument(doc)
}

// Close releases the file lock.
func (s *FileStore) Close() error {
	if s.flk != nil {
		return s.flk.Unlock()
	}
	return nil
}

// readDocument loads and verifies the data file. Callers hold the lock.
func (s *FileStore) readDocument() (*fileDocument, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &fileDocument{Version: 1}, nil
		}
		return nil, fmt.Errorf("failed to read store file %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return &fileDocument{Version: 1}, nil
	}

	if sum, err := os.ReadFile(s.path + checksumSuffix); err == nil {
		want := strings.TrimSpace(string(sum))
		if want != "" && want != checksum(data) {
			return nil, fmt.Errorf("checksum mismatch for %s: file may be corrupted", s.path)
		}
	}

	doc := &fileDocument{}
	switch s.format {
	case FormatJSON:
		err = json.Unmarshal(data, doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, doc)
	case FormatTOML:
		err = toml.Unmarshal(data, doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode store file %s as %s: %w", s.path, s.format, err)
	}
	return doc, nil
}

// writeDocument encodes the document, then replaces the data file and its
// checksum sidecar by atomic renames. Callers hold the lock.
func (s *FileStore) writeDocument(doc *fileDocument) error {
	doc.Version = 1
	doc.SavedAt = time.Now().UTC()

	var data []byte
	var err error
	switch s.format {
	case FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(doc)
	case FormatTOML:
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(doc)
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("failed to encode store file as %s: %w", s.format, err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary store file: %w", err)
	}

	sumPath := s.path + checksumSuffix
	tmpSumPath := sumPath + ".tmp"
	if err := os.WriteFile(tmpSumPath, []byte(checksum(data)), 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temporary checksum file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		_ = os.Remove(tmpSumPath)
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	if err := os.Rename(tmpSumPath, sumPath); err != nil {
		_ = os.Remove(tmpSumPath)
		return fmt.Errorf("failed to replace checksum file: %w", err)
	}
	return nil
}

func checksum(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}
