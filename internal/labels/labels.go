package labels

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

//go:embed default_labels.json
var defaultLabelsJSON []byte

// Store maps addresses to human-readable labels. It is built once at
// startup and never mutated afterwards, so concurrent reads need no
// synchronization.
type Store struct {
	labels map[common.Address]string
}

// NewFromJSON builds a store from a JSON object of address -> label.
// Entries with malformed addresses are skipped. Address case does not
// matter: keys are canonicalized before insertion.
func NewFromJSON(data []byte) (*Store, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}

	labels := make(map[common.Address]string, len(raw))
	for addr, label := range raw {
		if !common.IsHexAddress(addr) || label == "" {
			continue
		}
		labels[common.HexToAddress(addr)] = label
	}

	return &Store{labels: labels}, nil
}

// LoadFile builds a store from a JSON file on disk.
func LoadFile(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	return NewFromJSON(data)
}

// LoadWithDefaults loads labels from path, falling back to the embedded
// default set, then to an empty store. An empty store is valid: it just
// means no addresses are known.
func LoadWithDefaults(path string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}

	if path != "" {
		store, err := LoadFile(path)
		if err == nil {
			logger.Info("loaded address labels", zap.String("path", path), zap.Int("count", store.Len()))
			return store
		}
		logger.Warn("labels file unavailable, using embedded defaults", zap.String("path", path), zap.Error(err))
	}

	store, err := NewFromJSON(defaultLabelsJSON)
	if err != nil {
		logger.Warn("embedded labels unavailable, using empty store", zap.Error(err))
		return &Store{labels: map[common.Address]string{}}
	}
	logger.Info("loaded embedded address labels", zap.Int("count", store.Len()))
	return store
}

// Resolve returns the label for an address. Absence of a label is a
// normal outcome, not an error.
func (s *Store) Resolve(addr common.Address) (string, bool) {
	label, ok := s.labels[addr]
	return label, ok
}

// Len returns the number of known labels.
func (s *Store) Len() int {
	return len(s.labels)
}
