package config

import (
	"errors"
	"io/fs"
	"slices"
	"strconv"
	"sync"

	"github.com/BurntSushi/toml"
)

// Settings is the per-session settings.toml. The pinned set is keyed by the
// thread id rendered as a decimal string.
type Settings struct {
	ImportSMS           bool     `toml:"import_sms"`
	ImportMMS           bool     `toml:"import_mms"`
	ExportSMS           bool     `toml:"export_sms"`
	ExportMMS           bool     `toml:"export_mms"`
	PinnedConversations []string `toml:"pinned_conversations"`
}

// DefaultSettings enables every message kind and pins nothing.
func DefaultSettings() Settings {
	return Settings{
		ImportSMS: true,
		ImportMMS: true,
		ExportSMS: true,
		ExportMMS: true,
	}
}

// LoadSettings reads settings from path. A missing file yields DefaultSettings.
// Keys absent from the file keep their default values.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	if _, err := toml.DecodeFile(path, &s); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DefaultSettings(), nil
		}
		return Settings{}, err
	}
	return s, nil
}

// SaveSettings writes settings to path.
func SaveSettings(path string, s Settings) error {
	return writeTOML(path, s)
}

// SettingsStore guards a session's settings and persists every change.
type SettingsStore struct {
	mu   sync.RWMutex
	path string
	s    Settings
}

// OpenSettings loads the settings file at path into a store.
func OpenSettings(path string) (*SettingsStore, error) {
	s, err := LoadSettings(path)
	if err != nil {
		return nil, err
	}
	return &SettingsStore{path: path, s: s}, nil
}

// Snapshot returns a copy of the current settings.
func (st *SettingsStore) Snapshot() Settings {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s := st.s
	s.PinnedConversations = slices.Clone(st.s.PinnedConversations)
	return s
}

// IsPinned reports whether threadID is in the pinned set.
func (st *SettingsStore) IsPinned(threadID int64) bool {
	key := strconv.FormatInt(threadID, 10)
	st.mu.RLock()
	defer st.mu.RUnlock()
	return slices.Contains(st.s.PinnedConversations, key)
}

// PinnedSet returns the pinned thread ids as a lookup set.
func (st *SettingsStore) PinnedSet() map[int64]bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	set := make(map[int64]bool, len(st.s.PinnedConversations))
	for _, key := range st.s.PinnedConversations {
		if id, err := strconv.ParseInt(key, 10, 64); err == nil {
			set[id] = true
		}
	}
	return set
}

// SetPinned adds or removes threadID from the pinned set.
func (st *SettingsStore) SetPinned(threadID int64, pinned bool) error {
	key := strconv.FormatInt(threadID, 10)
	return st.update(func(s *Settings) {
		idx := slices.Index(s.PinnedConversations, key)
		switch {
		case pinned && idx < 0:
			s.PinnedConversations = append(s.PinnedConversations, key)
		case !pinned && idx >= 0:
			s.PinnedConversations = slices.Delete(s.PinnedConversations, idx, idx+1)
		}
	})
}

// SetImportToggles updates which message kinds the importer accepts.
func (st *SettingsStore) SetImportToggles(importSMS, importMMS bool) error {
	return st.update(func(s *Settings) {
		s.ImportSMS = importSMS
		s.ImportMMS = importMMS
	})
}

// SetExportToggles updates which message kinds the exporter writes.
func (st *SettingsStore) SetExportToggles(exportSMS, exportMMS bool) error {
	return st.update(func(s *Settings) {
		s.ExportSMS = exportSMS
		s.ExportMMS = exportMMS
	})
}

func (st *SettingsStore) update(fn func(*Settings)) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	next := st.s
	next.PinnedConversations = slices.Clone(st.s.PinnedConversations)
	fn(&next)
	if err := SaveSettings(st.path, next); err != nil {
		return err
	}
	st.s = next
	return nil
}
