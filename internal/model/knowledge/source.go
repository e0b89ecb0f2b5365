package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source provides the knowledge profile for one request.
type Source interface {
	Load(ctx context.Context) (Profile, error)
}

// FileSource re-reads a static file on every Load so edits apply without a restart.
type FileSource struct {
	mode Mode
	path string
}

// NewFileSource returns a Source backed by a JSON or YAML file.
func NewFileSource(mode Mode, path string) (*FileSource, error) {
	if mode != ModeFAQ && mode != ModeMaster {
		return nil, fmt.Errorf("%w: unknown mode %q", ErrConfiguration, mode)
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: knowledge file path is empty", ErrConfiguration)
	}
	return &FileSource{mode: mode, path: path}, nil
}

// Path returns the file the source reads.
func (s *FileSource) Path() string {
	return s.path
}

// Load reads, decodes and validates the file.
func (s *FileSource) Load(ctx context.Context) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: read %s: %v", ErrConfiguration, s.path, err)
	}

	profile := Profile{Mode: s.mode}
	switch s.mode {
	case ModeMaster:
		var client ClientProfile
		if err := decodeFile(s.path, data, &client); err != nil {
			return Profile{}, err
		}
		profile.Client = &client
	default:
		var base FAQBase
		if err := decodeFile(s.path, data, &base); err != nil {
			return Profile{}, err
		}
		profile.FAQ = &base
	}

	if err := profile.Validate(); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

func decodeFile(path string, data []byte, dest any) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, dest)
	default:
		err = json.Unmarshal(data, dest)
	}
	if err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrConfiguration, path, err)
	}
	return nil
}

// MemorySource serves a fixed profile.
type MemorySource struct {
	profile Profile
}

// NewMemorySource returns a Source that always yields profile.
func NewMemorySource(profile Profile) *MemorySource {
	return &MemorySource{profile: profile}
}

// Load validates and returns the stored profile.
func (s *MemorySource) Load(_ context.Context) (Profile, error) {
	if err := s.profile.Validate(); err != nil {
		return Profile{}, err
	}
	return s.profile, nil
}
