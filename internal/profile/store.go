package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"docsift-backend/internal/shared/fault"
)

// profileExts are the definition file extensions a store recognizes, in
// lookup order.
var profileExts = []string{".yaml", ".yml", ".json"}

// Store supplies raw profile definitions by id and dereferences path-like
// sub-references relative to its own location.
type Store interface {
	// Definition returns the raw mapping for id, or ok=false when the
	// store has no profile with that id.
	Definition(id string) (def map[string]any, ok bool, err error)
	// ReadRef reads referenced content (schema/prompt files) relative to
	// the store; ok=false when the reference does not resolve.
	ReadRef(ref string) (data []byte, ok bool, err error)
	// List names every profile id the store can resolve.
	List() ([]string, error)
	// Name identifies the store in diagnostics.
	Name() string
}

// DirStore reads profile definitions from a directory. Two layouts coexist:
// flat files named <id>.<ext>, and versioned directories (see versioned.go).
// A flat file shadows a versioned base with the same id.
type DirStore struct {
	Dir   string
	Label string
}

func (s DirStore) Definition(id string) (map[string]any, bool, error) {
	for _, ext := range profileExts {
		path := filepath.Join(s.Dir, id+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, false, fault.Wrap(fault.KindProfile, fmt.Sprintf("read profile %s", path), err)
		}
		def, err := decodeMapping(data)
		if err != nil {
			return nil, false, fault.Wrap(fault.KindProfile, fmt.Sprintf("malformed profile %s", path), err)
		}
		return def, true, nil
	}
	return s.versionedDefinition(id)
}

func (s DirStore) ReadRef(ref string) ([]byte, bool, error) {
	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.Dir, ref)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fault.Wrap(fault.KindProfile, fmt.Sprintf("read reference %s", ref), err)
	}
	return data, true, nil
}

func (s DirStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fault.Wrap(fault.KindProfile, fmt.Sprintf("list profiles in %s", s.Dir), err)
	}
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		for _, ext := range profileExts {
			if strings.HasSuffix(name, ext) {
				ids = append(ids, strings.TrimSuffix(name, ext))
				break
			}
		}
	}

	bases, err := s.listVersionedBases()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	for _, base := range bases {
		if !seen[base] {
			ids = append(ids, base)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s DirStore) Name() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Dir
}

// decodeMapping parses YAML or JSON bytes into a string-keyed mapping.
// yaml.v3 handles both since JSON is a YAML subset.
func decodeMapping(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("definition is not a mapping")
	}
	return out, nil
}
