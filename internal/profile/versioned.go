package profile

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"docsift-backend/internal/shared/fault"
)

// Versioned layout: a profile may also live as a directory of versions,
// <dir>/<base>/<version>/{prompt.txt,system_instruction.txt,schema.json,config.yaml}.
// A bare base id resolves to the latest version by natural sort (v10 > v2);
// an id ending in a version segment pins that version.
const (
	promptFileName = "prompt.txt"
	systemFileName = "system_instruction.txt"
	schemaFileName = "schema.json"
	configFileName = "config.yaml"
)

var versionPattern = regexp.MustCompile(`^v(\d+)$`)

// versionedDefinition resolves id against the versioned directory layout.
// ok=false when id names neither a profile base nor a concrete version dir.
func (s DirStore) versionedDefinition(id string) (map[string]any, bool, error) {
	dir := filepath.Join(s.Dir, filepath.FromSlash(id))

	// Concrete version pin: the id path is itself a version directory.
	if isVersionDir(dir) {
		def, err := loadVersionDir(dir, id)
		if err != nil {
			return nil, false, err
		}
		return def, true, nil
	}

	versions, err := listVersions(dir)
	if err != nil {
		return nil, false, err
	}
	if len(versions) == 0 {
		return nil, false, nil
	}
	latest := versions[len(versions)-1]
	def, err := loadVersionDir(filepath.Join(dir, latest), id)
	if err != nil {
		return nil, false, err
	}
	return def, true, nil
}

func isVersionDir(dir string) bool {
	for _, name := range []string{promptFileName, systemFileName, schemaFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

func listVersions(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fault.Wrap(fault.KindProfile, fmt.Sprintf("list versions in %s", dir), err)
	}
	var versions []string
	for _, entry := range entries {
		if entry.IsDir() && isVersionDir(filepath.Join(dir, entry.Name())) {
			versions = append(versions, entry.Name())
		}
	}
	sortVersions(versions)
	return versions, nil
}

// sortVersions orders vN names numerically so v10 outranks v2; names outside
// that pattern sort lexically after every numbered version.
func sortVersions(versions []string) {
	sort.Slice(versions, func(i, j int) bool {
		ni, iNum := versionNumber(versions[i])
		nj, jNum := versionNumber(versions[j])
		switch {
		case iNum && jNum:
			return ni < nj
		case iNum:
			return true
		case jNum:
			return false
		default:
			return versions[i] < versions[j]
		}
	})
}

func versionNumber(v string) (int, bool) {
	m := versionPattern.FindStringSubmatch(v)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// loadVersionDir assembles one version directory into the raw definition
// mapping the profile builder consumes. config.yaml is the optional base
// (mode, multi_doc_behavior, generation_config); the three required files
// supply prompt, system instruction, and schema inline.
func loadVersionDir(dir, id string) (map[string]any, error) {
	def := map[string]any{}
	if data, err := os.ReadFile(filepath.Join(dir, configFileName)); err == nil {
		if m, decodeErr := decodeMapping(data); decodeErr == nil {
			def = m
		}
	}

	prompt, err := os.ReadFile(filepath.Join(dir, promptFileName))
	if err != nil {
		return nil, fault.Wrap(fault.KindProfile, fmt.Sprintf("read %s in %s", promptFileName, dir), err)
	}
	system, err := os.ReadFile(filepath.Join(dir, systemFileName))
	if err != nil {
		return nil, fault.Wrap(fault.KindProfile, fmt.Sprintf("read %s in %s", systemFileName, dir), err)
	}
	rawSchema, err := os.ReadFile(filepath.Join(dir, schemaFileName))
	if err != nil {
		return nil, fault.Wrap(fault.KindProfile, fmt.Sprintf("read %s in %s", schemaFileName, dir), err)
	}
	schemaDef, err := decodeMapping(rawSchema)
	if err != nil {
		return nil, fault.Wrap(fault.KindProfile, fmt.Sprintf("malformed %s in %s", schemaFileName, dir), err)
	}

	def["id"] = id
	def["prompt"] = string(prompt)
	def["system_instruction"] = string(system)
	def["schema"] = schemaDef
	return def, nil
}

// listVersionedBases names every profile base under the versioned layout,
// as slash-separated ids relative to the store root.
func (s DirStore) listVersionedBases() ([]string, error) {
	if _, err := os.Stat(s.Dir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fault.Wrap(fault.KindProfile, fmt.Sprintf("list profiles in %s", s.Dir), err)
	}

	seen := map[string]bool{}
	walkErr := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != schemaFileName {
			return nil
		}
		versionDir := filepath.Dir(path)
		if !isVersionDir(versionDir) {
			return nil
		}
		base, relErr := filepath.Rel(s.Dir, filepath.Dir(versionDir))
		if relErr != nil || base == "." {
			return nil
		}
		seen[filepath.ToSlash(base)] = true
		return nil
	})
	if walkErr != nil {
		return nil, fault.Wrap(fault.KindProfile, fmt.Sprintf("list profiles in %s", s.Dir), walkErr)
	}

	bases := make([]string, 0, len(seen))
	for base := range seen {
		bases = append(bases, base)
	}
	sort.Strings(bases)
	return bases, nil
}
