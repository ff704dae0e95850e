package profile

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"docsift-backend/internal/shared/fault"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

const builtinRoot = "builtin"

// BuiltinStore serves the profiles bundled with the binary. Built-ins are
// ordinary definitions, not special cases: the schema-less behavior of
// "describe" comes from its own `schema: null`, not from resolver logic.
type BuiltinStore struct{}

func (BuiltinStore) Definition(id string) (map[string]any, bool, error) {
	data, err := builtinFS.ReadFile(builtinRoot + "/" + id + ".yaml")
	if err != nil {
		return nil, false, nil
	}
	def, err := decodeMapping(data)
	if err != nil {
		return nil, false, fault.Wrap(fault.KindProfile, fmt.Sprintf("malformed built-in profile %q", id), err)
	}
	return def, true, nil
}

func (BuiltinStore) ReadRef(ref string) ([]byte, bool, error) {
	data, err := builtinFS.ReadFile(builtinRoot + "/" + ref)
	if err != nil {
		return nil, false, nil
	}
	return data, true, nil
}

func (BuiltinStore) List() ([]string, error) {
	entries, err := fs.ReadDir(builtinFS, builtinRoot)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".yaml") {
			ids = append(ids, strings.TrimSuffix(entry.Name(), ".yaml"))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (BuiltinStore) Name() string { return "builtin" }
