package profile

import (
	"os"
	"path/filepath"
	"sort"

	"docsift-backend/internal/shared/fault"
)

// Resolver looks profiles up across an ordered chain of stores. The first
// store containing the id wins wholesale; definitions are never merged across
// stores.
type Resolver struct {
	stores []Store
}

// NewResolver builds a resolver over the given stores, highest precedence
// first.
func NewResolver(stores ...Store) *Resolver {
	return &Resolver{stores: stores}
}

// DefaultResolver builds the standard chain: project-local store, user-global
// store, bundled built-ins. profileDir, when set, replaces the conventional
// project-local location.
func DefaultResolver(profileDir string) *Resolver {
	projectDir := profileDir
	if projectDir == "" {
		if cwd, err := os.Getwd(); err == nil {
			projectDir = filepath.Join(cwd, ".docsift", "profiles")
		}
	}
	stores := []Store{}
	if projectDir != "" {
		stores = append(stores, DirStore{Dir: projectDir, Label: "project"})
	}
	if home, err := os.UserHomeDir(); err == nil {
		stores = append(stores, DirStore{Dir: filepath.Join(home, ".docsift", "profiles"), Label: "user"})
	}
	stores = append(stores, BuiltinStore{})
	return &Resolver{stores: stores}
}

// Resolve returns the profile for id from the highest-precedence store that
// defines it. Sub-references are dereferenced only after the definition is
// selected.
func (r *Resolver) Resolve(id string) (*Profile, error) {
	for _, store := range r.stores {
		def, ok, err := store.Definition(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		return build(id, def, store)
	}
	return nil, fault.Newf(fault.KindProfile, "profile %q not found", id)
}

// StoreNames returns the chain's store labels in precedence order.
func (r *Resolver) StoreNames() []string {
	names := make([]string, 0, len(r.stores))
	for _, store := range r.stores {
		names = append(names, store.Name())
	}
	return names
}

// List names every resolvable profile id across all stores.
func (r *Resolver) List() ([]string, error) {
	seen := map[string]bool{}
	for _, store := range r.stores {
		ids, err := store.List()
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			seen[id] = true
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
