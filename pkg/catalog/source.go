package catalog

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"sync"

	tsio "github.com/matzehuels/traitstack/pkg/io"
)

// Source lists and reads the raw trait files of each layer.
//
// Implementations return only files that are candidate images; the catalog
// still decodes each one and drops those that fail.
type Source interface {
	// List returns the filenames available in layer, sorted. A layer that
	// does not exist yields an empty list, not an error.
	List(ctx context.Context, layer string) ([]string, error)

	// Read returns the encoded bytes of one file.
	Read(ctx context.Context, layer, name string) ([]byte, error)

	// Exists reports whether layer already has a file called name.
	Exists(ctx context.Context, layer, name string) (bool, error)

	// Rename moves oldName to newName within layer. It must fail if
	// newName already exists.
	Rename(ctx context.Context, layer, oldName, newName string) error
}

// =============================================================================
// DirSource - one sub-directory per layer
// =============================================================================

// DirSource serves layers from sub-directories of Root, e.g.
// static/eyes/e1.png. Only files ending in .png (any case) are listed.
type DirSource struct {
	Root string
}

// NewDirSource returns a DirSource rooted at root.
func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root}
}

// Dir returns the directory holding layer.
func (s *DirSource) Dir(layer string) string {
	return filepath.Join(s.Root, layer)
}

// List returns the PNG files of layer in lexical order.
func (s *DirSource) List(ctx context.Context, layer string) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(layer))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", layer, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !tsio.IsPNG(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)
	return names, nil
}

// Read returns the file contents.
func (s *DirSource) Read(ctx context.Context, layer, name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.Dir(layer), name))
}

// Exists reports whether the file is present.
func (s *DirSource) Exists(ctx context.Context, layer, name string) (bool, error) {
	_, err := os.Stat(filepath.Join(s.Dir(layer), name))
	if os.IsNotExist(err) {
		return false, nil
	}
	return err == nil, err
}

// Rename renames a file inside the layer directory.
func (s *DirSource) Rename(ctx context.Context, layer, oldName, newName string) error {
	if ok, err := s.Exists(ctx, layer, newName); err != nil {
		return err
	} else if ok {
		return fmt.Errorf("rename %s/%s: %s already exists", layer, oldName, newName)
	}
	return os.Rename(filepath.Join(s.Dir(layer), oldName), filepath.Join(s.Dir(layer), newName))
}

var _ Source = (*DirSource)(nil)

// =============================================================================
// MemSource - in-memory layers
// =============================================================================

// MemSource keeps encoded files in memory. It is safe for concurrent use.
type MemSource struct {
	mu     sync.RWMutex
	layers map[string]map[string][]byte
}

// NewMemSource returns an empty in-memory source.
func NewMemSource() *MemSource {
	return &MemSource{layers: make(map[string]map[string][]byte)}
}

// PutBytes stores raw bytes under layer/name, replacing any previous file.
func (s *MemSource) PutBytes(layer, name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.layers[layer] == nil {
		s.layers[layer] = make(map[string][]byte)
	}
	s.layers[layer][name] = data
}

// Put encodes img as PNG and stores it under layer/name.
func (s *MemSource) Put(layer, name string, img image.Image) error {
	data, err := tsio.EncodePNG(img)
	if err != nil {
		return err
	}
	s.PutBytes(layer, name, data)
	return nil
}

// Remove deletes layer/name.
func (s *MemSource) Remove(layer, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layers[layer], name)
}

// List returns the names in layer, sorted.
func (s *MemSource) List(ctx context.Context, layer string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for name := range s.layers[layer] {
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Read returns the stored bytes.
func (s *MemSource) Read(ctx context.Context, layer, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.layers[layer][name]
	if !ok {
		return nil, fmt.Errorf("read %s/%s: %w", layer, name, os.ErrNotExist)
	}
	return data, nil
}

// Exists reports whether layer/name is stored.
func (s *MemSource) Exists(ctx context.Context, layer, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.layers[layer][name]
	return ok, nil
}

// Rename moves layer/oldName to layer/newName.
func (s *MemSource) Rename(ctx context.Context, layer, oldName, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	files := s.layers[layer]
	data, ok := files[oldName]
	if !ok {
		return fmt.Errorf("rename %s/%s: %w", layer, oldName, os.ErrNotExist)
	}
	if _, taken := files[newName]; taken {
		return fmt.Errorf("rename %s/%s: %s already exists", layer, oldName, newName)
	}
	delete(files, oldName)
	files[newName] = data
	return nil
}

var _ Source = (*MemSource)(nil)
