package vectorstore

import (
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrIndexNotFound is returned when neither the index nor its metadata can
// be located at any candidate path.
var ErrIndexNotFound = errors.New("index not found in expected locations")

// ErrIndexCorrupt is returned when the vector index and metadata store
// disagree, which means the pair was not written (or copied) together.
var ErrIndexCorrupt = errors.New("index and metadata stores are misaligned")

// SaveIndex writes the vector index to path using gob encoding. The write
// goes through a temp file and an atomic rename.
func SaveIndex(idx *FlatIndex, path string) error {
	return saveGob(idx, path)
}

// SaveMetadata writes the metadata store to path using gob encoding.
func SaveMetadata(meta *MetadataStore, path string) error {
	return saveGob(meta, path)
}

// LoadIndex reads a vector index from the first existing candidate path.
func LoadIndex(paths []string) (*FlatIndex, error) {
	var idx FlatIndex
	if err := loadGobFirst(paths, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

// LoadMetadata reads a metadata store from the first existing candidate path.
func LoadMetadata(paths []string) (*MetadataStore, error) {
	var meta MetadataStore
	if err := loadGobFirst(paths, &meta); err != nil {
		return nil, err
	}
	if len(meta.Documents) != len(meta.Metadatas) {
		return nil, fmt.Errorf("%w: %d documents vs %d metadata entries",
			ErrIndexCorrupt, len(meta.Documents), len(meta.Metadatas))
	}
	return &meta, nil
}

// CopyFile copies src to dstDir keeping the base name, creating dstDir if
// needed. Used for the secondary backup of index artifacts.
func CopyFile(src, dstDir string) error {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating backup dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close()

	dst := filepath.Join(dstDir, filepath.Base(src))
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copying to %s: %w", dst, err)
	}
	return out.Close()
}

func saveGob(v any, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}

	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	if err := gob.NewEncoder(file).Encode(v); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := file.Close(); err != nil {
		return err
	}

	// Atomic rename
	return os.Rename(tmp, path)
}

func loadGobFirst(paths []string, v any) error {
	for _, path := range paths {
		file, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("opening %s: %w", path, err)
		}
		defer file.Close()

		if err := gob.NewDecoder(file).Decode(v); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}
		return nil
	}
	return ErrIndexNotFound
}
