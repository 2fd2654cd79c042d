package corpus

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Document is a raw text file discovered under the source folder.
type Document struct {
	Path     string // path relative to the walked root
	Filename string
	Content  string
	Modified time.Time
}

// LoadDocuments walks fsys for .txt files and returns them in path order.
// Path order keeps index builds reproducible across runs.
func LoadDocuments(fsys fs.FS) ([]Document, error) {
	var docs []Document

	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(path, ".txt") {
			return nil
		}

		content, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		info, err := d.Info()
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}

		docs = append(docs, Document{
			Path:     path,
			Filename: filepath.Base(path),
			Content:  string(content),
			Modified: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}
