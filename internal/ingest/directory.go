package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joseph-ayodele/proforma-consolidator/constants"
	"github.com/joseph-ayodele/proforma-consolidator/internal/entity"
)

type DirStats struct {
	Scanned uint32
	Matched uint32
	Failed  uint32
}

// CollectPDFs walks root and returns the paths whose extension is in constants.AllowedExtensions,
// sorted so that submissions built from a directory are reproducible.
func CollectPDFs(root string, skipHidden bool) ([]string, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root_path is required")
	}

	var paths []string
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		stats.Scanned++
		if walkErr != nil {
			stats.Failed++
			return nil // continue walking
		}
		// skip hidden dirs/files if requested
		if skipHidden && path != root && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if _, ok := constants.AllowedExtensions[constants.NormalizeExt(filepath.Ext(path))]; !ok {
			return nil
		}
		stats.Matched++
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return paths, stats, fmt.Errorf("walk: %w", err)
	}
	sort.Strings(paths)
	return paths, stats, nil
}

// LoadDocuments reads each path into an UploadedDocument. The media type is derived from the
// extension, the way a browser would declare it on upload.
func LoadDocuments(paths []string) ([]entity.UploadedDocument, error) {
	docs := make([]entity.UploadedDocument, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		docs = append(docs, entity.UploadedDocument{
			Filename:  filepath.Base(p),
			MediaType: constants.MediaTypeForExt(filepath.Ext(p)),
			Data:      data,
		})
	}
	return docs, nil
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
