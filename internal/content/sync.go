package content

import (
	"log/slog"

	"github.com/starford/sitemapd/internal/checksum"
	"github.com/starford/sitemapd/internal/logfields"
)

// Sync walks the content tree and brings the index up to date:
//   - new/changed files are parsed and upserted
//   - unpublished files and files removed from disk are deleted from the index
func Sync(idx *SQL, store *FS, logger *slog.Logger) error {
	files, err := store.Files()
	if err != nil {
		return err
	}

	checksums, err := idx.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(files))
	for _, f := range files {
		disk[f.Path] = struct{}{}

		if checksums[f.Path] == f.Checksum {
			continue
		}

		data, err := store.Read(f.Path)
		if err != nil {
			logger.Warn("sync: read failed", logfields.Path(f.Path), logfields.Error(err))
			continue
		}
		if err := indexFile(idx, store, f.Path, data); err != nil {
			logger.Warn("sync: index failed", logfields.Path(f.Path), logfields.Error(err))
		} else {
			logger.Debug("sync: indexed", logfields.Path(f.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := idx.DeleteEntry(p); err != nil {
				logger.Warn("sync: delete failed", logfields.Path(p), logfields.Error(err))
			} else {
				logger.Debug("sync: removed stale", logfields.Path(p))
			}
		}
	}

	return nil
}

// indexFile parses data and upserts it, or drops it from the index when the
// entry is not published.
func indexFile(idx *SQL, store *FS, path string, data []byte) error {
	entry, ok, err := store.Entry(path, data)
	if err != nil {
		return err
	}
	if !ok {
		return idx.DeleteEntry(path)
	}
	return idx.UpsertEntry(entry, checksum.Sum(data))
}
