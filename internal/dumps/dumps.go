// Package dumps locates Windows crash dump files on disk, both by scanning a
// caller-supplied directory and by knowing where Windows puts dumps when
// nobody configured anything.
package dumps

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ctagard/cdb-mcp/pkg/types"
)

// Find returns the .dmp files in dir, largest first. Extension matching is
// case-insensitive since Windows tooling produces both .dmp and .DMP. With
// recursive set, subdirectories are descended into; subdirectories that
// cannot be read are skipped rather than failing the whole listing, because
// system dump locations routinely contain ACL-restricted children.
func Find(dir string, recursive bool) ([]types.DumpFileInfo, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	var found []types.DumpFileInfo
	search(dir, recursive, &found)

	sort.Slice(found, func(i, j int) bool {
		if found[i].SizeBytes == found[j].SizeBytes {
			return found[i].Path < found[j].Path
		}
		return found[i].SizeBytes > found[j].SizeBytes
	})

	return found, nil
}

func search(dir string, recursive bool, found *[]types.DumpFileInfo) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if recursive {
				search(path, recursive, found)
			}
			continue
		}

		if !strings.EqualFold(filepath.Ext(entry.Name()), ".dmp") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		*found = append(*found, types.DumpFileInfo{
			Path:      path,
			SizeBytes: info.Size(),
		})
	}
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
