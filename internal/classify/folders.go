// Package classify regroups already-filtered listings for display: topics
// into a dot-delimited folder tree, configuration keys into semantic buckets.
package classify

import (
	"strings"

	"github.com/Vashnak/Franz-manager-sub000/internal/filter"
	"github.com/Vashnak/Franz-manager-sub000/internal/models"
)

// DefaultDelimiter separates the segments of a topic name.
const DefaultDelimiter = "."

// FolderResult is one level of the topic tree.
type FolderResult struct {
	Folders []models.Folder `json:"folders"`
	Leaves  []models.Topic  `json:"topics"`
}

// IntoFolders splits topics living under folderPrefix into the folders of the
// next level and the topics ending at this level.
//
// Callers are expected to have kept only the topics under folderPrefix (see
// filter.WithinFolder). A topic with no segment past the current level,
// including one whose id equals folderPrefix, is returned as a leaf.
//
// Folders and leaves are sorted independently using filter.Descending.
func IntoFolders(topics []models.Topic, folderPrefix, delimiter, sortBy string, reverse bool) FolderResult {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	folderPrefix = strings.TrimSuffix(folderPrefix, delimiter)

	depth := 1
	if folderPrefix != "" {
		depth = strings.Count(folderPrefix, delimiter) + 2
	}

	index := make(map[string]int)
	folders := make([]models.Folder, 0)
	leaves := make([]models.Topic, 0)

	for _, t := range topics {
		pos := nthIndex(t.ID, delimiter, depth)
		if pos < 0 {
			leaves = append(leaves, t)
			continue
		}

		id := t.ID[:pos]
		i, ok := index[id]
		if !ok {
			i = len(folders)
			index[id] = i
			folders = append(folders, models.Folder{ID: id})
		}
		f := &folders[i]
		f.Topics = append(f.Topics, t)
		f.Partitions += t.Partitions
		f.Replications += t.Replications
	}

	return FolderResult{
		Folders: filter.SortWithPolicy(folders, sortBy, reverse),
		Leaves:  filter.SortWithPolicy(leaves, sortBy, reverse),
	}
}

// nthIndex returns the byte offset of the n-th (1-based) occurrence of sep in
// s, or -1.
func nthIndex(s, sep string, n int) int {
	offset := 0
	for i := 0; i < n; i++ {
		j := strings.Index(s[offset:], sep)
		if j < 0 {
			return -1
		}
		if i == n-1 {
			return offset + j
		}
		offset += j + len(sep)
	}
	return -1
}
