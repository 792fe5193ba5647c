package app

import "sort"

// ProjectFile is a single tracked file. Content is replaced wholesale on every
// committed change; files are never mutated in place so earlier snapshots stay
// intact.
type ProjectFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Snapshot is a full copy of the tracked file set at one instant, unique by
// path. Once pushed into history it is never touched again.
type Snapshot struct {
	Files []ProjectFile `json:"files"`
}

// CopyFiles returns an independent copy of a file slice.
func CopyFiles(files []ProjectFile) []ProjectFile {
	out := make([]ProjectFile, len(files))
	copy(out, files)
	return out
}

// FindFile returns the content of path within files, and whether it exists.
func FindFile(files []ProjectFile, path string) (string, bool) {
	for _, f := range files {
		if f.Path == path {
			return f.Content, true
		}
	}
	return "", false
}

// SetFile returns files with path set to content, appending when the path is
// new. The input slice is not modified.
func SetFile(files []ProjectFile, path, content string) []ProjectFile {
	out := CopyFiles(files)
	for i := range out {
		if out[i].Path == path {
			out[i].Content = content
			return out
		}
	}
	return append(out, ProjectFile{Path: path, Content: content})
}

// RemoveFile returns files without path. The input slice is not modified.
func RemoveFile(files []ProjectFile, path string) []ProjectFile {
	out := make([]ProjectFile, 0, len(files))
	for _, f := range files {
		if f.Path != path {
			out = append(out, f)
		}
	}
	return out
}

// SortedPaths returns every path in files in lexical order.
func SortedPaths(files []ProjectFile) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)
	return paths
}
