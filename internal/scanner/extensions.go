package scanner

import (
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

var (
	audioExtensions = []string{"mp3", "wav", "m4a", "flac", "ogg", "aac"}
	videoExtensions = []string{"mp4", "webm", "mkv", "mov", "avi"}
)

// foldExt case-folds an extension. A Caser is not safe for concurrent use, so
// one is built per call.
func foldExt(ext string) string {
	return cases.Fold().String(ext)
}

// ExtensionSet is a case-insensitive set of file extensions without dots.
type ExtensionSet map[string]struct{}

// NewExtensionSet returns the audio set, plus the video set when requested.
func NewExtensionSet(includeVideo bool) ExtensionSet {
	set := ExtensionSet{}
	for _, ext := range audioExtensions {
		set[foldExt(ext)] = struct{}{}
	}
	if includeVideo {
		for _, ext := range videoExtensions {
			set[foldExt(ext)] = struct{}{}
		}
	}
	return set
}

// Matches reports whether the file name carries a supported extension.
func (s ExtensionSet) Matches(name string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return false
	}
	_, ok := s[foldExt(ext)]
	return ok
}

// List returns the extensions in sorted order.
func (s ExtensionSet) List() []string {
	out := make([]string, 0, len(s))
	for ext := range s {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
