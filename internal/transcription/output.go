package transcription

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxCollisionSuffix = 10000

// TranscriptPath returns the first free "<stem>.txt" path beside source,
// falling back to "<stem> (n).txt" with n counting from 1.
func TranscriptPath(source string) (string, error) {
	dir := filepath.Dir(source)
	stem := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	candidate := filepath.Join(dir, stem+".txt")
	for n := 1; ; n++ {
		_, err := os.Lstat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		if n > maxCollisionSuffix {
			return "", fmt.Errorf("no free transcript name for %s", source)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d).txt", stem, n))
	}
}

// WriteTranscript stores text next to source and returns the written path.
// The file is created exclusively so an existing transcript is never
// overwritten.
func WriteTranscript(source, text string) (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		target, err := TranscriptPath(source)
		if err != nil {
			return "", err
		}
		file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create transcript: %w", err)
		}
		if _, err := file.WriteString(text); err != nil {
			_ = file.Close()
			_ = os.Remove(target)
			return "", fmt.Errorf("write transcript: %w", err)
		}
		if err := file.Close(); err != nil {
			_ = os.Remove(target)
			return "", fmt.Errorf("close transcript: %w", err)
		}
		return target, nil
	}
	return "", fmt.Errorf("transcript name for %s kept colliding", source)
}
