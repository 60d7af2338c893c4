package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// LogStorage manages saving build output to files
type LogStorage struct {
	BaseDir string
}

// NewLogStorage creates a new log storage handler
func NewLogStorage(baseDir string) *LogStorage {
	return &LogStorage{BaseDir: baseDir}
}

// SaveLog saves the output of one build of project/branch and returns the
// file it was written to.
func (ls *LogStorage) SaveLog(project, branch, output string) (string, error) {
	dir := filepath.Join(ls.BaseDir, sanitize(project))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	// timestamp keeps successive builds apart
	timestamp := time.Now().Format("20060102_150405.000000")
	filename := fmt.Sprintf("%s_%s.log", sanitize(branch), strings.ReplaceAll(timestamp, ".", "_"))
	filePath := filepath.Join(dir, filename)

	if err := os.WriteFile(filePath, []byte(output), 0644); err != nil {
		return "", err
	}
	return filePath, nil
}

// sanitize removes characters that are unsafe in file names
func sanitize(name string) string {
	var clean strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			clean.WriteRune(r)
		} else if r == '/' {
			clean.WriteRune('-')
		}
	}
	s := strings.Trim(clean.String(), ".")
	if s == "" {
		return "default"
	}
	return s
}
