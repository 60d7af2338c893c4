package storage

import (
	_ "embed"
	"os"
	"path/filepath"
)

var (
	//go:embed assets/build_success.svg
	iconSuccess []byte
	//go:embed assets/build_failure.svg
	iconFailure []byte
)

// BuildStatus is the state shown by a status icon.
type BuildStatus int

const (
	StatusSuccess BuildStatus = iota
	StatusFailure
)

func (s BuildStatus) String() string {
	if s == StatusSuccess {
		return "success"
	}
	return "failure"
}

// Icon returns the SVG badge for status.
func Icon(status BuildStatus) []byte {
	if status == StatusSuccess {
		return iconSuccess
	}
	return iconFailure
}

// IconStorage keeps one status icon per project and branch below BaseDir.
type IconStorage struct {
	BaseDir string
}

// NewIconStorage creates an icon store rooted at baseDir.
func NewIconStorage(baseDir string) *IconStorage {
	return &IconStorage{BaseDir: baseDir}
}

// Path returns where the icon of project/branch is stored.
func (s *IconStorage) Path(project, branch string) string {
	return filepath.Join(s.BaseDir, sanitize(project), sanitize(branch)+".svg")
}

// SaveIcon writes the icon for status, replacing the previous one.
func (s *IconStorage) SaveIcon(project, branch string, status BuildStatus) (string, error) {
	path := s.Path(project, branch)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}

	// write next to the target and rename so readers never see a partial file
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, Icon(status), 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, nil
}
