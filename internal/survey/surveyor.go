// Package survey inspects a checked-out repository tree and condenses it
// into the transient context the analysis client builds prompts from.
package survey

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gitgauge/gitgauge/internal/interfaces"
	"github.com/gitgauge/gitgauge/internal/logging"
	"github.com/gitgauge/gitgauge/internal/model"
)

const (
	maxWalkDepth       = 10
	maxConfigWalkDepth = 3
	maxFileList        = 1000
	maxConfigFileSize  = 50 * 1024
	maxReadmeChars     = 10000
)

// Surveyor walks checked-out trees. Per-file and per-directory read errors
// are skipped; only an unreadable root propagates.
type Surveyor struct {
	logger logging.Logger
}

var _ interfaces.Surveyor = (*Surveyor)(nil)

// New creates a Surveyor.
func New(logger logging.Logger) *Surveyor {
	return &Surveyor{logger: logger}
}

// Survey produces the RepositoryContext for the tree rooted at localPath.
func (s *Surveyor) Survey(localPath, repoURL string) (*model.RepositoryContext, error) {
	if _, err := os.ReadDir(localPath); err != nil {
		return nil, fmt.Errorf("read repository root: %w", err)
	}

	rc := &model.RepositoryContext{
		RepoURL:     repoURL,
		Languages:   make(map[string]int),
		ConfigFiles: make(map[model.ConfigCategory][]model.ConfigFile),
	}

	s.walkTree(localPath, "", 0, rc)
	s.collectConfigs(localPath, "", 0, rc)
	rc.ReadmeContent = s.readReadme(localPath)

	sort.Strings(rc.FileStructure)
	return rc, nil
}

func (s *Surveyor) walkTree(root, rel string, depth int, rc *model.RepositoryContext) {
	if depth > maxWalkDepth {
		return
	}
	entries, err := os.ReadDir(filepath.Join(root, rel))
	if err != nil {
		s.logger.Debug("skipping unreadable directory",
			logging.Field{Key: "dir", Value: rel},
			logging.Field{Key: "error", Value: err.Error()})
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		childRel := filepath.Join(rel, name)
		if entry.IsDir() {
			if isIgnoredDir(name) {
				continue
			}
			s.walkTree(root, childRel, depth+1, rc)
			continue
		}

		rc.TotalFiles++
		if len(rc.FileStructure) < maxFileList {
			rc.FileStructure = append(rc.FileStructure, filepath.ToSlash(childRel))
		}
		if lang := languageOf(name); lang != "" {
			rc.Languages[lang]++
		}
		if isTextFile(name) {
			rc.TotalLines += countLines(filepath.Join(root, childRel))
		}
	}
}

// countLines counts newline-delimited lines. Unreadable files count zero.
func countLines(path string) int {
	data, err := os.ReadFile(path)
	if err != nil || len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte{'\n'})
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}

// collectConfigs runs the bounded-depth second walk against the config
// catalogue. Oversized files are skipped outright.
func (s *Surveyor) collectConfigs(root, rel string, depth int, rc *model.RepositoryContext) {
	if depth > maxConfigWalkDepth {
		return
	}
	entries, err := os.ReadDir(filepath.Join(root, rel))
	if err != nil {
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		childRel := filepath.Join(rel, name)
		if entry.IsDir() {
			if isIgnoredDir(name) {
				continue
			}
			s.collectConfigs(root, childRel, depth+1, rc)
			continue
		}

		category := classifyConfig(name)
		if category == "" {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.Size() > maxConfigFileSize {
			continue
		}
		content, err := os.ReadFile(filepath.Join(root, childRel))
		if err != nil {
			s.logger.Debug("skipping unreadable config file",
				logging.Field{Key: "file", Value: childRel},
				logging.Field{Key: "error", Value: err.Error()})
			continue
		}
		rc.ConfigFiles[category] = append(rc.ConfigFiles[category], model.ConfigFile{
			Path:    filepath.ToSlash(childRel),
			Content: string(content),
		})
	}
}

// readReadme tries the ordered list of README variants and truncates the
// first hit.
func (s *Surveyor) readReadme(root string) string {
	for _, name := range readmeVariants {
		data, err := os.ReadFile(filepath.Join(root, name))
		if err != nil {
			continue
		}
		text := string(data)
		if len(text) > maxReadmeChars {
			text = text[:maxReadmeChars]
		}
		return text
	}
	return ""
}
