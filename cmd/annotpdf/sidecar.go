package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"

	annotpdf "github.com/alnah/go-annotpdf"
)

// Sentinel errors for sidecar loading.
var (
	ErrSidecarParse = errors.New("failed to parse annotation sidecar")
)

// sidecarSuffix replaces the document extension to name its sidecar:
// report.md → report.annotations.yaml.
const sidecarSuffix = ".annotations.yaml"

// maxSidecarSize limits sidecar input to prevent memory exhaustion.
const maxSidecarSize = 1 << 20

// sidecarFile is the YAML schema of an annotation sidecar.
type sidecarFile struct {
	Highlights []sidecarHighlight `yaml:"highlights"`
}

type sidecarHighlight struct {
	ID       string           `yaml:"id"` // optional; generated when empty
	Start    int              `yaml:"start"`
	End      int              `yaml:"end"`
	Tag      string           `yaml:"tag"`
	Author   string           `yaml:"author"`
	Text     string           `yaml:"text"` // optional verification slice
	Comments []sidecarComment `yaml:"comments"`
}

type sidecarComment struct {
	Author string `yaml:"author"`
	Text   string `yaml:"text"`
}

// sidecarPath returns the sidecar path for a document path.
func sidecarPath(docPath string) string {
	if idx := strings.LastIndex(docPath, "."); idx > strings.LastIndexAny(docPath, "/\\") {
		return docPath[:idx] + sidecarSuffix
	}
	return docPath + sidecarSuffix
}

// loadSidecar reads and decodes a document's annotation sidecar. A missing
// sidecar is not an error: the document exports without annotations.
func loadSidecar(docPath string) ([]annotpdf.Highlight, []annotpdf.Comment, error) {
	path := sidecarPath(docPath)
	data, err := os.ReadFile(path) // #nosec G304 -- derived from user-provided input path
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("reading sidecar %s: %w", path, err)
	}
	if len(data) > maxSidecarSize {
		return nil, nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrSidecarParse, path, maxSidecarSize)
	}

	var sc sidecarFile
	if err := yaml.UnmarshalWithOptions(data, &sc, yaml.Strict()); err != nil {
		return nil, nil, fmt.Errorf("%w: %s: %v", ErrSidecarParse, path, err)
	}

	var highlights []annotpdf.Highlight
	var comments []annotpdf.Comment
	for _, sh := range sc.Highlights {
		id := sh.ID
		if id == "" {
			id = uuid.NewString()
		}
		highlights = append(highlights, annotpdf.Highlight{
			ID:     id,
			Start:  sh.Start,
			End:    sh.End,
			Tag:    sh.Tag,
			Author: sh.Author,
			Text:   sh.Text,
		})
		for _, c := range sh.Comments {
			comments = append(comments, annotpdf.Comment{
				HighlightID: id,
				Author:      c.Author,
				Text:        c.Text,
			})
		}
	}
	return highlights, comments, nil
}
