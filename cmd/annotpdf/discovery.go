package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidExtension means an explicit input is not a Markdown file.
var ErrInvalidExtension = errors.New("file must have .md or .markdown extension")

// exportJob is one document to export.
type exportJob struct {
	InputPath  string
	OutputPath string
}

// discoverJobs expands input paths (files or directories) into export jobs.
// Directories are walked recursively for Markdown files; sidecar files are
// never jobs themselves.
func discoverJobs(inputs []string, outputDir string, htmlOnly bool) ([]exportJob, error) {
	outExt := ".pdf"
	if htmlOnly {
		outExt = ".html"
	}

	var jobs []exportJob
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			if !isMarkdown(input) {
				return nil, fmt.Errorf("%w: %s", ErrInvalidExtension, input)
			}
			jobs = append(jobs, exportJob{
				InputPath:  input,
				OutputPath: resolveOutputPath(input, outputDir, "", outExt),
			})
			continue
		}

		err = filepath.WalkDir(input, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return fmt.Errorf("scanning %s: %w", path, err)
			}
			if d.IsDir() || !isMarkdown(path) {
				return nil
			}
			jobs = append(jobs, exportJob{
				InputPath:  path,
				OutputPath: resolveOutputPath(path, outputDir, input, outExt),
			})
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

func isMarkdown(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".md" || ext == ".markdown"
}

// resolveOutputPath determines the output path for a document.
func resolveOutputPath(inputPath, outputDir, baseInputDir, outExt string) string {
	ext := filepath.Ext(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), ext)

	if outputDir == "" {
		return filepath.Join(filepath.Dir(inputPath), base+outExt)
	}

	// An explicit output file path wins for single-file exports.
	if strings.HasSuffix(outputDir, outExt) {
		return outputDir
	}

	if baseInputDir != "" {
		relPath, err := filepath.Rel(baseInputDir, inputPath)
		if err == nil {
			return filepath.Join(outputDir, filepath.Dir(relPath), base+outExt)
		}
	}
	return filepath.Join(outputDir, base+outExt)
}
