package workflows

import (
	"context"
	"fmt"
	"os"

	"github.com/PolarWolf314/confseal/internal/appconfig"
	"github.com/PolarWolf314/confseal/internal/audit"
	"github.com/PolarWolf314/confseal/internal/utils"
)

// FileResult describes what happened to one configuration file.
type FileResult struct {
	// Path is the absolute path of the file.
	Path string

	// Sections lists the sections that were (or in a dry run would be)
	// transformed.
	Sections []string

	// Skipped lists requested sections already in the target state.
	Skipped []string
}

// transformFunc changes one document in memory and reports which sections
// it touched.
type transformFunc func(doc *appconfig.Document) (FileResult, error)

// transformFiles loads every file matched by patterns, applies fn, and
// saves the changed documents only once every file succeeded.
func transformFiles(ctx context.Context, patterns []string, baseDir string, indent int, dryRun bool, fn transformFunc) ([]FileResult, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		baseDir = wd
	}

	paths, err := utils.ResolveConfigFiles(patterns, baseDir)
	if err != nil {
		return nil, err
	}

	docs := make([]*appconfig.Document, len(paths))
	results := make([]FileResult, len(paths))
	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		doc, err := appconfig.Load(path)
		if err != nil {
			return nil, err
		}
		doc.Indent = indent

		res, err := fn(doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		res.Path = path
		docs[i] = doc
		results[i] = res
	}

	if dryRun {
		return results, nil
	}

	for i, res := range results {
		if len(res.Sections) == 0 {
			continue
		}
		if err := docs[i].Save(res.Path); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func recordFiles(recorder *audit.Recorder, op, algorithm string, results []FileResult) {
	for _, res := range results {
		if len(res.Sections) == 0 {
			continue
		}
		recorder.Log(audit.Entry{
			Operation: op,
			File:      res.Path,
			Sections:  res.Sections,
			Algorithm: algorithm,
		})
	}
}
