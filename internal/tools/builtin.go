// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package tools

import (
	"context"

	"golang.org/x/sync/errgroup"

	apperrors "excelsearch/internal/errors"
	"excelsearch/internal/excel"
	"excelsearch/internal/scanner"
)

// Services bundles the collaborators the built-in operations run against.
type Services struct {
	Scanner *scanner.Scanner
	Reader  *excel.Reader

	// RecursiveDefault applies when a scan request omits the recursive flag.
	RecursiveDefault bool
	// BatchWorkers bounds concurrent items in batch operations.
	BatchWorkers int
	// Extensions is the configured allow-list, echoed in scan results.
	Extensions []string
}

type listFilesPayload struct {
	Directory           string             `json:"directory"`
	Recursive           bool               `json:"recursive"`
	TotalFiles          int                `json:"totalFiles"`
	ScannedFiles        int                `json:"scannedFiles"`
	Truncated           bool               `json:"truncated"`
	Files               []scanner.FileInfo `json:"files"`
	SupportedExtensions []string           `json:"supportedExtensions"`
}

type findFilesPayload struct {
	Directory  string             `json:"directory"`
	Pattern    string             `json:"pattern"`
	Recursive  bool               `json:"recursive"`
	TotalFiles int                `json:"totalFiles"`
	Files      []scanner.FileInfo `json:"files"`
}

type batchItemError struct {
	Index     int    `json:"index"`
	FilePath  string `json:"filePath"`
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

type batchSummaryPayload struct {
	TotalFiles      int              `json:"totalFiles"`
	SuccessfulFiles int              `json:"successfulFiles"`
	FailedFiles     int              `json:"failedFiles"`
	Summaries       []*excel.Summary `json:"summaries"`
	Errors          []batchItemError `json:"errors"`
}

type catalogPayload struct {
	Operations []OperationInfo `json:"operations"`
}

// RegisterOperations wires all built-in operations into the registry.
func RegisterOperations(r *Registry, svc Services) {
	r.Register(&Operation{
		Name:        "list_files",
		Description: "List workbook files under the configured work directory",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"directory": map[string]any{
					"type":        "string",
					"description": "Directory to scan (defaults to the work directory)",
				},
				"recursive": map[string]any{
					"type":        "boolean",
					"description": "Whether to scan subdirectories",
				},
				"max_files": map[string]any{
					"type":        "integer",
					"description": "Maximum number of files to return",
				},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return listFiles(svc, args)
		},
	})

	r.Register(&Operation{
		Name:        "find_files",
		Description: "Find workbook files whose name matches a glob pattern (case-sensitive)",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"pattern": map[string]any{
					"type":        "string",
					"description": "Glob pattern matched against file names, e.g. report_*.xlsx",
				},
				"directory": map[string]any{
					"type":        "string",
					"description": "Directory to search (defaults to the work directory)",
				},
				"recursive": map[string]any{
					"type":        "boolean",
					"description": "Whether to search subdirectories",
				},
			},
			"required": []string{"pattern"},
		},
		Validate: RequireString("pattern"),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return findFiles(svc, args)
		},
	})

	r.Register(&Operation{
		Name:        "get_summary",
		Description: "Summarize workbook structure for one file or a batch of files",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path": map[string]any{
					"type":        "string",
					"description": "Path to a single workbook",
				},
				"file_paths": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Paths of workbooks to process independently",
				},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return getSummary(ctx, svc, args)
		},
	})

	r.Register(&Operation{
		Name:        "read_data",
		Description: "Read worksheet data as headers and JSON rows",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path": map[string]any{
					"type":        "string",
					"description": "Path to the workbook",
				},
				"worksheet_name": map[string]any{
					"type":        "string",
					"description": "Worksheet to read (defaults to the first worksheet)",
				},
				"max_rows": map[string]any{
					"type":        "integer",
					"description": "Maximum number of data rows to read",
				},
			},
			"required": []string{"file_path"},
		},
		Validate: RequireString("file_path"),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return svc.Reader.ReadData(
				stringArg(args, "file_path"),
				stringArg(args, "worksheet_name"),
				intArg(args, "max_rows"),
			)
		},
	})

	r.Register(&Operation{
		Name:        "search",
		Description: "Search worksheet cells for a substring",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path": map[string]any{
					"type":        "string",
					"description": "Path to the workbook",
				},
				"search_term": map[string]any{
					"type":        "string",
					"description": "Text to search for",
				},
				"worksheet_name": map[string]any{
					"type":        "string",
					"description": "Worksheet to search (defaults to the first worksheet)",
				},
				"case_sensitive": map[string]any{
					"type":        "boolean",
					"description": "Match case exactly (default false)",
				},
			},
			"required": []string{"file_path", "search_term"},
		},
		Validate: Chain(RequireString("file_path"), RequireString("search_term")),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return svc.Reader.Search(
				stringArg(args, "file_path"),
				stringArg(args, "search_term"),
				stringArg(args, "worksheet_name"),
				boolArg(args, "case_sensitive", false),
			)
		},
	})

	r.Register(&Operation{
		Name:        "worksheet_summary",
		Description: "Report per-worksheet dimensions, data range and headers",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"file_path": map[string]any{
					"type":        "string",
					"description": "Path to the workbook",
				},
			},
			"required": []string{"file_path"},
		},
		Validate: RequireString("file_path"),
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return svc.Reader.SheetsSummary(stringArg(args, "file_path"))
		},
	})

	r.Register(&Operation{
		Name:        "list_operations",
		Description: "List available operations with their parameter schemas",
		Parameters: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return &catalogPayload{Operations: r.Catalog()}, nil
		},
	})
}

func listFiles(svc Services, args map[string]any) (any, error) {
	recursive := boolArg(args, "recursive", svc.RecursiveDefault)
	result, err := svc.Scanner.Scan(stringArg(args, "directory"), recursive, intArg(args, "max_files"))
	if err != nil {
		return nil, err
	}
	return &listFilesPayload{
		Directory:           result.Directory,
		Recursive:           recursive,
		TotalFiles:          result.TotalFiles,
		ScannedFiles:        result.ScannedCount,
		Truncated:           result.Truncated,
		Files:               result.Files,
		SupportedExtensions: svc.Extensions,
	}, nil
}

func findFiles(svc Services, args map[string]any) (any, error) {
	recursive := boolArg(args, "recursive", svc.RecursiveDefault)
	pattern := stringArg(args, "pattern")
	result, err := svc.Scanner.FindByPattern(stringArg(args, "directory"), pattern, recursive)
	if err != nil {
		return nil, err
	}
	return &findFilesPayload{
		Directory:  result.Directory,
		Pattern:    pattern,
		Recursive:  recursive,
		TotalFiles: result.TotalFiles,
		Files:      result.Files,
	}, nil
}

func getSummary(ctx context.Context, svc Services, args map[string]any) (any, error) {
	target, err := ParseTarget(args)
	if err != nil {
		return nil, err
	}
	if !target.Batch {
		return svc.Reader.Summary(target.Paths[0])
	}
	return batchSummaries(ctx, svc, target.Paths), nil
}

// batchSummaries processes each path independently: one item's failure never
// aborts the rest, and results keep input order via indexed slots.
func batchSummaries(ctx context.Context, svc Services, paths []string) *batchSummaryPayload {
	type slot struct {
		summary *excel.Summary
		err     error
	}
	slots := make([]slot, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	workers := svc.BatchWorkers
	if workers <= 0 {
		workers = 1
	}
	g.SetLimit(workers)

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				slots[i] = slot{err: apperrors.Wrap(apperrors.CodeValidation, "batch canceled", err)}
				return nil
			}
			summary, err := svc.Reader.Summary(path)
			slots[i] = slot{summary: summary, err: err}
			return nil
		})
	}
	// Item errors live in their slots; the group itself never fails.
	_ = g.Wait()

	payload := &batchSummaryPayload{
		TotalFiles: len(paths),
		Summaries:  []*excel.Summary{},
		Errors:     []batchItemError{},
	}
	for i, s := range slots {
		if s.err != nil {
			payload.FailedFiles++
			payload.Errors = append(payload.Errors, batchItemError{
				Index:     i,
				FilePath:  paths[i],
				Error:     s.err.Error(),
				ErrorCode: string(apperrors.CodeOf(s.err)),
			})
			continue
		}
		payload.SuccessfulFiles++
		payload.Summaries = append(payload.Summaries, s.summary)
	}
	return payload
}
