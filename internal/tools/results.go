package tools

import (
	"encoding/json"
	"time"
)

// PaginationInfo is attached to a FileReadResult whenever the caller asked
// for a line range, carrying enough of the file's shape that the model can
// decide whether to page further. StartLine and EndLine are 1-indexed and
// inclusive; EndLine is the last line returned, already clamped to TotalLines.
type PaginationInfo struct {
	TotalLines int  `json:"totalLines"`
	StartLine  int  `json:"startLine"`
	EndLine    int  `json:"endLine"`
	HasMore    bool `json:"hasMore"`
}

// FileReadResult is read_file's structured result: the content actually
// returned, plus pagination metadata when a line range or a chunking cutoff
// applied.
type FileReadResult struct {
	Path       string          `json:"path"`
	Content    string          `json:"content"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// GlobResult is glob's structured result: sorted matches, possibly
// truncated at the backend's cap.
type GlobResult struct {
	Matches []string `json:"matches"`
	Count   int      `json:"count"`
	HasMore bool     `json:"hasMore"`
}

// GrepMatch is one matched line from grep.
type GrepMatch struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Content string `json:"content"`
}

// GrepResult is grep's structured result. "Pattern not found" is a success
// with an empty Matches slice, never an error.
type GrepResult struct {
	Matches []GrepMatch `json:"matches"`
	Count   int         `json:"count"`
	HasMore bool        `json:"hasMore"`
}

// LsEntry is one row of ls's typed directory listing. Size and ModifiedAt
// are only populated when the caller asked for details and the backend can
// report them (Local always can; Container and Remote may leave them zero).
type LsEntry struct {
	Name           string     `json:"name"`
	IsDirectory    bool       `json:"isDirectory"`
	IsFile         bool       `json:"isFile"`
	IsSymbolicLink bool       `json:"isSymbolicLink"`
	Size           int64      `json:"size,omitempty"`
	ModifiedAt     *time.Time `json:"modifiedAt,omitempty"`
}

// LsResult is ls's structured result.
type LsResult struct {
	Entries []LsEntry `json:"entries"`
}

// marshalResult renders a structured tool result as the compact JSON string
// every Tool.Execute hands back to the model; content is still plain text
// from the model's point of view, just shaped as a JSON object instead of a
// free-form blob.
func marshalResult(v any) (string, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
