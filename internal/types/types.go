// Package types defines every cross‑package data structure used by codeecho.
package types

import "fmt"

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"

	EntryKindBlob = "blob"
	EntryKindTree = "tree"

	EncodingBase64 = "base64"

	CommandTree   = "tree"
	CommandExport = "export"
	CommandServe  = "serve"

	FormatRaw  = "raw"
	FormatJSON = "json"

	SkipReasonBinary      = "binary"
	SkipReasonFetchFailed = "fetch_failed"
	SkipReasonUndecodable = "undecodable"
)

// Entry is one object of a recursive repository listing.
type Entry struct {
	Path       string `json:"path"`
	Kind       string `json:"kind"`
	Size       int64  `json:"size,omitempty"`
	ContentRef string `json:"contentRef,omitempty"`
}

// IsBlob reports whether the entry describes a file object.
func (entry Entry) IsBlob() bool {
	return entry.Kind == EntryKindBlob
}

// Blob is the raw payload returned for a content reference.
type Blob struct {
	Encoding string
	Content  string
}

// TreeNode is one node of the folder structure built from a listing.
// The root has an empty name and path.
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Type     string      `json:"type"`
	Children []*TreeNode `json:"children"`
	Size     int64       `json:"size"`
}

// IsDirectory reports whether the node is a directory.
func (node *TreeNode) IsDirectory() bool {
	return node != nil && node.Type == NodeTypeDirectory
}

// Repository identifies a remote repository.
type Repository struct {
	Owner string
	Name  string
}

// FullName returns the owner/name form of the repository.
func (repository Repository) FullName() string {
	return repository.Owner + "/" + repository.Name
}

// RepositoryRequest carries the selection made by the caller for one request.
type RepositoryRequest struct {
	Repository Repository
	Branch     string
	Exclusions []string
}

// SkippedFile records a file dropped from an export.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// ExportResult is the assembled document and its token estimate.
type ExportResult struct {
	Text        string        `json:"text"`
	TotalTokens int           `json:"totalTokens"`
	Skipped     []SkippedFile `json:"skipped,omitempty"`
	// IncludedFiles is the number of file blocks in Text.
	IncludedFiles int `json:"-"`
}

// BranchSummary describes one branch of a repository.
type BranchSummary struct {
	Name      string `json:"name"`
	CommitSHA string `json:"commitSha"`
}

// RepositorySummary describes one repository visible to the caller.
type RepositorySummary struct {
	Owner         string `json:"owner"`
	Name          string `json:"name"`
	FullName      string `json:"fullName"`
	DefaultBranch string `json:"defaultBranch,omitempty"`
	Private       bool   `json:"private"`
}

// UpstreamError is a failure reported by the source host with a client-facing message.
type UpstreamError struct {
	Message    string
	StatusCode int
}

func (upstreamError *UpstreamError) Error() string {
	if upstreamError.StatusCode > 0 {
		return fmt.Sprintf("upstream error (%d): %s", upstreamError.StatusCode, upstreamError.Message)
	}
	return "upstream error: " + upstreamError.Message
}
