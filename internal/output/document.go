package output

import (
	"fmt"
	"strings"
)

const (
	codeFence              = "```"
	documentHeaderFormat   = "# Repository: %s\n**Branch:** %s\n\n"
	folderStructureHeading = "## Folder Structure:\n"
	fileBlockHeadingFormat = "## File: %s\n"
	fencedBlockFormat      = codeFence + "\n%s\n" + codeFence + "\n\n"
)

// Document accumulates the flattened export text.
type Document struct {
	builder strings.Builder
	files   int
}

// NewDocument starts a document with the repository header and the fenced
// folder structure.
func NewDocument(repositoryFullName string, branch string, renderedTree string) *Document {
	document := &Document{}
	fmt.Fprintf(&document.builder, documentHeaderFormat, repositoryFullName, branch)
	document.builder.WriteString(folderStructureHeading)
	fmt.Fprintf(&document.builder, fencedBlockFormat, renderedTree)
	return document
}

// AppendFile adds a labeled fenced block holding the file content.
func (document *Document) AppendFile(path string, content string) {
	fmt.Fprintf(&document.builder, fileBlockHeadingFormat, path)
	fmt.Fprintf(&document.builder, fencedBlockFormat, content)
	document.files++
}

// FileCount reports how many file blocks were appended.
func (document *Document) FileCount() int {
	return document.files
}

// String returns the assembled text.
func (document *Document) String() string {
	return document.builder.String()
}
