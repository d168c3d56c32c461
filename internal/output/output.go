// Package output renders folder trees, export documents and command results.
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/temirov/codeecho/internal/types"
	"github.com/temirov/codeecho/internal/utils"
)

const (
	indentPrefix = ""
	indentSpacer = "  "

	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	sizedLineFormat = "%s%s%s (%s)\n"
	plainLineFormat = "%s%s%s\n"
)

// TreeRenderOptions controls the text tree rendering.
type TreeRenderOptions struct {
	// ShowSizes appends the formatted aggregated size to every line.
	ShowSizes bool
}

// treeFrame is one pending node of the iterative rendering.
type treeFrame struct {
	node   *types.TreeNode
	prefix string
	isLast bool
}

// RenderTree returns the ASCII rendering of every node below root.
func RenderTree(root *types.TreeNode) string {
	var buffer bytes.Buffer
	WriteTree(&buffer, root, TreeRenderOptions{})
	return buffer.String()
}

// WriteTree writes one line per node below root. Siblings are ordered by
// name at every level regardless of how the children are stored. An explicit
// stack replaces recursion so deep repositories do not grow the call stack.
func WriteTree(writer io.Writer, root *types.TreeNode, options TreeRenderOptions) {
	if root == nil {
		return
	}
	var stack []treeFrame
	stack = pushChildren(stack, root, "")
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		connector := treeBranchConnector
		childPrefix := frame.prefix + treeBranchPadding
		if frame.isLast {
			connector = treeLastConnector
			childPrefix = frame.prefix + treeLastPadding
		}
		if options.ShowSizes {
			fmt.Fprintf(writer, sizedLineFormat, frame.prefix, connector, frame.node.Name, utils.FormatFileSize(frame.node.Size))
		} else {
			fmt.Fprintf(writer, plainLineFormat, frame.prefix, connector, frame.node.Name)
		}
		stack = pushChildren(stack, frame.node, childPrefix)
	}
}

// pushChildren pushes the sorted children of node in reverse order so the
// first child is popped first.
func pushChildren(stack []treeFrame, node *types.TreeNode, prefix string) []treeFrame {
	children := SortedChildren(node)
	for index := len(children) - 1; index >= 0; index-- {
		stack = append(stack, treeFrame{
			node:   children[index],
			prefix: prefix,
			isLast: index == len(children)-1,
		})
	}
	return stack
}

// SortedChildren returns a copy of the node's children ordered by name
// (byte order, case sensitive). The node itself is not modified.
func SortedChildren(node *types.TreeNode) []*types.TreeNode {
	if node == nil || len(node.Children) == 0 {
		return nil
	}
	children := make([]*types.TreeNode, 0, len(node.Children))
	for _, child := range node.Children {
		if child != nil {
			children = append(children, child)
		}
	}
	sort.SliceStable(children, func(left, right int) bool {
		return children[left].Name < children[right].Name
	})
	return children
}

// RenderJSON marshals value as indented JSON.
func RenderJSON(value interface{}) (string, error) {
	encoded, jsonEncodeError := json.MarshalIndent(value, indentPrefix, indentSpacer)
	return string(encoded), jsonEncodeError
}

// FormatSummaryLine describes an export for terminal output.
func FormatSummaryLine(includedFiles int, skippedFiles int, totalTokens int, model string) string {
	label := "files"
	if includedFiles == 1 {
		label = "file"
	}
	skippedSuffix := ""
	if skippedFiles > 0 {
		skippedSuffix = fmt.Sprintf(", %d skipped", skippedFiles)
	}
	modelSuffix := ""
	if model != "" {
		modelSuffix = fmt.Sprintf(" (model: %s)", model)
	}
	return fmt.Sprintf("Summary: %d %s%s, %d tokens%s", includedFiles, label, skippedSuffix, totalTokens, modelSuffix)
}

// FormatTreeSummaryLine describes a folder tree for terminal output.
func FormatTreeSummaryLine(fileCount int, totalBytes int64) string {
	label := "files"
	if fileCount == 1 {
		label = "file"
	}
	return fmt.Sprintf("Summary: %d %s, %s", fileCount, label, utils.FormatFileSize(totalBytes))
}
