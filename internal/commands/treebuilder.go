package commands

import (
	"strings"

	"github.com/temirov/codeecho/internal/types"
)

const pathSeparator = "/"

// TreeBuilder turns a flat repository listing into a rooted folder tree.
// Children are located through an index keyed by full path, so the
// resulting structure does not depend on the order of the entries.
type TreeBuilder struct {
	root  *types.TreeNode
	index map[string]*types.TreeNode
}

// NewTreeBuilder returns a builder holding an empty root directory.
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{
		root:  newTreeNode("", "", types.NodeTypeDirectory),
		index: make(map[string]*types.TreeNode),
	}
}

// BuildTree builds and aggregates the folder tree for the provided entries.
func BuildTree(entries []types.Entry) *types.TreeNode {
	builder := NewTreeBuilder()
	for _, entry := range entries {
		builder.Add(entry)
	}
	root := builder.Root()
	AggregateSizes(root)
	return root
}

// Add inserts a blob entry. Tree entries and empty paths are ignored;
// directories only exist when some blob lives beneath them.
func (treeBuilder *TreeBuilder) Add(entry types.Entry) {
	if !entry.IsBlob() || entry.Path == "" {
		return
	}
	segments := strings.Split(entry.Path, pathSeparator)
	current := treeBuilder.root
	fullPath := ""
	for segmentIndex, segment := range segments {
		if fullPath == "" {
			fullPath = segment
		} else {
			fullPath = fullPath + pathSeparator + segment
		}
		isLastSegment := segmentIndex == len(segments)-1
		child, exists := treeBuilder.index[fullPath]
		if !exists {
			nodeType := types.NodeTypeDirectory
			if isLastSegment {
				nodeType = types.NodeTypeFile
			}
			child = newTreeNode(segment, fullPath, nodeType)
			treeBuilder.index[fullPath] = child
			current.Children = append(current.Children, child)
		}
		if isLastSegment {
			child.Size = entry.Size
		} else if child.Type == types.NodeTypeFile {
			child.Type = types.NodeTypeDirectory
			child.Size = 0
		}
		current = child
	}
}

// Root returns the root node built so far.
func (treeBuilder *TreeBuilder) Root() *types.TreeNode {
	return treeBuilder.root
}

func newTreeNode(name string, path string, nodeType string) *types.TreeNode {
	return &types.TreeNode{
		Name:     name,
		Path:     path,
		Type:     nodeType,
		Children: []*types.TreeNode{},
	}
}
