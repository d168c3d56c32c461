package commands

import (
	"github.com/temirov/codeecho/internal/types"
	"github.com/temirov/codeecho/internal/utils"
)

// ToggleExclusions flips the inclusion state of node and all of its
// descendants. When node is currently included its path and every
// descendant path are added to the exclusions; otherwise all of them are
// removed. The root has no path of its own, so it counts as excluded once
// any descendant is. The input slice is left untouched.
func ToggleExclusions(node *types.TreeNode, exclusions []string) []string {
	if node == nil {
		return append([]string{}, exclusions...)
	}
	subtreePaths := DescendantPaths(node)
	if !isToggledOff(node, subtreePaths, exclusions) {
		combined := append(append([]string{}, exclusions...), subtreePaths...)
		return utils.NormalizeExclusions(combined)
	}

	removed := make(map[string]struct{}, len(subtreePaths))
	for _, path := range subtreePaths {
		removed[path] = struct{}{}
	}
	remaining := make([]string, 0, len(exclusions))
	for _, exclusion := range exclusions {
		if _, isRemoved := removed[exclusion]; isRemoved {
			continue
		}
		remaining = append(remaining, exclusion)
	}
	return remaining
}

func isToggledOff(node *types.TreeNode, subtreePaths []string, exclusions []string) bool {
	if node.Path != "" {
		return utils.ContainsString(exclusions, node.Path)
	}
	for _, path := range subtreePaths {
		if path != "" && utils.ContainsString(exclusions, path) {
			return true
		}
	}
	return false
}

// DescendantPaths returns the path of node followed by the paths of all
// of its descendants in depth-first order.
func DescendantPaths(node *types.TreeNode) []string {
	var paths []string
	stack := []*types.TreeNode{node}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if current == nil {
			continue
		}
		paths = append(paths, current.Path)
		for childIndex := len(current.Children) - 1; childIndex >= 0; childIndex-- {
			stack = append(stack, current.Children[childIndex])
		}
	}
	return paths
}
