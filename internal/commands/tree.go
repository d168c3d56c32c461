// Package commands contains the core logic for data collection for each command.
package commands

import (
	"context"
	"fmt"

	"github.com/temirov/codeecho/internal/types"
	"go.uber.org/zap"
)

const (
	// errorResolveBranchFormat is used when the branch cannot be resolved to a commit.
	errorResolveBranchFormat = "resolving branch %s of %s: %w"
	// errorListEntriesFormat is used when the recursive listing fails.
	errorListEntriesFormat = "listing tree %s of %s: %w"
)

// Source supplies repository listings and blob payloads.
type Source interface {
	ResolveBranch(ctx context.Context, repository types.Repository, branch string) (string, error)
	ListEntries(ctx context.Context, repository types.Repository, commitSHA string) ([]types.Entry, error)
	FetchBlob(ctx context.Context, repository types.Repository, contentRef string) (types.Blob, error)
}

// AggregateSizes sets every directory size to the sum of its descendant
// file sizes and returns the total for node. Running it again on the same
// tree yields the same sizes.
func AggregateSizes(node *types.TreeNode) int64 {
	if node == nil {
		return 0
	}
	if node.Type == types.NodeTypeFile {
		return node.Size
	}
	var totalSize int64
	for _, child := range node.Children {
		totalSize += AggregateSizes(child)
	}
	node.Size = totalSize
	return totalSize
}

// CountFiles returns the number of file nodes beneath node.
func CountFiles(node *types.TreeNode) int {
	if node == nil {
		return 0
	}
	if node.Type == types.NodeTypeFile {
		return 1
	}
	total := 0
	for _, child := range node.Children {
		total += CountFiles(child)
	}
	return total
}

// GetFolderStructure resolves the requested branch, lists it recursively
// and returns the aggregated folder tree.
func GetFolderStructure(ctx context.Context, source Source, request types.RepositoryRequest, logger *zap.Logger) (*types.TreeNode, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, listError := listRepository(ctx, source, request)
	if listError != nil {
		return nil, listError
	}
	root := BuildTree(entries)
	logger.Debug("folder structure built",
		zap.String("repository", request.Repository.FullName()),
		zap.String("branch", request.Branch),
		zap.Int("entries", len(entries)),
		zap.Int("files", CountFiles(root)),
		zap.Int64("bytes", root.Size),
	)
	return root, nil
}

// listRepository performs branch resolution followed by the recursive listing.
func listRepository(ctx context.Context, source Source, request types.RepositoryRequest) ([]types.Entry, error) {
	fullName := request.Repository.FullName()
	commitSHA, resolveError := source.ResolveBranch(ctx, request.Repository, request.Branch)
	if resolveError != nil {
		return nil, fmt.Errorf(errorResolveBranchFormat, request.Branch, fullName, resolveError)
	}
	entries, listError := source.ListEntries(ctx, request.Repository, commitSHA)
	if listError != nil {
		return nil, fmt.Errorf(errorListEntriesFormat, commitSHA, fullName, listError)
	}
	return entries, nil
}
