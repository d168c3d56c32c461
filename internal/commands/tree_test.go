package commands_test

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/temirov/codeecho/internal/commands"
	"github.com/temirov/codeecho/internal/output"
	"github.com/temirov/codeecho/internal/types"
)

// nodeSummary captures the order-insensitive shape of a node.
type nodeSummary struct {
	name     string
	nodeType string
	size     int64
	children int
}

func blob(path string, size int64) types.Entry {
	return types.Entry{Path: path, Kind: types.EntryKindBlob, Size: size, ContentRef: "sha-" + path}
}

func treeEntry(path string) types.Entry {
	return types.Entry{Path: path, Kind: types.EntryKindTree}
}

func flattenTree(root *types.TreeNode) map[string]nodeSummary {
	summaries := make(map[string]nodeSummary)
	var visit func(node *types.TreeNode)
	visit = func(node *types.TreeNode) {
		summaries[node.Path] = nodeSummary{name: node.Name, nodeType: node.Type, size: node.Size, children: len(node.Children)}
		for _, child := range node.Children {
			visit(child)
		}
	}
	visit(root)
	return summaries
}

// checkStructure verifies path composition, type and size invariants and
// returns the total file size beneath node.
func checkStructure(testingHandle *testing.T, node *types.TreeNode, parentPath string) int64 {
	testingHandle.Helper()
	if node.Path != "" {
		expectedPath := node.Name
		if parentPath != "" {
			expectedPath = parentPath + "/" + node.Name
		}
		if node.Path != expectedPath {
			testingHandle.Fatalf("node path %q does not match parent %q and name %q", node.Path, parentPath, node.Name)
		}
	}
	if node.Type == types.NodeTypeFile {
		if len(node.Children) != 0 {
			testingHandle.Fatalf("file %q has children", node.Path)
		}
		return node.Size
	}
	seenNames := make(map[string]struct{})
	var descendantTotal int64
	for _, child := range node.Children {
		if _, duplicate := seenNames[child.Name]; duplicate {
			testingHandle.Fatalf("duplicate child %q under %q", child.Name, node.Path)
		}
		seenNames[child.Name] = struct{}{}
		descendantTotal += checkStructure(testingHandle, child, node.Path)
	}
	if node.Size != descendantTotal {
		testingHandle.Fatalf("directory %q size %d, descendants sum to %d", node.Path, node.Size, descendantTotal)
	}
	return descendantTotal
}

func randomEntries(generator *rand.Rand) []types.Entry {
	segmentNames := []string{"src", "lib", "a", "b", "docs", "Test", "util", "x_y"}
	seen := make(map[string]struct{})
	var entries []types.Entry
	entryCount := 1 + generator.Intn(40)
	for len(entries) < entryCount {
		depth := 1 + generator.Intn(5)
		segments := make([]string, depth)
		for index := range segments {
			segments[index] = segmentNames[generator.Intn(len(segmentNames))]
		}
		segments[depth-1] = fmt.Sprintf("file%d.txt", generator.Intn(6))
		path := strings.Join(segments, "/")
		if _, exists := seen[path]; exists {
			continue
		}
		seen[path] = struct{}{}
		entries = append(entries, blob(path, int64(generator.Intn(5000))))
		if depth > 1 && generator.Intn(3) == 0 {
			entries = append(entries, treeEntry(strings.Join(segments[:depth-1], "/")))
		}
	}
	return entries
}

func TestBuildTreeEndToEndScenario(testingHandle *testing.T) {
	entries := []types.Entry{
		blob("a/b.txt", 10),
		blob("a/c.png", 20),
		blob("readme.md", 5),
	}
	root := commands.BuildTree(entries)
	if root.Path != "" || root.Name != "" || root.Type != types.NodeTypeDirectory {
		testingHandle.Fatalf("unexpected root %+v", root)
	}
	if root.Size != 35 {
		testingHandle.Fatalf("expected root size 35, got %d", root.Size)
	}
	summaries := flattenTree(root)
	expected := map[string]nodeSummary{
		"":          {name: "", nodeType: types.NodeTypeDirectory, size: 35, children: 2},
		"a":         {name: "a", nodeType: types.NodeTypeDirectory, size: 30, children: 2},
		"a/b.txt":   {name: "b.txt", nodeType: types.NodeTypeFile, size: 10, children: 0},
		"a/c.png":   {name: "c.png", nodeType: types.NodeTypeFile, size: 20, children: 0},
		"readme.md": {name: "readme.md", nodeType: types.NodeTypeFile, size: 5, children: 0},
	}
	if len(summaries) != len(expected) {
		testingHandle.Fatalf("expected %d nodes, got %d", len(expected), len(summaries))
	}
	for path, expectedSummary := range expected {
		if summaries[path] != expectedSummary {
			testingHandle.Fatalf("node %q: expected %+v, got %+v", path, expectedSummary, summaries[path])
		}
	}
}

func TestBuildTreeIgnoresTreeEntriesAndEmptyPaths(testingHandle *testing.T) {
	entries := []types.Entry{
		treeEntry("empty"),
		treeEntry("src"),
		blob("src/main.go", 3),
		blob("", 9),
	}
	root := commands.BuildTree(entries)
	summaries := flattenTree(root)
	if _, exists := summaries["empty"]; exists {
		testingHandle.Fatalf("empty directory must not be materialized")
	}
	if len(root.Children) != 1 || root.Children[0].Name != "src" {
		testingHandle.Fatalf("expected only src under root, got %+v", root.Children)
	}
	if root.Size != 3 {
		testingHandle.Fatalf("expected root size 3, got %d", root.Size)
	}
}

func TestBuildTreeEmptyListing(testingHandle *testing.T) {
	root := commands.BuildTree(nil)
	if root == nil || root.Type != types.NodeTypeDirectory || len(root.Children) != 0 || root.Size != 0 {
		testingHandle.Fatalf("unexpected empty tree %+v", root)
	}
}

func TestBuildTreePromotesFileWhenPathDescendsThroughIt(testingHandle *testing.T) {
	root := commands.BuildTree([]types.Entry{blob("a", 4), blob("a/b", 6)})
	summaries := flattenTree(root)
	if summaries["a"].nodeType != types.NodeTypeDirectory || summaries["a"].size != 6 {
		testingHandle.Fatalf("expected a to become a directory of size 6, got %+v", summaries["a"])
	}
}

func TestBuildTreeInvariantsOnRandomListings(testingHandle *testing.T) {
	generator := rand.New(rand.NewSource(42))
	for iteration := 0; iteration < 200; iteration++ {
		entries := randomEntries(generator)
		root := commands.BuildTree(entries)
		var expectedTotal int64
		for _, entry := range entries {
			expectedTotal += entry.Size
		}
		if total := checkStructure(testingHandle, root, ""); total != expectedTotal {
			testingHandle.Fatalf("iteration %d: total %d, expected %d", iteration, total, expectedTotal)
		}
		if fileCount := commands.CountFiles(root); fileCount != countBlobs(entries) {
			testingHandle.Fatalf("iteration %d: %d files, expected %d", iteration, fileCount, countBlobs(entries))
		}
	}
}

func TestBuildTreeIsOrderIndependent(testingHandle *testing.T) {
	generator := rand.New(rand.NewSource(7))
	for iteration := 0; iteration < 100; iteration++ {
		entries := randomEntries(generator)
		permuted := append([]types.Entry(nil), entries...)
		generator.Shuffle(len(permuted), func(left, right int) {
			permuted[left], permuted[right] = permuted[right], permuted[left]
		})
		original := flattenTree(commands.BuildTree(entries))
		shuffled := flattenTree(commands.BuildTree(permuted))
		if len(original) != len(shuffled) {
			testingHandle.Fatalf("iteration %d: node counts differ", iteration)
		}
		for path, summary := range original {
			if shuffled[path] != summary {
				testingHandle.Fatalf("iteration %d: node %q differs: %+v vs %+v", iteration, path, summary, shuffled[path])
			}
		}
		if output.RenderTree(commands.BuildTree(entries)) != output.RenderTree(commands.BuildTree(permuted)) {
			testingHandle.Fatalf("iteration %d: renderings differ", iteration)
		}
	}
}

func TestAggregateSizesIsIdempotent(testingHandle *testing.T) {
	generator := rand.New(rand.NewSource(3))
	root := commands.BuildTree(randomEntries(generator))
	before := flattenTree(root)
	firstTotal := commands.AggregateSizes(root)
	secondTotal := commands.AggregateSizes(root)
	if firstTotal != secondTotal || firstTotal != root.Size {
		testingHandle.Fatalf("totals differ: %d vs %d", firstTotal, secondTotal)
	}
	after := flattenTree(root)
	for path, summary := range before {
		if after[path] != summary {
			testingHandle.Fatalf("node %q changed: %+v vs %+v", path, summary, after[path])
		}
	}
}

func TestRenderedSiblingsAreSorted(testingHandle *testing.T) {
	generator := rand.New(rand.NewSource(11))
	for iteration := 0; iteration < 50; iteration++ {
		root := commands.BuildTree(randomEntries(generator))
		var check func(node *types.TreeNode)
		check = func(node *types.TreeNode) {
			sorted := output.SortedChildren(node)
			for index := 1; index < len(sorted); index++ {
				if sorted[index-1].Name >= sorted[index].Name {
					testingHandle.Fatalf("siblings out of order under %q: %q before %q", node.Path, sorted[index-1].Name, sorted[index].Name)
				}
			}
			for _, child := range node.Children {
				check(child)
			}
		}
		check(root)
	}
}

func countBlobs(entries []types.Entry) int {
	count := 0
	for _, entry := range entries {
		if entry.IsBlob() && entry.Path != "" {
			count++
		}
	}
	return count
}
