package output_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/temirov/codeecho/internal/output"
	"github.com/temirov/codeecho/internal/types"
)

func directory(name string, path string, children ...*types.TreeNode) *types.TreeNode {
	return &types.TreeNode{Name: name, Path: path, Type: types.NodeTypeDirectory, Children: children}
}

func file(name string, path string, size int64) *types.TreeNode {
	return &types.TreeNode{Name: name, Path: path, Type: types.NodeTypeFile, Children: []*types.TreeNode{}, Size: size}
}

// renderedTreeExpected is the rendering of sampleTree.
const renderedTreeExpected = "├── a\n" +
	"│   ├── b.txt\n" +
	"│   └── c.png\n" +
	"├── docs\n" +
	"│   └── guide\n" +
	"│       └── intro.md\n" +
	"└── readme.md\n"

func sampleTree() *types.TreeNode {
	return directory("", "",
		file("readme.md", "readme.md", 5),
		directory("docs", "docs",
			directory("guide", "docs/guide",
				file("intro.md", "docs/guide/intro.md", 7),
			),
		),
		directory("a", "a",
			file("c.png", "a/c.png", 20),
			file("b.txt", "a/b.txt", 10),
		),
	)
}

func TestRenderTree(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		root     *types.TreeNode
		expected string
	}{
		{name: "nil root", root: nil, expected: ""},
		{name: "empty root", root: directory("", ""), expected: ""},
		{name: "sorted with connectors", root: sampleTree(), expected: renderedTreeExpected},
		{
			name: "codepoint order puts upper case first",
			root: directory("", "",
				file("beta", "beta", 1),
				file("Zeta", "Zeta", 1),
				file("alpha", "alpha", 1),
			),
			expected: "├── Zeta\n├── alpha\n└── beta\n",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			if rendered := output.RenderTree(testCase.root); rendered != testCase.expected {
				t.Fatalf("unexpected rendering:\n%q\nexpected:\n%q", rendered, testCase.expected)
			}
		})
	}
}

func TestRenderTreeDoesNotReorderChildren(t *testing.T) {
	t.Parallel()

	root := sampleTree()
	_ = output.RenderTree(root)
	if root.Children[0].Name != "readme.md" || root.Children[2].Name != "a" {
		t.Fatalf("rendering must not modify stored child order")
	}
}

func TestRenderTreeHandlesDeepNesting(t *testing.T) {
	t.Parallel()

	const depth = 1000
	root := directory("", "")
	current := root
	for level := 0; level < depth; level++ {
		child := directory("d", "")
		current.Children = append(current.Children, child)
		current = child
	}
	rendered := output.RenderTree(root)
	if lineCount := strings.Count(rendered, "\n"); lineCount != depth {
		t.Fatalf("expected %d lines, got %d", depth, lineCount)
	}
}

func TestWriteTreeWithSizes(t *testing.T) {
	t.Parallel()

	root := directory("", "", directory("a", "a", file("b.txt", "a/b.txt", 2048)))
	root.Children[0].Size = 2048
	var buffer bytes.Buffer
	output.WriteTree(&buffer, root, output.TreeRenderOptions{ShowSizes: true})
	expected := "└── a (2.00 KB)\n    └── b.txt (2.00 KB)\n"
	if buffer.String() != expected {
		t.Fatalf("unexpected rendering %q", buffer.String())
	}
}

func TestDocument(t *testing.T) {
	t.Parallel()

	document := output.NewDocument("octo/repo", "main", "└── readme.md\n")
	document.AppendFile("readme.md", "hello")
	expected := "# Repository: octo/repo\n" +
		"**Branch:** main\n\n" +
		"## Folder Structure:\n" +
		"```\n└── readme.md\n\n```\n\n" +
		"## File: readme.md\n" +
		"```\nhello\n```\n\n"
	if document.String() != expected {
		t.Fatalf("unexpected document:\n%q\nexpected:\n%q", document.String(), expected)
	}
	if document.FileCount() != 1 {
		t.Fatalf("expected one file block, got %d", document.FileCount())
	}
}

func TestFormatSummaryLine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		files    int
		skipped  int
		tokens   int
		model    string
		expected string
	}{
		{name: "single file", files: 1, tokens: 3, expected: "Summary: 1 file, 3 tokens"},
		{name: "skipped with model", files: 2, skipped: 1, tokens: 9, model: "approximate", expected: "Summary: 2 files, 1 skipped, 9 tokens (model: approximate)"},
	}
	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			result := output.FormatSummaryLine(testCase.files, testCase.skipped, testCase.tokens, testCase.model)
			if result != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, result)
			}
		})
	}
}

func TestRenderJSONUsesNodeFieldNames(t *testing.T) {
	t.Parallel()

	rendered, renderError := output.RenderJSON(directory("", "", file("x", "x", 1)))
	if renderError != nil {
		t.Fatalf("RenderJSON error: %v", renderError)
	}
	for _, fragment := range []string{`"name": ""`, `"path": "x"`, `"type": "directory"`, `"children": []`, `"size": 1`} {
		if !strings.Contains(rendered, fragment) {
			t.Fatalf("expected %s in %s", fragment, rendered)
		}
	}
}
