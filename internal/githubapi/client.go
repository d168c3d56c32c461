// Package githubapi reads repository listings and blobs from the GitHub REST API.
package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v57/github"
	"github.com/temirov/codeecho/internal/types"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com/"
	// DefaultUserAgent identifies codeecho to the API.
	DefaultUserAgent = "codeecho"
	// listPageSize is the single page size used for branch and repository listings.
	listPageSize = 100

	branchPathFormat   = "repos/%v/%v/branches/%v"
	errorBaseURLFormat = "invalid GitHub API base URL %q: %w"
)

// ErrMissingToken is returned when no access token is supplied.
var ErrMissingToken = errors.New("GitHub token not set")

// Config holds GitHub client settings.
type Config struct {
	BaseURL   string
	Token     string
	UserAgent string
	// HTTPClient is the transport wrapped by the token source; nil uses http.DefaultClient.
	HTTPClient *http.Client
}

// Client implements the repository source on top of go-github.
type Client struct {
	api    *github.Client
	logger *zap.Logger
}

// NewClient creates a GitHub client authenticated with a static token.
func NewClient(ctx context.Context, config Config, logger *zap.Logger) (*Client, error) {
	token := strings.TrimSpace(config.Token)
	if token == "" {
		return nil, ErrMissingToken
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, config.HTTPClient)
	}

	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	api := github.NewClient(oauth2.NewClient(ctx, tokenSource))

	baseURL := strings.TrimSpace(config.BaseURL)
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	parsedBaseURL, parseError := url.Parse(baseURL)
	if parseError != nil {
		return nil, fmt.Errorf(errorBaseURLFormat, baseURL, parseError)
	}
	api.BaseURL = parsedBaseURL

	api.UserAgent = DefaultUserAgent
	if userAgent := strings.TrimSpace(config.UserAgent); userAgent != "" {
		api.UserAgent = userAgent
	}
	return &Client{api: api, logger: logger}, nil
}

// ResolveBranch returns the head commit SHA of branch. The request goes
// through Client.Do so that error replies carry GitHub's message.
func (client *Client) ResolveBranch(ctx context.Context, repository types.Repository, branch string) (string, error) {
	branchPath := fmt.Sprintf(branchPathFormat, repository.Owner, repository.Name, url.PathEscape(branch))
	request, requestBuildError := client.api.NewRequest(http.MethodGet, branchPath, nil)
	if requestBuildError != nil {
		return "", requestBuildError
	}
	branchDetails := &github.Branch{}
	if _, requestError := client.api.Do(ctx, request, branchDetails); requestError != nil {
		return "", classifyError(requestError)
	}
	commitSHA := branchDetails.GetCommit().GetSHA()
	if commitSHA == "" {
		return "", &types.UpstreamError{Message: "branch has no commit"}
	}
	return commitSHA, nil
}

// ListEntries lists every entry reachable from commitSHA. Blob entries
// carry their blob SHA as the content reference.
func (client *Client) ListEntries(ctx context.Context, repository types.Repository, commitSHA string) ([]types.Entry, error) {
	tree, _, requestError := client.api.Git.GetTree(ctx, repository.Owner, repository.Name, commitSHA, true)
	if requestError != nil {
		return nil, classifyError(requestError)
	}
	if tree.GetTruncated() {
		client.logger.Warn("tree listing truncated by GitHub",
			zap.String("repository", repository.FullName()),
			zap.String("commit", commitSHA),
			zap.Int("entries", len(tree.Entries)),
		)
	}
	entries := make([]types.Entry, 0, len(tree.Entries))
	for _, treeEntry := range tree.Entries {
		entries = append(entries, types.Entry{
			Path:       treeEntry.GetPath(),
			Kind:       treeEntry.GetType(),
			Size:       int64(treeEntry.GetSize()),
			ContentRef: treeEntry.GetSHA(),
		})
	}
	return entries, nil
}

// FetchBlob retrieves the blob named by contentRef.
func (client *Client) FetchBlob(ctx context.Context, repository types.Repository, contentRef string) (types.Blob, error) {
	blob, _, requestError := client.api.Git.GetBlob(ctx, repository.Owner, repository.Name, contentRef)
	if requestError != nil {
		return types.Blob{}, classifyError(requestError)
	}
	return types.Blob{Encoding: blob.GetEncoding(), Content: blob.GetContent()}, nil
}

// ListBranches returns the first page of branches of repository.
func (client *Client) ListBranches(ctx context.Context, repository types.Repository) ([]types.BranchSummary, error) {
	options := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: listPageSize}}
	branches, _, requestError := client.api.Repositories.ListBranches(ctx, repository.Owner, repository.Name, options)
	if requestError != nil {
		return nil, classifyError(requestError)
	}
	summaries := make([]types.BranchSummary, 0, len(branches))
	for _, branch := range branches {
		summaries = append(summaries, types.BranchSummary{Name: branch.GetName(), CommitSHA: branch.GetCommit().GetSHA()})
	}
	return summaries, nil
}

// ListRepositories returns the first page of repositories visible to the
// authenticated user.
func (client *Client) ListRepositories(ctx context.Context) ([]types.RepositorySummary, error) {
	options := &github.RepositoryListOptions{ListOptions: github.ListOptions{PerPage: listPageSize}}
	repositories, _, requestError := client.api.Repositories.List(ctx, "", options)
	if requestError != nil {
		return nil, classifyError(requestError)
	}
	summaries := make([]types.RepositorySummary, 0, len(repositories))
	for _, repository := range repositories {
		summaries = append(summaries, types.RepositorySummary{
			Owner:         repository.GetOwner().GetLogin(),
			Name:          repository.GetName(),
			FullName:      repository.GetFullName(),
			DefaultBranch: repository.GetDefaultBranch(),
			Private:       repository.GetPrivate(),
		})
	}
	return summaries, nil
}

// classifyError converts GitHub error payloads into UpstreamError and
// leaves transport failures untouched.
func classifyError(requestError error) error {
	var rateLimitError *github.RateLimitError
	if errors.As(requestError, &rateLimitError) {
		return &types.UpstreamError{Message: rateLimitError.Message, StatusCode: responseStatus(rateLimitError.Response)}
	}
	var abuseError *github.AbuseRateLimitError
	if errors.As(requestError, &abuseError) {
		return &types.UpstreamError{Message: abuseError.Message, StatusCode: responseStatus(abuseError.Response)}
	}
	var errorResponse *github.ErrorResponse
	if errors.As(requestError, &errorResponse) {
		message := errorResponse.Message
		if message == "" {
			message = http.StatusText(responseStatus(errorResponse.Response))
		}
		return &types.UpstreamError{Message: message, StatusCode: responseStatus(errorResponse.Response)}
	}
	return requestError
}

func responseStatus(response *http.Response) int {
	if response == nil {
		return 0
	}
	return response.StatusCode
}
