package commands

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/temirov/codeecho/internal/output"
	"github.com/temirov/codeecho/internal/tokenizer"
	"github.com/temirov/codeecho/internal/types"
	"github.com/temirov/codeecho/internal/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultFetchConcurrency is the number of blobs fetched at once when unset.
	DefaultFetchConcurrency = 4

	// errorExportCanceledFormat is used when the request is abandoned mid export.
	errorExportCanceledFormat = "exporting %s: %w"
)

var (
	errUnsupportedEncoding = errors.New("blob is not base64 encoded")
	errEmptyContent        = errors.New("blob content is empty")
)

// Recorder observes export progress. Implementations must be safe for
// concurrent use.
type Recorder interface {
	FileFetched(bytes int)
	FileSkipped(reason string)
	TokensEstimated(tokens int)
}

// ExportOptions configures an export run.
type ExportOptions struct {
	TokenCounter tokenizer.Counter
	Concurrency  int
	Logger       *zap.Logger
	Recorder     Recorder
}

// fetchOutcome is the result of retrieving one listed blob.
type fetchOutcome struct {
	path       string
	content    string
	included   bool
	skipReason string
}

// Exporter assembles flattened repository documents.
type Exporter struct {
	source       Source
	tokenCounter tokenizer.Counter
	concurrency  int
	logger       *zap.Logger
	recorder     Recorder
}

// NewExporter constructs an Exporter reading from source.
func NewExporter(source Source, options ExportOptions) *Exporter {
	exporter := &Exporter{
		source:       source,
		tokenCounter: options.TokenCounter,
		concurrency:  options.Concurrency,
		logger:       options.Logger,
		recorder:     options.Recorder,
	}
	if exporter.tokenCounter == nil {
		exporter.tokenCounter = tokenizer.ApproximateCounter{}
	}
	if exporter.concurrency <= 0 {
		exporter.concurrency = DefaultFetchConcurrency
	}
	if exporter.logger == nil {
		exporter.logger = zap.NewNop()
	}
	return exporter
}

// Export resolves the branch, lists the repository and produces the
// document: header, the folder structure, then every included text file in
// listing order. Branch and listing failures abort the export; failures on
// individual files only drop that file.
func (exporter *Exporter) Export(ctx context.Context, request types.RepositoryRequest) (types.ExportResult, error) {
	entries, listError := listRepository(ctx, exporter.source, request)
	if listError != nil {
		return types.ExportResult{}, listError
	}

	fullName := request.Repository.FullName()
	root := BuildTree(entries)
	document := output.NewDocument(fullName, request.Branch, output.RenderTree(root))

	outcomes, fetchError := exporter.fetchContents(ctx, request, entries)
	if fetchError != nil {
		return types.ExportResult{}, fmt.Errorf(errorExportCanceledFormat, fullName, fetchError)
	}

	result := types.ExportResult{}
	for _, outcome := range outcomes {
		if outcome.skipReason != "" {
			result.Skipped = append(result.Skipped, types.SkippedFile{Path: outcome.path, Reason: outcome.skipReason})
			exporter.recordSkip(outcome.skipReason)
			continue
		}
		if !outcome.included {
			continue
		}
		fileTokens := tokenizer.Count(exporter.tokenCounter, outcome.content)
		document.AppendFile(outcome.path, outcome.content)
		result.TotalTokens += fileTokens
		if exporter.recorder != nil {
			exporter.recorder.TokensEstimated(fileTokens)
		}
	}
	result.Text = document.String()
	result.IncludedFiles = document.FileCount()

	exporter.logger.Info("repository exported",
		zap.String("repository", fullName),
		zap.String("branch", request.Branch),
		zap.Int("files", document.FileCount()),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("tokens", result.TotalTokens),
		zap.String("tokenizer", exporter.tokenCounter.Name()),
	)
	return result, nil
}

// fetchContents retrieves every included blob with bounded concurrency.
// Each outcome is stored at its listing index so the caller sees the
// listing order whatever order the fetches complete in.
func (exporter *Exporter) fetchContents(ctx context.Context, request types.RepositoryRequest, entries []types.Entry) ([]fetchOutcome, error) {
	outcomes := make([]fetchOutcome, len(entries))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(exporter.concurrency)

	for entryIndex, entry := range entries {
		if !entry.IsBlob() {
			continue
		}
		outcomes[entryIndex].path = entry.Path
		if utils.IsExcluded(entry.Path, request.Exclusions) {
			continue
		}
		if utils.IsBinaryPath(entry.Path) {
			outcomes[entryIndex].skipReason = types.SkipReasonBinary
			continue
		}
		entryIndex, entry := entryIndex, entry
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			content, skipReason := exporter.fetchFile(groupCtx, request.Repository, entry)
			outcomes[entryIndex].content = content
			outcomes[entryIndex].skipReason = skipReason
			outcomes[entryIndex].included = skipReason == ""
			return nil
		})
	}

	if waitError := group.Wait(); waitError != nil {
		return nil, waitError
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return outcomes, nil
}

// fetchFile retrieves and decodes one blob. Any failure is reported as a
// skip reason instead of an error.
func (exporter *Exporter) fetchFile(ctx context.Context, repository types.Repository, entry types.Entry) (string, string) {
	blob, fetchError := exporter.source.FetchBlob(ctx, repository, entry.ContentRef)
	if fetchError != nil {
		exporter.logger.Warn("skipping file: fetch failed", zap.String("path", entry.Path), zap.Error(fetchError))
		return "", types.SkipReasonFetchFailed
	}
	content, decodeError := DecodeBlob(blob)
	if decodeError != nil {
		exporter.logger.Debug("skipping file: undecodable", zap.String("path", entry.Path), zap.Error(decodeError))
		return "", types.SkipReasonUndecodable
	}
	if exporter.recorder != nil {
		exporter.recorder.FileFetched(len(content))
	}
	return content, ""
}

func (exporter *Exporter) recordSkip(reason string) {
	if exporter.recorder != nil {
		exporter.recorder.FileSkipped(reason)
	}
}

// DecodeBlob returns the text of a base64 blob with non-empty content.
// Line breaks inside the payload are ignored.
func DecodeBlob(blob types.Blob) (string, error) {
	if blob.Encoding != types.EncodingBase64 {
		return "", fmt.Errorf("%w: %q", errUnsupportedEncoding, blob.Encoding)
	}
	if blob.Content == "" {
		return "", errEmptyContent
	}
	decoded, decodeError := base64.StdEncoding.DecodeString(blob.Content)
	if decodeError != nil {
		return "", fmt.Errorf("decode blob: %w", decodeError)
	}
	return string(decoded), nil
}
