package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/temirov/codeecho/internal/commands"
	"github.com/temirov/codeecho/internal/metrics"
	"github.com/temirov/codeecho/internal/types"
	"github.com/temirov/codeecho/internal/utils"
)

const (
	operationFolderStructure = "folder_structure"
	operationExport          = "export"
	internalErrorMessage     = "Internal Server Error"
)

var errMissingParameter = errors.New("missing required query parameter")

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ToggleRequest is the request body for POST /api/exclusions/toggle.
type ToggleRequest struct {
	Node       *types.TreeNode `json:"node"`
	Exclusions []string        `json:"exclusions"`
}

// ToggleResponse is the response body for POST /api/exclusions/toggle.
type ToggleResponse struct {
	Exclusions []string `json:"exclusions"`
}

// missingParameterError names the absent query parameter.
type missingParameterError struct {
	name string
}

func (missing missingParameterError) Error() string {
	return "missing query parameter: " + missing.name
}

func (missing missingParameterError) Unwrap() error {
	return errMissingParameter
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) handleFolderStructure(c echo.Context) error {
	request, requestError := repositoryRequest(c, true)
	if requestError != nil {
		return requestError
	}
	source, sourceError := s.source(c)
	if sourceError != nil {
		return sourceError
	}
	root, structureError := commands.GetFolderStructure(c.Request().Context(), source, request, s.logger)
	metrics.RecordOperation(operationFolderStructure, structureError == nil)
	if structureError != nil {
		return structureError
	}
	return c.JSON(http.StatusOK, root)
}

func (s *Server) handleFetchRepo(c echo.Context) error {
	request, requestError := repositoryRequest(c, true)
	if requestError != nil {
		return requestError
	}
	exclusions, parseError := utils.ParseExclusions(c.QueryParam("exclusions"))
	if parseError != nil {
		s.logger.Warn("ignoring malformed exclusions", zap.Error(parseError))
	}
	request.Exclusions = exclusions

	source, sourceError := s.source(c)
	if sourceError != nil {
		return sourceError
	}
	exporter := commands.NewExporter(source, commands.ExportOptions{
		TokenCounter: s.tokenCounter,
		Concurrency:  s.config.FetchConcurrency,
		Logger:       s.logger,
		Recorder:     metrics.ExportRecorder{},
	})
	result, exportError := exporter.Export(c.Request().Context(), request)
	metrics.RecordOperation(operationExport, exportError == nil)
	if exportError != nil {
		return exportError
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleBranches(c echo.Context) error {
	request, requestError := repositoryRequest(c, false)
	if requestError != nil {
		return requestError
	}
	source, sourceError := s.source(c)
	if sourceError != nil {
		return sourceError
	}
	branches, listError := source.ListBranches(c.Request().Context(), request.Repository)
	if listError != nil {
		return listError
	}
	return c.JSON(http.StatusOK, branches)
}

func (s *Server) handleRepositories(c echo.Context) error {
	source, sourceError := s.source(c)
	if sourceError != nil {
		return sourceError
	}
	repositories, listError := source.ListRepositories(c.Request().Context())
	if listError != nil {
		return listError
	}
	return c.JSON(http.StatusOK, repositories)
}

func (s *Server) handleToggleExclusions(c echo.Context) error {
	var request ToggleRequest
	if bindError := c.Bind(&request); bindError != nil {
		s.logger.Warn("invalid toggle request", zap.Error(bindError))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if request.Node == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "node field is required")
	}
	return c.JSON(http.StatusOK, ToggleResponse{Exclusions: commands.ToggleExclusions(request.Node, request.Exclusions)})
}

// source builds the per-request source from the token placed by requireToken.
func (s *Server) source(c echo.Context) (RepositorySource, error) {
	token, _ := c.Get(tokenContextKey).(string)
	return s.sourceFactory(c.Request().Context(), token)
}

// repositoryRequest reads owner, repo and optionally branch from the query.
func repositoryRequest(c echo.Context, branchRequired bool) (types.RepositoryRequest, error) {
	owner := strings.TrimSpace(c.QueryParam("owner"))
	repository := strings.TrimSpace(c.QueryParam("repo"))
	branch := strings.TrimSpace(c.QueryParam("branch"))
	switch {
	case owner == "":
		return types.RepositoryRequest{}, missingParameterError{name: "owner"}
	case repository == "":
		return types.RepositoryRequest{}, missingParameterError{name: "repo"}
	case branchRequired && branch == "":
		return types.RepositoryRequest{}, missingParameterError{name: "branch"}
	}
	return types.RepositoryRequest{
		Repository: types.Repository{Owner: owner, Name: repository},
		Branch:     branch,
	}, nil
}

// handleError maps handler errors to status codes and the error body.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := http.StatusInternalServerError
	message := internalErrorMessage

	var httpError *echo.HTTPError
	var upstreamError *types.UpstreamError
	switch {
	case errors.As(err, &httpError):
		status = httpError.Code
		message = http.StatusText(status)
		if text, isText := httpError.Message.(string); isText {
			message = text
		}
	case errors.Is(err, errMissingParameter):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.As(err, &upstreamError):
		status = http.StatusBadRequest
		message = upstreamError.Message
		s.logger.Debug("upstream lookup failed", zap.Error(err))
	case errors.Is(err, context.Canceled):
		s.logger.Debug("request canceled", zap.Error(err))
	default:
		s.logger.Error("request failed", zap.Error(err))
	}

	var writeError error
	if c.Request().Method == http.MethodHead {
		writeError = c.NoContent(status)
	} else {
		writeError = c.JSON(status, ErrorResponse{Error: message})
	}
	if writeError != nil {
		s.logger.Error("failed to write error response", zap.Error(writeError))
	}
}
