// Package mlflow is a client for the model registry part of the MLflow
// tracking server REST API.
package mlflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/odahu/odahu-mlflow-aws/pkg/logger"
)

const apiPrefix = "/api/2.0/mlflow"

type Client interface {
	ListRegisteredModels(ctx context.Context) ([]RegisteredModel, error)
	SearchRegisteredModels(ctx context.Context, filter string) ([]RegisteredModel, error)
	SearchModelVersions(ctx context.Context, filter string) ([]ModelVersion, error)
	GetModelVersion(ctx context.Context, name, version string) (*ModelVersion, error)
	ListArtifacts(ctx context.Context, runID, path string) ([]FileInfo, error)
	DownloadArtifacts(ctx context.Context, runID, path, destDir string) (string, error)
}

type clientImpl struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient builds a registry client for the given tracking server URL.
func NewClient(trackingURI string) Client {
	return &clientImpl{
		BaseURL: strings.TrimRight(trackingURI, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Tag is a key/value annotation on a model or a model version.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type ModelVersion struct {
	Name                 string `json:"name"`
	Version              string `json:"version"`
	CreationTimestamp    int64  `json:"creation_timestamp"`
	LastUpdatedTimestamp int64  `json:"last_updated_timestamp"`
	UserID               string `json:"user_id"`
	CurrentStage         string `json:"current_stage"`
	Description          string `json:"description"`
	Source               string `json:"source"`
	RunID                string `json:"run_id"`
	RunLink              string `json:"run_link"`
	Status               string `json:"status"`
	Tags                 []Tag  `json:"tags"`
}

type RegisteredModel struct {
	Name                 string         `json:"name"`
	CreationTimestamp    int64          `json:"creation_timestamp"`
	LastUpdatedTimestamp int64          `json:"last_updated_timestamp"`
	Description          string         `json:"description"`
	LatestVersions       []ModelVersion `json:"latest_versions"`
	Tags                 []Tag          `json:"tags"`
}

// FileInfo describes one artifact of a run.
type FileInfo struct {
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	FileSize int64  `json:"file_size"`
}

type registeredModelsResponse struct {
	RegisteredModels []RegisteredModel `json:"registered_models"`
	NextPageToken    string            `json:"next_page_token"`
}

type modelVersionsResponse struct {
	ModelVersions []ModelVersion `json:"model_versions"`
	NextPageToken string         `json:"next_page_token"`
}

type modelVersionResponse struct {
	ModelVersion ModelVersion `json:"model_version"`
}

type artifactsResponse struct {
	RootURI       string     `json:"root_uri"`
	Files         []FileInfo `json:"files"`
	NextPageToken string     `json:"next_page_token"`
}

func (c *clientImpl) ListRegisteredModels(ctx context.Context) ([]RegisteredModel, error) {
	var models []RegisteredModel
	pageToken := ""
	for {
		query := url.Values{}
		if pageToken != "" {
			query.Set("page_token", pageToken)
		}
		var response registeredModelsResponse
		if err := c.apiCall(ctx, "/registered-models/list", query, &response); err != nil {
			return nil, err
		}
		models = append(models, response.RegisteredModels...)
		if response.NextPageToken == "" {
			return models, nil
		}
		pageToken = response.NextPageToken
	}
}

func (c *clientImpl) SearchRegisteredModels(ctx context.Context, filter string) ([]RegisteredModel, error) {
	query := url.Values{}
	if filter != "" {
		query.Set("filter", filter)
	}
	var response registeredModelsResponse
	if err := c.apiCall(ctx, "/registered-models/search", query, &response); err != nil {
		return nil, err
	}
	return response.RegisteredModels, nil
}

func (c *clientImpl) SearchModelVersions(ctx context.Context, filter string) ([]ModelVersion, error) {
	query := url.Values{}
	if filter != "" {
		query.Set("filter", filter)
	}
	var response modelVersionsResponse
	if err := c.apiCall(ctx, "/model-versions/search", query, &response); err != nil {
		return nil, err
	}
	return response.ModelVersions, nil
}

func (c *clientImpl) GetModelVersion(ctx context.Context, name, version string) (*ModelVersion, error) {
	query := url.Values{}
	query.Set("name", name)
	query.Set("version", version)
	var response modelVersionResponse
	if err := c.apiCall(ctx, "/model-versions/get", query, &response); err != nil {
		return nil, err
	}
	return &response.ModelVersion, nil
}

func (c *clientImpl) ListArtifacts(ctx context.Context, runID, path string) ([]FileInfo, error) {
	query := url.Values{}
	query.Set("run_id", runID)
	if path != "" {
		query.Set("path", path)
	}
	var response artifactsResponse
	if err := c.apiCall(ctx, "/artifacts/list", query, &response); err != nil {
		return nil, err
	}
	return response.Files, nil
}

// DownloadArtifacts fetches the artifact subtree of a run into destDir,
// preserving the artifact paths, and returns the local path of the subtree
// root.
func (c *clientImpl) DownloadArtifacts(ctx context.Context, runID, path, destDir string) (string, error) {
	files, err := c.ListArtifacts(ctx, runID, path)
	if err != nil {
		return "", err
	}
	for _, file := range files {
		if file.IsDir {
			if _, err := c.DownloadArtifacts(ctx, runID, file.Path, destDir); err != nil {
				return "", err
			}
			continue
		}
		if err := c.downloadFile(ctx, runID, file.Path, filepath.Join(destDir, filepath.FromSlash(file.Path))); err != nil {
			return "", err
		}
	}
	return filepath.Join(destDir, filepath.FromSlash(path)), nil
}

func (c *clientImpl) downloadFile(ctx context.Context, runID, path, target string) error {
	query := url.Values{}
	query.Set("run_id", runID)
	query.Set("path", path)
	endpoint := c.BaseURL + "/get-artifact?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	logger.Debug(fmt.Sprintf("Downloading artifact %s of run %s", path, runID))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to download artifact %s: HTTP %d: %s", path, resp.StatusCode, string(body))
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create artifact directory: %w", err)
	}
	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create artifact file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("failed to write artifact file: %w", err)
	}
	return nil
}

func (c *clientImpl) apiCall(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.BaseURL + apiPrefix + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make HTTP request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("mlflow API call %s failed: HTTP %d: %s", path, resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
