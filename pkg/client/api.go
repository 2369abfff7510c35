package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/tinarmengineering/ltc/pkg/api"
)

const fileUrlScheme = "file://"

// Api is a client for the compute service's REST interface.
type Api struct {
	rootUrl    string
	apiKey     string
	orgId      string
	nodeId     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewApi(details *ApiConnectionDetails, opts ...ApiOption) *Api {
	timeout := details.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	limit := details.RateLimit
	if limit == 0 {
		limit = DefaultRateLimit
	}
	a := &Api{
		rootUrl:    strings.TrimSuffix(details.Url, "/"),
		apiKey:     details.ApiKey,
		orgId:      details.OrgId,
		nodeId:     details.NodeId,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(limit, details.RateBurst),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Api) NodeId() string {
	return a.nodeId
}

func (a *Api) OrgId() string {
	return a.orgId
}

func (a *Api) GetJob(ctx context.Context, jobId string) (*api.Job, error) {
	job := &api.Job{}
	err := a.do(ctx, "get job", http.MethodGet, "/jobs/"+url.PathEscape(jobId), nil, nil, job)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (a *Api) CreateJob(ctx context.Context, job *api.Job) (*api.Job, error) {
	created := &api.Job{}
	err := a.do(ctx, "create job", http.MethodPost, "/jobs", nil, job, created)
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateJobStatus moves a job to status on behalf of this node.
func (a *Api) UpdateJobStatus(ctx context.Context, jobId string, status api.JobStatus) error {
	_, err := a.updateJobStatus(ctx, jobId, status, nil)
	return err
}

// UpdateJobStatusWithProgress moves a job to status and reports how far through it the job is.
func (a *Api) UpdateJobStatusWithProgress(ctx context.Context, jobId string, status api.JobStatus, percentageComplete int) (*api.StatusUpdate, error) {
	return a.updateJobStatus(ctx, jobId, status, &percentageComplete)
}

func (a *Api) updateJobStatus(ctx context.Context, jobId string, status api.JobStatus, percentageComplete *int) (*api.StatusUpdate, error) {
	query := url.Values{}
	query.Set("node_id", a.nodeId)
	if percentageComplete != nil {
		query.Set("percentage_complete", strconv.Itoa(*percentageComplete))
	}
	path := fmt.Sprintf("/jobs/%s/status/%d", url.PathEscape(jobId), int(status))
	update := &api.StatusUpdate{}
	if err := a.do(ctx, "update job status", http.MethodPut, path, query, nil, update); err != nil {
		return nil, err
	}
	return update, nil
}

// GetJobArtifact returns the artifact with the given id from the job record.
func (a *Api) GetJobArtifact(ctx context.Context, jobId string, artifactId string) (*api.Artifact, error) {
	job, err := a.GetJob(ctx, jobId)
	if err != nil {
		return nil, err
	}
	for i := range job.Artifacts {
		if job.Artifacts[i].Id == artifactId {
			return &job.Artifacts[i], nil
		}
	}
	return nil, &ErrArtifactNotFound{JobId: jobId, ArtifactId: artifactId}
}

// GetPromotedJobArtifact returns the artifact once it has been moved off the node that created it.
func (a *Api) GetPromotedJobArtifact(ctx context.Context, jobId string, artifactId string) (*api.Artifact, error) {
	artifact, err := a.GetJobArtifact(ctx, jobId, artifactId)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(artifact.Url, fileUrlScheme) {
		return nil, &ErrArtifactNotPromoted{JobId: jobId, ArtifactId: artifactId, Url: artifact.Url}
	}
	return artifact, nil
}

func (a *Api) CreateJobArtifact(ctx context.Context, jobId string, artifactType string, artifactUrl string, promote bool) (*api.Artifact, error) {
	query := url.Values{}
	query.Set("promote", queryBool(promote))
	body := &api.Artifact{CreatedOnNode: a.nodeId, Type: artifactType, Url: artifactUrl}
	created := &api.Artifact{}
	path := fmt.Sprintf("/jobs/%s/artifacts", url.PathEscape(jobId))
	if err := a.do(ctx, "create job artifact", http.MethodPost, path, query, body, created); err != nil {
		return nil, err
	}
	return created, nil
}

// CreateJobArtifactFromFile registers a file on this node as an artifact, as file://{node}{path}.
func (a *Api) CreateJobArtifactFromFile(ctx context.Context, jobId string, artifactType string, filePath string, promote bool) (*api.Artifact, error) {
	return a.CreateJobArtifact(ctx, jobId, artifactType, a.FileUrl(filePath), promote)
}

func (a *Api) FileUrl(filePath string) string {
	return fileUrlScheme + a.nodeId + filePath
}

func (a *Api) UpdateJobArtifact(ctx context.Context, jobId string, artifactId string, artifact *api.Artifact) (*api.Artifact, error) {
	updated := &api.Artifact{}
	path := fmt.Sprintf("/jobs/%s/artifacts/%s", url.PathEscape(jobId), url.PathEscape(artifactId))
	if err := a.do(ctx, "update job artifact", http.MethodPut, path, nil, artifact, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (a *Api) PromoteJobArtifact(ctx context.Context, jobId string, artifactId string) (*api.Artifact, error) {
	promoted := &api.Artifact{}
	path := fmt.Sprintf("/jobs/%s/artifacts/%s/promote", url.PathEscape(jobId), url.PathEscape(artifactId))
	if err := a.do(ctx, "promote job artifact", http.MethodPut, path, nil, nil, promoted); err != nil {
		return nil, err
	}
	return promoted, nil
}

func (a *Api) GetMaterial(ctx context.Context, materialId string) (*api.Material, error) {
	material := &api.Material{}
	if err := a.do(ctx, "get material", http.MethodGet, "/materials/"+url.PathEscape(materialId), nil, nil, material); err != nil {
		return nil, err
	}
	return material, nil
}

func (a *Api) CreateMaterial(ctx context.Context, material *api.Material) (*api.Material, error) {
	created := &api.Material{}
	if err := a.do(ctx, "create material", http.MethodPost, "/materials", nil, material, created); err != nil {
		return nil, err
	}
	return created, nil
}

func (a *Api) CreateLog(ctx context.Context, entry *api.Log) error {
	return a.do(ctx, "create log", http.MethodPost, "/logs", nil, entry, nil)
}

// do sends one request. The api key is always passed as a query parameter; result, when not
// nil, is filled from a non-empty JSON response body.
func (a *Api) do(ctx context.Context, operation string, method string, path string, query url.Values, body interface{}, result interface{}) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("apikey", a.apiKey)
	data, err := send(ctx, a.httpClient, a.limiter, operation, method, a.rootUrl+path+"?"+query.Encode(), body)
	if err != nil {
		return err
	}
	return decodeResult(operation, data, result)
}

func send(ctx context.Context, httpClient *http.Client, limiter *rate.Limiter, operation string, method string, requestUrl string, body interface{}) ([]byte, error) {
	if err := limiter.Wait(ctx); err != nil {
		return nil, &ErrCollaborator{Operation: operation, Err: err}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &ErrCollaborator{Operation: operation, Err: err}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestUrl, reader)
	if err != nil {
		return nil, &ErrCollaborator{Operation: operation, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.WithFields(log.Fields{"method": method, "path": req.URL.Path, "operation": operation}).Debug("Calling compute service")
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &ErrCollaborator{Operation: operation, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ErrCollaborator{Operation: operation, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ErrCollaborator{Operation: operation, StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

func decodeResult(operation string, data []byte, result interface{}) error {
	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return &ErrCollaborator{Operation: operation, Body: string(data), Err: err}
	}
	return nil
}

// queryBool renders flags as the service spells them.
func queryBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
