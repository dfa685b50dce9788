package langprompt

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// ProjectsResource accesses project records.
type ProjectsResource struct {
	resource
}

func newProjectsResource(base resource) *ProjectsResource {
	return &ProjectsResource{resource: base}
}

// Get fetches a project. The effective identifier is resolved as explicit id
// > explicit name > configured id > configured name; id wins over name when
// both are available. Returns an Argument error when no identifier is
// available and NotFound when the service returns an empty payload.
func (r *ProjectsResource) Get(ctx context.Context, projectID, projectName string) (*Project, error) {
	pid := projectID
	if pid == "" {
		pid = r.config.ProjectID
	}
	pname := projectName
	if pname == "" {
		pname = r.config.ProjectName
	}
	if pid == "" && pname == "" {
		return nil, argumentError("either project id or project name must be provided")
	}

	params := url.Values{}
	var cacheKey string
	if pid != "" {
		params.Set("project_id", pid)
		cacheKey = MakeKey(pid, "project")
	} else {
		params.Set("name", pname)
		cacheKey = MakeKey("_", "project_name", pname)
	}

	if cached, ok := r.cache.Get(cacheKey); ok {
		r.metrics.RecordCacheHit("project")
		return decodeProject(cached)
	}
	if r.cache.Enabled() {
		r.metrics.RecordCacheMiss("project")
	}

	resp, err := r.tr.get(ctx, "/projects", params)
	if err != nil {
		return nil, err
	}

	data := unwrapEnvelope(resp.Body)
	if emptyPayload(data) {
		identifier := pid
		if identifier == "" {
			identifier = pname
		}
		return nil, notFoundError("project not found: %s", identifier)
	}

	r.cache.Set(cacheKey, data, 0)

	return decodeProject(data)
}

// List returns a page of projects. Pagination bounds (1 ≤ limit ≤ 100,
// offset ≥ 0) are checked before any network call.
func (r *ProjectsResource) List(ctx context.Context, limit, offset int) (*ProjectList, error) {
	if limit < 1 || limit > 100 {
		return nil, argumentError("limit must be between 1 and 100, got %d", limit)
	}
	if offset < 0 {
		return nil, argumentError("offset must be non-negative, got %d", offset)
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	resp, err := r.tr.get(ctx, "/projects", params)
	if err != nil {
		return nil, err
	}

	var list ProjectList
	if err := json.Unmarshal(unwrapEnvelope(resp.Body), &list); err != nil {
		return nil, validationError("invalid project list payload: %v", err)
	}
	return &list, nil
}

func decodeProject(raw json.RawMessage) (*Project, error) {
	var project Project
	if err := json.Unmarshal(raw, &project); err != nil {
		return nil, validationError("invalid project payload: %v", err)
	}
	return &project, nil
}
