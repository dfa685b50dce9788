package langprompt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"
)

// VersionRef selects a prompt version by label or by exact version number.
// Exactly one of the two must be set.
type VersionRef struct {
	Label   string
	Version int
}

// CreateParams describes a prompt version to create. Prompt is the content:
// a plain string for text prompts or ordered message entries ([]Message or
// []map[string]any) for chat prompts. When Type is empty the shape decides.
type CreateParams struct {
	Name          string
	Prompt        any
	Type          string
	Metadata      map[string]any
	Labels        []string
	CommitMessage string
	// Force creates the prompt itself when no prompt with Name exists.
	// Type is required in that case.
	Force bool
}

// promptRef is the memoized resolution of a prompt name.
type promptRef struct {
	id  string
	typ string
}

// PromptsResource accesses prompts and their versions. It memoizes the
// resolved project id and per-name prompt resolutions across calls;
// concurrent first-time resolutions of the same name are coalesced.
type PromptsResource struct {
	resource

	mu        sync.Mutex
	projectID string
	refs      map[string]promptRef
	group     singleflight.Group
}

func newPromptsResource(base resource) *PromptsResource {
	return &PromptsResource{
		resource: base,
		refs:     make(map[string]promptRef),
	}
}

// resolveProjectID returns the memoized project id, the configured id, or
// the id of the configured project name, in that order.
func (r *PromptsResource) resolveProjectID(ctx context.Context) (string, error) {
	r.mu.Lock()
	pid := r.projectID
	r.mu.Unlock()
	if pid != "" {
		return pid, nil
	}

	if r.config.ProjectID != "" {
		r.mu.Lock()
		r.projectID = r.config.ProjectID
		r.mu.Unlock()
		return r.config.ProjectID, nil
	}

	if r.config.ProjectName == "" {
		return "", argumentError("either project id or project name must be configured")
	}

	v, err, _ := r.group.Do("project:"+r.config.ProjectName, func() (any, error) {
		params := url.Values{}
		params.Set("name", r.config.ProjectName)
		resp, err := r.tr.get(ctx, "/projects", params)
		if err != nil {
			return nil, err
		}

		data := unwrapEnvelope(resp.Body)
		if emptyPayload(data) {
			return nil, notFoundError("project not found: %s", r.config.ProjectName)
		}

		var project struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &project); err != nil || project.ID == "" {
			return nil, validationError("invalid project payload for %s", r.config.ProjectName)
		}
		return project.ID, nil
	})
	if err != nil {
		return "", err
	}

	pid = v.(string)
	r.mu.Lock()
	r.projectID = pid
	r.mu.Unlock()
	return pid, nil
}

// resolvePrompt resolves a prompt name to its id and type, memoizing the
// result until a new version is created under that name.
func (r *PromptsResource) resolvePrompt(ctx context.Context, name string) (promptRef, error) {
	r.mu.Lock()
	ref, ok := r.refs[name]
	r.mu.Unlock()
	if ok {
		return ref, nil
	}

	v, err, _ := r.group.Do("prompt:"+name, func() (any, error) {
		pid, err := r.resolveProjectID(ctx)
		if err != nil {
			return promptRef{}, err
		}

		params := url.Values{}
		params.Set("name", name)
		resp, err := r.tr.get(ctx, "/projects/"+pid+"/prompts", params)
		if err != nil {
			return promptRef{}, err
		}

		var prompt struct {
			ID   string `json:"id"`
			Type string `json:"type"`
		}
		if err := json.Unmarshal(unwrapEnvelope(resp.Body), &prompt); err != nil || prompt.ID == "" {
			return promptRef{}, notFoundError("prompt not found: %s", name)
		}
		return promptRef{id: prompt.ID, typ: prompt.Type}, nil
	})
	if err != nil {
		return promptRef{}, err
	}

	ref = v.(promptRef)
	r.mu.Lock()
	r.refs[name] = ref
	r.mu.Unlock()
	return ref, nil
}

// invalidate drops the memoized resolution for name.
func (r *PromptsResource) invalidate(name string) {
	r.mu.Lock()
	delete(r.refs, name)
	r.mu.Unlock()
}

// List returns a page of the project's prompts. The service reports the item
// list under either a "prompts" or an "items" key; both are accepted.
func (r *PromptsResource) List(ctx context.Context, limit, offset int) (*PromptPage, error) {
	pid, err := r.resolveProjectID(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	resp, err := r.tr.get(ctx, "/projects/"+pid+"/prompts", params)
	if err != nil {
		return nil, err
	}

	var page struct {
		Prompts []Prompt `json:"prompts"`
		Items   []Prompt `json:"items"`
		Total   int      `json:"total"`
	}
	if err := json.Unmarshal(unwrapEnvelope(resp.Body), &page); err != nil {
		return nil, validationError("invalid prompt list payload: %v", err)
	}

	items := page.Prompts
	if items == nil {
		items = page.Items
	}
	if items == nil {
		items = []Prompt{}
	}

	return &PromptPage{
		Items:   items,
		Total:   page.Total,
		Limit:   limit,
		Offset:  offset,
		HasNext: offset+len(items) < page.Total,
	}, nil
}

// Get fetches a prompt version by label or by version number. Exactly one of
// ref.Label and ref.Version must be set; the check runs before any
// resolution or network call. Versions fetched by exact number are cached
// without expiry (their content is immutable); label lookups use the default
// TTL since labels are mutable pointers.
func (r *PromptsResource) Get(ctx context.Context, name string, ref VersionRef) (*PromptVersion, error) {
	if (ref.Label == "" && ref.Version == 0) || (ref.Label != "" && ref.Version != 0) {
		return nil, argumentError("exactly one of label or version must be provided")
	}
	if ref.Version < 0 {
		return nil, argumentError("version must be positive, got %d", ref.Version)
	}

	identifier := ref.Label
	if identifier == "" {
		identifier = strconv.Itoa(ref.Version)
	}

	scope := r.config.ProjectID
	if scope == "" {
		scope = "_"
	}
	cacheKey := MakeKey(scope, "version", name, identifier)

	if cached, ok := r.cache.Get(cacheKey); ok {
		r.metrics.RecordCacheHit("version")
		return decodeVersion(cached)
	}
	if r.cache.Enabled() {
		r.metrics.RecordCacheMiss("version")
	}

	pid, err := r.resolveProjectID(ctx)
	if err != nil {
		return nil, err
	}
	pref, err := r.resolvePrompt(ctx, name)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if ref.Label != "" {
		params.Set("label", ref.Label)
	} else {
		params.Set("version", strconv.Itoa(ref.Version))
	}

	resp, err := r.tr.get(ctx, "/projects/"+pid+"/prompts/"+pref.id+"/versions", params)
	if err != nil {
		return nil, err
	}

	version, err := decodeVersion(unwrapEnvelope(resp.Body))
	if err != nil {
		return nil, err
	}
	// A version without a type inherits the prompt's.
	if version.Type == "" {
		version.Type = pref.typ
	}

	ttl := r.config.CacheTTL
	if ref.Version != 0 {
		ttl = NoExpiry
	}
	if payload, err := json.Marshal(version); err == nil {
		r.cache.Set(cacheKey, payload, ttl)
	}

	return version, nil
}

// GetPrompt returns only the content entries of a version. label defaults to
// "production"; a non-zero version overrides the label entirely.
func (r *PromptsResource) GetPrompt(ctx context.Context, name, label string, version int) ([]Message, error) {
	ref := VersionRef{Label: label, Version: version}
	if version != 0 {
		ref.Label = ""
	} else if ref.Label == "" {
		ref.Label = "production"
	}

	v, err := r.Get(ctx, name, ref)
	if err != nil {
		return nil, err
	}
	return v.Prompt, nil
}

// Create mints a new version under the named prompt. Each call creates a new
// version; existing versions are never mutated. When the prompt does not
// exist the call fails with NotFound unless Force is set, in which case the
// prompt is created first (Type required) and the content becomes version 1.
func (r *PromptsResource) Create(ctx context.Context, params CreateParams) (*PromptVersion, error) {
	if params.Name == "" {
		return nil, argumentError("prompt name is required")
	}

	content, err := normalizeContent(params.Prompt, params.Type)
	if err != nil {
		return nil, err
	}

	pid, err := r.resolveProjectID(ctx)
	if err != nil {
		return nil, err
	}

	ref, err := r.resolvePrompt(ctx, params.Name)
	if err == nil {
		return r.createVersion(ctx, pid, ref.id, params, content, ref.typ)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if !params.Force {
		return nil, notFoundError("prompt not found: %s (pass Force to create it)", params.Name)
	}
	if params.Type == "" {
		return nil, argumentError("type is required when creating prompt %s with Force", params.Name)
	}

	body := map[string]any{
		"name":        params.Name,
		"type":        params.Type,
		"description": "",
		"tags":        []string{},
	}
	resp, err := r.tr.post(ctx, "/projects/"+pid+"/prompts", body)
	if err != nil {
		return nil, err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(unwrapEnvelope(resp.Body), &created); err != nil || created.ID == "" {
		return nil, validationError("invalid create prompt payload for %s", params.Name)
	}

	return r.createVersion(ctx, pid, created.ID, params, content, params.Type)
}

// createVersion posts content to a prompt's versions collection and drops
// the memoized resolution for the name.
func (r *PromptsResource) createVersion(ctx context.Context, pid, promptID string, params CreateParams, content []Message, inheritedType string) (*PromptVersion, error) {
	labels := params.Labels
	if labels == nil {
		labels = []string{}
	}
	metadata := params.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}

	body := map[string]any{
		"prompt":         content,
		"labels":         labels,
		"metadata":       metadata,
		"commit_message": params.CommitMessage,
	}
	resp, err := r.tr.post(ctx, "/projects/"+pid+"/prompts/"+promptID+"/versions", body)
	if err != nil {
		return nil, err
	}

	version, err := decodeVersion(unwrapEnvelope(resp.Body))
	if err != nil {
		return nil, err
	}
	if version.Type == "" {
		version.Type = inheritedType
	}

	r.invalidate(params.Name)

	return version, nil
}

// normalizeContent converts caller-supplied content into ordered message
// entries, enforcing the type/shape rules before any network call.
func normalizeContent(content any, typ string) ([]Message, error) {
	switch typ {
	case "", PromptTypeText, PromptTypeChat:
	default:
		return nil, validationError("invalid prompt type %q: must be %q or %q", typ, PromptTypeText, PromptTypeChat)
	}

	switch v := content.(type) {
	case string:
		if typ == PromptTypeChat {
			return nil, validationError("chat prompts require ordered message entries, got a plain string")
		}
		return []Message{{Role: "user", Content: v}}, nil
	case []Message:
		if typ == PromptTypeText {
			return nil, validationError("text prompts require a plain string, got message entries")
		}
		return v, nil
	case []map[string]any:
		if typ == PromptTypeText {
			return nil, validationError("text prompts require a plain string, got message entries")
		}
		messages := make([]Message, 0, len(v))
		for i, entry := range v {
			role, _ := entry["role"].(string)
			if role == "" {
				return nil, validationError("message entry %d is missing a role", i)
			}
			messages = append(messages, Message{Role: role, Content: entry["content"]})
		}
		return messages, nil
	case nil:
		return nil, validationError("prompt content is required")
	default:
		return nil, validationError("unsupported prompt content type %s", fmt.Sprintf("%T", content))
	}
}

func decodeVersion(raw json.RawMessage) (*PromptVersion, error) {
	var version PromptVersion
	if err := json.Unmarshal(raw, &version); err != nil {
		return nil, validationError("invalid prompt version payload: %v", err)
	}
	return &version, nil
}
