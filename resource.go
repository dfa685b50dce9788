package langprompt

import (
	"bytes"
	"encoding/json"
)

// resource bundles the shared collaborators every resource module holds:
// non-owning references to the transport, config and cache created by the
// client, living exactly as long as it.
type resource struct {
	tr      *transport
	config  *Config
	cache   *Cache
	logger  Logger
	metrics *MetricsCollector
}

// unwrapEnvelope extracts the payload from the service's response
// convention, a JSON object wrapping most payloads with "success" and
// "data" keys. Responses without the envelope are returned as-is.
func unwrapEnvelope(body []byte) json.RawMessage {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(body, &probe); err == nil {
		if _, ok := probe["success"]; ok {
			if data, ok := probe["data"]; ok {
				return data
			}
		}
	}
	return body
}

// emptyPayload reports whether an unwrapped payload carries no data.
func emptyPayload(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return true
	case bytes.Equal(trimmed, []byte("null")):
		return true
	case bytes.Equal(trimmed, []byte("{}")):
		return true
	case bytes.Equal(trimmed, []byte("[]")):
		return true
	default:
		return false
	}
}
