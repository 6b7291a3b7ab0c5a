package chi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/query"
	"github.com/kailas-cloud/reconciler/internal/usecase/reconcile"
)

// queryRequest is one entry of a reconciliation batch.
type queryRequest struct {
	Query      string            `json:"query"`
	Type       string            `json:"type"`
	Limit      int               `json:"limit"`
	Properties []propertyRequest `json:"properties"`
}

type propertyRequest struct {
	PID string          `json:"pid"`
	V   json.RawMessage `json:"v"`
}

// decodeBatch reads {"<qid>": {...}, ...} preserving key order.
func decodeBatch(data []byte) ([]reconcile.Item, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%w: batch must be a JSON object keyed by query id", domain.ErrInvalidQuery)
	}

	var items []reconcile.Item
	seen := make(map[string]bool)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		id, _ := tok.(string)
		if seen[id] {
			return nil, fmt.Errorf("%w: duplicate query id %q", domain.ErrInvalidQuery, id)
		}
		seen[id] = true

		var req queryRequest
		if err := dec.Decode(&req); err != nil {
			return nil, fmt.Errorf("%w: query %q: %w", domain.ErrInvalidQuery, id, err)
		}
		props, err := properties(req.Properties)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", id, err)
		}
		items = append(items, reconcile.Item{
			ID:         id,
			Text:       req.Query,
			Type:       req.Type,
			Limit:      req.Limit,
			Properties: props,
		})
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after batch", domain.ErrInvalidQuery)
	}
	return items, nil
}

// properties flattens [{pid, v}] into a property map. v may be a string,
// a number, a boolean or an entity reference {"id": ...}.
func properties(in []propertyRequest) (query.Properties, error) {
	out := make(query.Properties, len(in))
	for _, p := range in {
		pid := strings.TrimSpace(p.PID)
		if pid == "" {
			return nil, fmt.Errorf("%w: property without pid", domain.ErrInvalidProperty)
		}
		v, err := propertyValue(p.V)
		if err != nil {
			return nil, domain.NewPropertyError(pid, err.Error())
		}
		out[pid] = v
	}
	return out, nil
}

func propertyValue(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{':
		var ref struct {
			ID json.RawMessage `json:"id"`
		}
		if err := json.Unmarshal(raw, &ref); err != nil {
			return "", err
		}
		if len(ref.ID) == 0 {
			return "", fmt.Errorf("entity reference without id")
		}
		return propertyValue(ref.ID)
	case '[':
		return "", fmt.Errorf("lists are not supported")
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String(), nil
		}
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", fmt.Errorf("unsupported value %s", raw)
		}
		return strconv.FormatBool(b), nil
	}
}
