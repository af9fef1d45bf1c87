package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"

	"github.com/jackzampolin/regdesk/internal/auth"
	"github.com/jackzampolin/regdesk/internal/types"
)

// NameField is the catalog field holding a document's display name.
const NameField = "NOMBRE_DOCUMENTO"

var leadingDigits = regexp.MustCompile(`^(\d+)`)

// ExtractID returns the leading run of digits in name, or "" if there is none.
func ExtractID(name string) string {
	m := leadingDigits.FindStringSubmatch(name)
	if m == nil {
		return ""
	}
	return m[1]
}

// FallbackID is the positional identifier for a document whose name has no
// leading digits.
func FallbackID(index int) string {
	return "doc_" + strconv.Itoa(index)
}

// ListDocuments fetches the catalog, preserving the order the gateway returns.
// Authentication failures are returned unchanged; everything else wraps
// ErrCatalogFetch.
func (c *Client) ListDocuments(ctx context.Context) ([]types.Document, error) {
	resp, err := c.do(ctx, http.MethodGet, c.documentsURL, nil, "")
	if err != nil {
		if errors.Is(err, auth.ErrAuthentication) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, err)
	}

	if resp.status < 200 || resp.status >= 300 {
		return nil, fmt.Errorf("%w: %w", ErrCatalogFetch, newServiceError(resp))
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(resp.body, &entries); err != nil {
		return nil, fmt.Errorf("%w: failed to decode catalog: %w", ErrCatalogFetch, err)
	}

	docs := make([]types.Document, 0, len(entries))
	for i, raw := range entries {
		docs = append(docs, documentFromEntry(i, raw))
	}

	c.logger.Info("catalog loaded", "documents", len(docs))
	return docs, nil
}

// documentFromEntry builds a Document from one catalog entry. Entries that are
// not objects, or lack a string name, get an empty name.
func documentFromEntry(index int, raw json.RawMessage) types.Document {
	var entry map[string]any
	var name string
	if err := json.Unmarshal(raw, &entry); err == nil {
		name, _ = entry[NameField].(string)
	}

	number := ExtractID(name)
	id := number
	if id == "" {
		id = FallbackID(index)
	}
	return types.Document{ID: id, Name: name, Number: number}
}
