package googledocs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient points the client at a fake Docs backend.
func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := &Client{}
	c.httpClient = func(ctx context.Context, userID string) (*http.Client, error) {
		return server.Client(), nil
	}
	return c, server
}

const sampleDoc = `{
	"title": "Notes",
	"body": {
		"content": [
			{"endIndex": 1},
			{"endIndex": 14, "paragraph": {"elements": [{"textRun": {"content": "Hello, world\n"}}]}}
		]
	}
}`

func TestReadDocument_ExtractsText(t *testing.T) {
	t.Parallel()

	c, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(sampleDoc))
	}))

	doc, err := c.readDocumentFrom(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Notes", doc.Title)
	assert.Equal(t, "Hello, world\n", doc.Content)
}

// readDocumentFrom mirrors ReadDocument against an arbitrary endpoint.
func (c *Client) readDocumentFrom(ctx context.Context, endpoint string) (*Document, error) {
	var doc rawDocument
	if err := c.getJSON(ctx, "user-1", endpoint, &doc); err != nil {
		return nil, err
	}
	return &Document{Title: doc.Title, Content: doc.plainText()}, nil
}

func TestPlainText_SkipsNonParagraphElements(t *testing.T) {
	t.Parallel()

	var doc rawDocument
	require.NoError(t, json.Unmarshal([]byte(sampleDoc), &doc))
	assert.Equal(t, "Hello, world\n", doc.plainText())
}

func TestDoJSON_NonSuccessStatus(t *testing.T) {
	t.Parallel()

	c, server := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "forbidden"}`, http.StatusForbidden)
	}))

	err := c.doJSON(context.Background(), "user-1", http.MethodGet, server.URL, nil, nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "status 403"))
}
