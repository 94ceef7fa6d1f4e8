// Package googledocs is a thin client for the Google Docs and Drive REST
// APIs, acting on behalf of an identity resolved by the authorization
// gate. Tokens are read from the identity store's linked Google account.
package googledocs

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

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/docsbridge/docsbridge/app/repository"
	"github.com/docsbridge/docsbridge/internal/pkg/env"
)

const (
	docsEndpoint  = "https://docs.googleapis.com/v1/documents"
	driveEndpoint = "https://www.googleapis.com/drive/v3/files"

	providerGoogle = "google"
)

// Client executes document operations with per-user credentials.
type Client struct {
	users      repository.UserRepository
	httpClient func(ctx context.Context, userID string) (*http.Client, error)
}

// New returns a docs client resolving tokens through the identity store.
func New(users repository.UserRepository) *Client {
	c := &Client{users: users}
	c.httpClient = c.oauthClient
	return c
}

func (c *Client) oauthClient(ctx context.Context, userID string) (*http.Client, error) {
	access, refresh, err := c.users.ProviderTokens(ctx, userID, providerGoogle)
	if err != nil {
		return nil, fmt.Errorf("googledocs: no linked Google account: %w", err)
	}

	conf := &oauth2.Config{
		ClientID:     env.GetEnv("GOOGLE_KEY", ""),
		ClientSecret: env.GetEnv("GOOGLE_SECRET", ""),
		Endpoint:     google.Endpoint,
	}
	token := &oauth2.Token{AccessToken: access, RefreshToken: refresh}
	return conf.Client(ctx, token), nil
}

// Document is the readable view of a Google Doc.
type Document struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

// CreatedDocument describes a freshly created doc.
type CreatedDocument struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	RevisionID string `json:"revisionId,omitempty"`
}

// DriveFile is one entry from a Drive document listing.
type DriveFile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ModifiedTime string `json:"modifiedTime,omitempty"`
}

// ReadDocument fetches a document and extracts its plain-text content.
func (c *Client) ReadDocument(ctx context.Context, userID, documentID string) (*Document, error) {
	var doc rawDocument
	if err := c.getJSON(ctx, userID, docsEndpoint+"/"+url.PathEscape(documentID), &doc); err != nil {
		return nil, err
	}
	return &Document{
		DocumentID: documentID,
		Title:      doc.Title,
		Content:    doc.plainText(),
	}, nil
}

// CreateDocument creates a new empty document with the given title.
func (c *Client) CreateDocument(ctx context.Context, userID, title string) (*CreatedDocument, error) {
	body, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return nil, err
	}
	var created CreatedDocument
	if err := c.postJSON(ctx, userID, docsEndpoint, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateDocument applies raw batchUpdate requests in Google Docs API
// format and returns the replies untouched.
func (c *Client) UpdateDocument(ctx context.Context, userID, documentID string, requests []map[string]any) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{"requests": requests})
	if err != nil {
		return nil, err
	}
	var reply struct {
		Replies json.RawMessage `json:"replies"`
	}
	endpoint := docsEndpoint + "/" + url.PathEscape(documentID) + ":batchUpdate"
	if err := c.postJSON(ctx, userID, endpoint, body, &reply); err != nil {
		return nil, err
	}
	return reply.Replies, nil
}

// AppendText inserts text at the end of the document body.
func (c *Client) AppendText(ctx context.Context, userID, documentID, text string) error {
	var doc rawDocument
	if err := c.getJSON(ctx, userID, docsEndpoint+"/"+url.PathEscape(documentID), &doc); err != nil {
		return err
	}

	endIndex := int64(1)
	if n := len(doc.Body.Content); n > 0 {
		endIndex = doc.Body.Content[n-1].EndIndex
	}
	// The last position in a body is the closing newline; insert before it.
	insertAt := endIndex - 1
	if insertAt < 1 {
		insertAt = 1
	}

	_, err := c.UpdateDocument(ctx, userID, documentID, []map[string]any{
		{
			"insertText": map[string]any{
				"location": map[string]any{"index": insertAt},
				"text":     text,
			},
		},
	})
	return err
}

// ListDocuments lists Google Docs files from the user's Drive.
func (c *Client) ListDocuments(ctx context.Context, userID string, pageSize int) ([]DriveFile, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > 100 {
		pageSize = 100
	}

	params := url.Values{}
	params.Set("q", "mimeType='application/vnd.google-apps.document'")
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("fields", "files(id,name,modifiedTime)")
	params.Set("orderBy", "modifiedTime desc")

	var reply struct {
		Files []DriveFile `json:"files"`
	}
	if err := c.getJSON(ctx, userID, driveEndpoint+"?"+params.Encode(), &reply); err != nil {
		return nil, err
	}
	return reply.Files, nil
}

func (c *Client) getJSON(ctx context.Context, userID, endpoint string, dest any) error {
	return c.doJSON(ctx, userID, http.MethodGet, endpoint, nil, dest)
}

func (c *Client) postJSON(ctx context.Context, userID, endpoint string, body []byte, dest any) error {
	return c.doJSON(ctx, userID, http.MethodPost, endpoint, body, dest)
}

func (c *Client) doJSON(ctx context.Context, userID, method, endpoint string, body []byte, dest any) error {
	client, err := c.httpClient(ctx, userID)
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("googledocs: %s %s: status %d: %s", method, endpoint, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

// rawDocument is the subset of the Docs API document shape needed to
// extract text and the end index.
type rawDocument struct {
	Title string `json:"title"`
	Body  struct {
		Content []struct {
			EndIndex  int64 `json:"endIndex"`
			Paragraph *struct {
				Elements []struct {
					TextRun *struct {
						Content string `json:"content"`
					} `json:"textRun"`
				} `json:"elements"`
			} `json:"paragraph"`
		} `json:"content"`
	} `json:"body"`
}

// plainText walks the document body and concatenates all text runs.
func (d *rawDocument) plainText() string {
	var sb strings.Builder
	for _, element := range d.Body.Content {
		if element.Paragraph == nil {
			continue
		}
		for _, pe := range element.Paragraph.Elements {
			if pe.TextRun != nil {
				sb.WriteString(pe.TextRun.Content)
			}
		}
	}
	return sb.String()
}
