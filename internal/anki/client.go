// Package anki talks to a running Anki instance through the AnkiConnect
// add-on and keeps extracted cards in sync with it.
package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JosephMelesse/anki-vert/pkg/logger"
)

const (
	DefaultURL       = "http://127.0.0.1:8765"
	DefaultModelName = "Basic"

	connectVersion = 6
	defaultTimeout = 10 * time.Second

	fieldFront = "Front"
	fieldBack  = "Back"
)

type connectRequest struct {
	Action  string      `json:"action"`
	Version int         `json:"version"`
	Params  interface{} `json:"params"`
}

// Note is the AnkiConnect addNote payload.
type Note struct {
	DeckName  string                 `json:"deckName"`
	ModelName string                 `json:"modelName"`
	Fields    map[string]string      `json:"fields"`
	Options   map[string]interface{} `json:"options"`
	Tags      []string               `json:"tags"`
}

// Client is a thin AnkiConnect transport. Every call is a single attempt:
// AnkiConnect runs on loopback, so a failure means Anki is gone and the run
// should stop rather than retry.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *logger.Logger
}

type ClientOption func(*Client)

func WithURL(url string) ClientOption {
	return func(c *Client) {
		c.url = url
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func NewClient(log *logger.Logger, opts ...ClientOption) *Client {
	client := &Client{
		url:        DefaultURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     log,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// CheckConnection verifies that AnkiConnect is reachable.
func (c *Client) CheckConnection(ctx context.Context) error {
	if _, err := c.Version(ctx); err != nil {
		c.logger.Debug("version probe failed: %v", err)
		return fmt.Errorf("could not connect to Anki at %s. Please ensure:\n"+
			"1. Anki is running https://apps.ankiweb.net/#download\n"+
			"2. AnkiConnect add-on is installed (code: 2055492159) https://ankiweb.net/shared/info/2055492159\n"+
			"3. Anki has been restarted after installing AnkiConnect", c.url)
	}

	return nil
}

// Version reports the AnkiConnect API version.
func (c *Client) Version(ctx context.Context) (int, error) {
	result, err := c.invoke(ctx, "version", nil)
	if err != nil {
		return 0, err
	}

	var version int
	if err := json.Unmarshal(result, &version); err != nil {
		return 0, fmt.Errorf("failed to parse version: %w", err)
	}

	return version, nil
}

// CreateDeck creates a deck. AnkiConnect treats an existing deck as a no-op,
// so the call is safe to repeat.
func (c *Client) CreateDeck(ctx context.Context, deckName string) error {
	c.logger.Info("Creating deck: %s", deckName)
	_, err := c.invoke(ctx, "createDeck", map[string]string{
		"deck": deckName,
	})
	return err
}

// ModelNames lists the note types known to the collection.
func (c *Client) ModelNames(ctx context.Context) ([]string, error) {
	result, err := c.invoke(ctx, "modelNames", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get models: %w", err)
	}

	var names []string
	if err := json.Unmarshal(result, &names); err != nil {
		return nil, fmt.Errorf("failed to parse model names: %w", err)
	}

	return names, nil
}

// FindNoteByTag returns the id of the first note carrying the tag, or 0 when
// no note has it.
func (c *Client) FindNoteByTag(ctx context.Context, tag string) (int64, error) {
	result, err := c.invoke(ctx, "findNotes", map[string]string{
		"query": fmt.Sprintf("tag:%s", tag),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to search notes: %w", err)
	}

	var noteIDs []int64
	if err := json.Unmarshal(result, &noteIDs); err != nil {
		return 0, fmt.Errorf("failed to parse note IDs: %w", err)
	}

	if len(noteIDs) == 0 {
		return 0, nil
	}

	return noteIDs[0], nil
}

// AddNote creates a note and returns its id.
func (c *Client) AddNote(ctx context.Context, note Note) (int64, error) {
	result, err := c.invoke(ctx, "addNote", map[string]interface{}{
		"note": note,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to add note: %w", err)
	}

	var noteID int64
	if err := json.Unmarshal(result, &noteID); err != nil {
		return 0, fmt.Errorf("failed to parse note ID: %w", err)
	}

	return noteID, nil
}

// UpdateNoteFields rewrites the fields of an existing note in place.
func (c *Client) UpdateNoteFields(ctx context.Context, noteID int64, fields map[string]string) error {
	_, err := c.invoke(ctx, "updateNoteFields", map[string]interface{}{
		"note": map[string]interface{}{
			"id":     noteID,
			"fields": fields,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to update note %d: %w", noteID, err)
	}

	return nil
}

// AddTags attaches tags to existing notes. AnkiConnect expects the tag list
// as a single space-separated string.
func (c *Client) AddTags(ctx context.Context, noteIDs []int64, tags []string) error {
	_, err := c.invoke(ctx, "addTags", map[string]interface{}{
		"notes": noteIDs,
		"tags":  strings.Join(tags, " "),
	})
	if err != nil {
		return fmt.Errorf("failed to add tags: %w", err)
	}

	return nil
}

func (c *Client) invoke(ctx context.Context, action string, params interface{}) (json.RawMessage, error) {
	if params == nil {
		params = map[string]interface{}{}
	}

	reqBody, err := json.Marshal(connectRequest{
		Action:  action,
		Version: connectVersion,
		Params:  params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to AnkiConnect failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("AnkiConnect returned status %d for %s", resp.StatusCode, action)
	}

	var result struct {
		Error  *string         `json:"error"`
		Result json.RawMessage `json:"result"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.Error != nil {
		return nil, fmt.Errorf("anki error for %s: %s", action, *result.Error)
	}

	return result.Result, nil
}
