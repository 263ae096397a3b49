package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vovakirdan/wirechat-sync/internal/core"
	"github.com/vovakirdan/wirechat-sync/internal/proto"
)

// Client fetches conversation history and the user list from the relay's REST API.
type Client struct {
	base string
	http *http.Client
}

// New builds a client for baseURL. A zero timeout disables the request deadline.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// History returns the ordered messages exchanged between sender and receiver.
func (c *Client) History(ctx context.Context, sender, receiver string) ([]core.Message, error) {
	q := url.Values{}
	q.Set("sender", sender)
	q.Set("receiver", receiver)

	var resp proto.ListResponse[proto.MessageRecord]
	if err := c.get(ctx, "/messages", q, &resp); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	out := make([]core.Message, 0, len(resp.Data))
	for _, rec := range resp.Data {
		if rec.ID == "" || rec.Sender == "" || rec.Receiver == "" {
			continue
		}
		out = append(out, core.MessageFromRecord(rec))
	}
	return out, nil
}

// Users returns the known peers of currentUser.
func (c *Client) Users(ctx context.Context, currentUser string) ([]string, error) {
	q := url.Values{}
	q.Set("currentUser", currentUser)

	var resp proto.ListResponse[proto.User]
	if err := c.get(ctx, "/users", q, &resp); err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}

	out := make([]string, 0, len(resp.Data))
	for _, u := range resp.Data {
		if u.Username == "" || u.Username == currentUser {
			continue
		}
		out = append(out, u.Username)
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
