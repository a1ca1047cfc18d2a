// Package client keeps an in-memory view of the post list in sync with the
// server. Every mutation is reconciled against the server's returned
// representation rather than a locally guessed one, so the view stays correct
// even for replies attached deep in a post's tree.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"chaosnet/models"
)

// DefaultAuthor is the placeholder identity attached to every submission.
const DefaultAuthor = "Anonymous"

// Client fetches and caches the post list. The cached list has no authority;
// the server's responses always win.
type Client struct {
	base string
	http *http.Client

	mu      sync.RWMutex
	posts   []models.Post
	lastErr error
}

// New creates a client for the API at baseURL (e.g. "http://localhost:8080").
func New(baseURL string) *Client {
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Posts returns a snapshot of the cached post list.
func (c *Client) Posts() []models.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

// Err returns the most recent request failure. It is cleared by the next
// successful call, so a non-nil value means the displayed list may be stale.
func (c *Client) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Refresh replaces the cached list with the server's full post list.
func (c *Client) Refresh(ctx context.Context) error {
	var posts []models.Post
	if err := c.do(ctx, http.MethodGet, nil, &posts); err != nil {
		return err
	}

	c.mu.Lock()
	c.posts = posts
	c.mu.Unlock()
	return nil
}

// SubmitPost creates a post and prepends the server's returned record to the
// cached list. On failure the cached list is left untouched.
func (c *Client) SubmitPost(ctx context.Context, content string) (*models.Post, error) {
	body := map[string]string{"content": content, "author": DefaultAuthor}

	var created models.Post
	if err := c.do(ctx, http.MethodPost, body, &created); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.posts = append([]models.Post{created}, c.posts...)
	c.mu.Unlock()
	return &created, nil
}

// SubmitReply attaches a reply under the given post, or under the given
// parent reply when parentReplyID is non-empty. The server returns the whole
// updated post, which replaces the cached copy wholesale.
func (c *Client) SubmitReply(ctx context.Context, postID, parentReplyID, content string) (*models.Post, error) {
	body := map[string]string{
		"postId":  postID,
		"content": content,
		"author":  DefaultAuthor,
	}
	if parentReplyID != "" {
		body["parentReplyId"] = parentReplyID
	}

	var updated models.Post
	if err := c.do(ctx, http.MethodPatch, body, &updated); err != nil {
		return nil, err
	}

	c.mu.Lock()
	for i := range c.posts {
		if c.posts[i].ID == updated.ID {
			c.posts[i] = updated
			break
		}
	}
	c.mu.Unlock()
	return &updated, nil
}

// do runs one request against /api/posts and decodes the response into out,
// recording the outcome in lastErr.
func (c *Client) do(ctx context.Context, method string, body any, out any) error {
	err := c.roundTrip(ctx, method, body, out)
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	return err
}

func (c *Client) roundTrip(ctx context.Context, method string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+"/api/posts", &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr models.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
			return fmt.Errorf("%s /api/posts: %s (%d)", method, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s /api/posts: unexpected status %d", method, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
