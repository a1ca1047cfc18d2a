package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"chaosnet/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeAPI is a minimal in-memory stand-in for the posts API.
type fakeAPI struct {
	mu       sync.Mutex
	posts    []models.Post
	failNext bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/posts", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if f.failNext {
			f.failNext = false
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Document store operation failed", Code: "STORE_ERROR"})
			return
		}

		switch r.Method {
		case http.MethodGet:
			_ = json.NewEncoder(w).Encode(f.posts)

		case http.MethodPost:
			var req struct{ Content, Author string }
			_ = json.NewDecoder(r.Body).Decode(&req)
			post := models.NewPost(req.Content, req.Author)
			post.ID = primitive.NewObjectID()
			f.posts = append(f.posts, *post)
			w.WriteHeader(http.StatusCreated)
			_ = json.NewEncoder(w).Encode(post)

		case http.MethodPatch:
			var req struct{ PostId, ParentReplyId, Content, Author string }
			_ = json.NewDecoder(r.Body).Decode(&req)
			postID, _ := primitive.ObjectIDFromHex(req.PostId)
			for i := range f.posts {
				if f.posts[i].ID != postID {
					continue
				}
				reply := models.NewReply(req.Content, req.Author)
				if req.ParentReplyId == "" {
					f.posts[i].Replies = append(f.posts[i].Replies, reply)
				} else {
					parentID, _ := primitive.ObjectIDFromHex(req.ParentReplyId)
					parent := findNode(f.posts[i].Replies, parentID)
					if parent == nil {
						w.WriteHeader(http.StatusNotFound)
						_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Reply not found", Code: "NOT_FOUND"})
						return
					}
					parent.Replies = append(parent.Replies, reply)
				}
				_ = json.NewEncoder(w).Encode(f.posts[i])
				return
			}
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Post not found", Code: "NOT_FOUND"})
		}
	})
	return mux
}

func findNode(replies []models.Reply, id primitive.ObjectID) *models.Reply {
	for i := range replies {
		if replies[i].ID == id {
			return &replies[i]
		}
		if n := findNode(replies[i].Replies, id); n != nil {
			return n
		}
	}
	return nil
}

func newFixture(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return api, New(srv.URL)
}

func TestRefresh(t *testing.T) {
	api, c := newFixture(t)

	post := models.NewPost("seeded", "alice")
	post.ID = primitive.NewObjectID()
	api.posts = []models.Post{*post}

	require.NoError(t, c.Refresh(context.Background()))

	got := c.Posts()
	require.Len(t, got, 1)
	assert.Equal(t, post.ID, got[0].ID)
	assert.Equal(t, "seeded", got[0].Content)
	assert.Nil(t, c.Err())
}

func TestSubmitPostUsesServerRecord(t *testing.T) {
	_, c := newFixture(t)

	created, err := c.SubmitPost(context.Background(), "hello")
	require.NoError(t, err)
	assert.False(t, created.ID.IsZero(), "server-assigned ID expected")
	assert.Equal(t, DefaultAuthor, created.Author)

	// The cached entry is the server's record, id and timestamp included.
	got := c.Posts()
	require.Len(t, got, 1)
	assert.Equal(t, created.ID, got[0].ID)
	assert.Equal(t, created.CreatedAt, got[0].CreatedAt)
}

func TestSubmitPostPrepends(t *testing.T) {
	_, c := newFixture(t)

	older, err := c.SubmitPost(context.Background(), "older")
	require.NoError(t, err)
	newer, err := c.SubmitPost(context.Background(), "newer")
	require.NoError(t, err)

	got := c.Posts()
	require.Len(t, got, 2)
	assert.Equal(t, newer.ID, got[0].ID)
	assert.Equal(t, older.ID, got[1].ID)
}

func TestSubmitReplyReconcilesNestedTree(t *testing.T) {
	_, c := newFixture(t)

	post, err := c.SubmitPost(context.Background(), "root")
	require.NoError(t, err)

	withReply, err := c.SubmitReply(context.Background(), post.ID.Hex(), "", "level one")
	require.NoError(t, err)
	require.Len(t, withReply.Replies, 1)
	levelOne := withReply.Replies[0].ID

	// Nested attach: the local list must show the reply under the exact
	// parent, not approximated at the top level.
	_, err = c.SubmitReply(context.Background(), post.ID.Hex(), levelOne.Hex(), "level two")
	require.NoError(t, err)

	got := c.Posts()
	require.Len(t, got, 1)
	require.Len(t, got[0].Replies, 1)
	require.Len(t, got[0].Replies[0].Replies, 1)
	assert.Equal(t, "level two", got[0].Replies[0].Replies[0].Content)
}

func TestFailedSubmitLeavesStateUntouched(t *testing.T) {
	api, c := newFixture(t)

	_, err := c.SubmitPost(context.Background(), "kept")
	require.NoError(t, err)
	before := c.Posts()

	api.mu.Lock()
	api.failNext = true
	api.mu.Unlock()

	_, err = c.SubmitPost(context.Background(), "dropped")
	require.Error(t, err)
	assert.Equal(t, before, c.Posts(), "failed submit must not change local state")
	assert.Error(t, c.Err(), "failure must be visible")

	// A later success clears the failure state.
	require.NoError(t, c.Refresh(context.Background()))
	assert.Nil(t, c.Err())
}

func TestSubmitReplyUnknownPost(t *testing.T) {
	_, c := newFixture(t)

	_, err := c.SubmitReply(context.Background(), primitive.NewObjectID().Hex(), "", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
