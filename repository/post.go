// Package repository contains data access layers over the posts collection.
package repository

import (
	"context"
	"errors"
	"fmt"

	"chaosnet/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// attachAttempts bounds how often a nested attach re-resolves its positional
// path after losing a race with a concurrent writer on the same document.
const attachAttempts = 3

// PostRepository defines the interface for post data operations
type PostRepository interface {
	List(ctx context.Context) ([]models.Post, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error)
	Create(ctx context.Context, content, author string) (*models.Post, error)
	AddReply(ctx context.Context, postID primitive.ObjectID, parentReplyID *primitive.ObjectID, content, author string) (*models.Post, error)
}

// postRepository implements PostRepository over a mongo collection
type postRepository struct {
	coll *mongo.Collection
}

// NewPostRepository creates a new post repository
func NewPostRepository(coll *mongo.Collection) PostRepository {
	return &postRepository{coll: coll}
}

func (r *postRepository) List(ctx context.Context) ([]models.Post, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, models.NewStoreError(err)
	}

	posts := []models.Post{}
	if err := cur.All(ctx, &posts); err != nil {
		return nil, models.NewStoreError(err)
	}
	for i := range posts {
		posts[i].Normalize()
	}
	return posts, nil
}

func (r *postRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NewNotFoundError("Post", id.Hex())
	}
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	post.Normalize()
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, content, author string) (*models.Post, error) {
	post := models.NewPost(content, author)
	res, err := r.coll.InsertOne(ctx, post)
	if err != nil {
		return nil, models.NewStoreError(err)
	}
	post.ID = res.InsertedID.(primitive.ObjectID)
	return post, nil
}

// AddReply appends a new reply node under the given parent. A nil parent
// targets the post itself; otherwise the parent is located anywhere in the
// post's reply tree by id. Returns the updated post.
func (r *postRepository) AddReply(ctx context.Context, postID primitive.ObjectID, parentReplyID *primitive.ObjectID, content, author string) (*models.Post, error) {
	reply := models.NewReply(content, author)

	if parentReplyID == nil {
		res, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": postID},
			bson.M{"$push": bson.M{"replies": reply}})
		if err != nil {
			return nil, models.NewStoreError(err)
		}
		if res.MatchedCount == 0 {
			return nil, models.NewNotFoundError("Post", postID.Hex())
		}
		return r.GetByID(ctx, postID)
	}

	// A nested parent sits at an arbitrary depth, which the store's update
	// operators cannot address directly. Resolve the parent to a positional
	// path first, then push in a single update whose filter pins the parent's
	// id at that exact path. If a concurrent writer reshaped the array the
	// filter misses and the update is a no-op, so nothing is ever attached to
	// the wrong node; re-resolve and try again.
	for attempt := 0; attempt < attachAttempts; attempt++ {
		post, err := r.GetByID(ctx, postID)
		if err != nil {
			return nil, err
		}

		path, ok := FindReplyPath(post.Replies, *parentReplyID)
		if !ok {
			return nil, models.NewNotFoundError("Reply", parentReplyID.Hex())
		}

		parent := fieldPath(path)
		res, err := r.coll.UpdateOne(ctx,
			bson.M{"_id": postID, parent + "._id": *parentReplyID},
			bson.M{"$push": bson.M{parent + ".replies": reply}})
		if err != nil {
			return nil, models.NewStoreError(err)
		}
		if res.MatchedCount > 0 {
			return r.GetByID(ctx, postID)
		}
	}

	return nil, models.NewStoreError(
		fmt.Errorf("attach under reply %s kept losing to concurrent writers after %d attempts", parentReplyID.Hex(), attachAttempts))
}
