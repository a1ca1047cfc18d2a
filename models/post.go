package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is one document in the posts collection. The reply tree is embedded:
// every node carries its own replies slice, nested to arbitrary depth.
type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Content   string             `bson:"content" json:"content"`
	Author    string             `bson:"author" json:"author"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	Replies   []Reply            `bson:"replies" json:"replies"`
}

// Reply is a node in a post's reply tree. Identity is the ObjectID alone;
// attachment looks parents up by id, not by position.
type Reply struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Content   string             `bson:"content" json:"content"`
	Author    string             `bson:"author" json:"author"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	Replies   []Reply            `bson:"replies" json:"replies"`
}

// NewPost builds an unsaved post with an empty reply tree. The ID is left
// zero so the store assigns it on insert.
func NewPost(content, author string) *Post {
	return &Post{
		Content:   content,
		Author:    author,
		CreatedAt: time.Now().UTC(),
		Replies:   []Reply{},
	}
}

// NewReply builds a reply node with a fresh id and no children.
func NewReply(content, author string) Reply {
	return Reply{
		ID:        primitive.NewObjectID(),
		Content:   content,
		Author:    author,
		CreatedAt: time.Now().UTC(),
		Replies:   []Reply{},
	}
}

// Normalize replaces nil reply slices with empty ones so the post always
// serializes with "replies": [] at every level.
func (p *Post) Normalize() {
	if p.Replies == nil {
		p.Replies = []Reply{}
	}
	for i := range p.Replies {
		normalizeReply(&p.Replies[i])
	}
}

func normalizeReply(r *Reply) {
	if r.Replies == nil {
		r.Replies = []Reply{}
	}
	for i := range r.Replies {
		normalizeReply(&r.Replies[i])
	}
}
