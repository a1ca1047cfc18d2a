package repository

import (
	"strconv"
	"strings"

	"chaosnet/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FindReplyPath walks a reply tree depth-first (siblings in order, children
// before the next sibling) and returns the index path to the first node whose
// id matches. The path is positional: path[0] indexes the top-level replies,
// path[1] indexes that node's children, and so on.
func FindReplyPath(replies []models.Reply, id primitive.ObjectID) ([]int, bool) {
	for i := range replies {
		if replies[i].ID == id {
			return []int{i}, true
		}
		if rest, ok := FindReplyPath(replies[i].Replies, id); ok {
			return append([]int{i}, rest...), true
		}
	}
	return nil, false
}

// fieldPath renders an index path as the dotted positional notation the store
// expects, rooted at the replies array: [2, 0] -> "replies.2.replies.0".
func fieldPath(path []int) string {
	var b strings.Builder
	for _, i := range path {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString("replies.")
		b.WriteString(strconv.Itoa(i))
	}
	return b.String()
}
