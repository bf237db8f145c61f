package domain

import "time"

// Comment targets exactly one Post and carries its ordered replies.
type Comment struct {
	ID        string
	PostID    string
	AuthorID  string
	Body      string
	CreatedAt time.Time
	Replies   []Reply
}

// Reply is a sub-entity of a Comment.
type Reply struct {
	AuthorID  string
	Body      string
	CreatedAt time.Time
}

// CommentAuthor is the (picture, id) projection of a commenting identity.
type CommentAuthor struct {
	ID      string `json:"id"`
	Picture string `json:"picture"`
}

// ReplyAuthor is the (handle, picture) projection of a replying identity.
type ReplyAuthor struct {
	Handle  string `json:"handle"`
	Picture string `json:"picture"`
}

// Thread is a comment with resolved authorship, target post and replies.
type Thread struct {
	ID        string        `json:"id"`
	Body      string        `json:"body"`
	CreatedAt time.Time     `json:"created_at"`
	Author    CommentAuthor `json:"author"`
	Post      PostCard      `json:"post"`
	Replies   []ThreadReply `json:"replies"`
}

// ThreadReply is a reply with resolved authorship.
type ThreadReply struct {
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"created_at"`
	Author    ReplyAuthor `json:"author"`
}
