// Package blog holds the post model and the CRUD service over the remote
// store, scoped by the acting user's email.
package blog

import "time"

// Table is the remote table holding posts.
const Table = "blog"

// Post is a blog entry as stored remotely. The id and creation timestamp
// are remote-assigned; user_email is set once at creation and never changed
// by an edit.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserEmail string    `json:"user_email"`
	CreatedAt time.Time `json:"created_at"`
}

// postInsert is the creation payload; id and created_at stay remote-assigned.
type postInsert struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	UserEmail string `json:"user_email"`
}

// postPatch is the edit payload; ownership is never part of an update.
type postPatch struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}
