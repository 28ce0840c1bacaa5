package blog

import "time"

// Profile is the per-user document stored in the "users" collection, keyed by
// the identity provider's uid. Email is immutable once set by the provider.
type Profile struct {
	UID       string    `bson:"_id" json:"uid"`
	Name      string    `bson:"name" json:"name"`
	Email     string    `bson:"email" json:"email"`
	AvatarURL string    `bson:"avatarUrl" json:"avatarUrl"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// Post is a document in the "posts" collection. AuthorName is a denormalized
// copy of the author's profile name at last write; it is refreshed across all
// of a user's posts whenever that user renames themselves.
type Post struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	Title      string    `bson:"title" json:"title"`
	Slug       string    `bson:"slug" json:"slug"`
	Content    string    `bson:"content" json:"content"`
	ImageURL   string    `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	AuthorID   string    `bson:"authorId" json:"authorId"`
	AuthorName string    `bson:"authorName" json:"authorName"`
	CreatedAt  time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt" json:"updatedAt"`
}
