package posts

import (
	"context"
	"time"

	"github.com/inkfeed/inkfeed/internal/blog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Patch carries the fields of a post update. Only non-nil fields are written;
// updatedAt is always refreshed by the store.
type Patch struct {
	Title    *string
	Content  *string
	ImageURL *string
}

// Repository defines persistence operations for posts
type Repository interface {
	Insert(ctx context.Context, p *blog.Post) (*blog.Post, error)
	Get(ctx context.Context, id string) (*blog.Post, error)
	FindBySlug(ctx context.Context, slug string) (*blog.Post, error)
	// Page returns up to limit posts ordered by createdAt descending. A zero
	// `before` starts from the newest post; otherwise only posts created
	// strictly before it are returned.
	Page(ctx context.Context, before time.Time, limit int) ([]blog.Post, error)
	Update(ctx context.Context, id string, patch Patch) error
	Delete(ctx context.Context, id string) error
	ListIDsByAuthor(ctx context.Context, authorID string) ([]string, error)
	SetAuthorName(ctx context.Context, id, name string) error
}

// MongoRepository implements Repository using a Mongo collection
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates a repository for the given collection and
// ensures the indexes pagination and slug lookup rely on. The slug index is
// deliberately not unique: collisions are avoided probabilistically and
// lookups pick the first match.
func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	idx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "slug", Value: 1}}},
		{Keys: bson.D{{Key: "authorId", Value: 1}}},
	}
	col.Indexes().CreateMany(context.Background(), idx)
	return &MongoRepository{col: col}
}

// Insert writes the post with server-assigned createdAt/updatedAt so ordering
// stays consistent across clients with clock drift.
func (r *MongoRepository) Insert(ctx context.Context, p *blog.Post) (*blog.Post, error) {
	id := primitive.NewObjectID().Hex()
	update := bson.M{
		"$set": bson.M{
			"title":      p.Title,
			"slug":       p.Slug,
			"content":    p.Content,
			"imageUrl":   p.ImageURL,
			"authorId":   p.AuthorID,
			"authorName": p.AuthorName,
		},
		"$currentDate": bson.M{"createdAt": true, "updatedAt": true},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var created blog.Post
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *MongoRepository) Get(ctx context.Context, id string) (*blog.Post, error) {
	var p blog.Post
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, blog.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindBySlug returns the first match in store order. Duplicate slugs should
// not happen under correct slug generation but are not structurally
// prevented; extra matches are ignored, not corrected.
func (r *MongoRepository) FindBySlug(ctx context.Context, slug string) (*blog.Post, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})
	var p blog.Post
	if err := r.col.FindOne(ctx, bson.M{"slug": slug}, opts).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, blog.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *MongoRepository) Page(ctx context.Context, before time.Time, limit int) ([]blog.Post, error) {
	filter := bson.M{}
	if !before.IsZero() {
		filter["createdAt"] = bson.M{"$lt": before}
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []blog.Post{}
	for cur.Next(ctx) {
		var p blog.Post
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, cur.Err()
}

func (r *MongoRepository) Update(ctx context.Context, id string, patch Patch) error {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}
	if patch.ImageURL != nil {
		set["imageUrl"] = *patch.ImageURL
	}
	update := bson.M{"$currentDate": bson.M{"updatedAt": true}}
	if len(set) > 0 {
		update["$set"] = set
	}
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return blog.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return blog.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) ListIDsByAuthor(ctx context.Context, authorID string) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cur, err := r.col.Find(ctx, bson.M{"authorId": authorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ids []string
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID)
	}
	return ids, cur.Err()
}

// SetAuthorName refreshes the denormalized author name on one post. It does
// not bump updatedAt: a rename is not an edit of the post itself.
func (r *MongoRepository) SetAuthorName(ctx context.Context, id, name string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"authorName": name}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return blog.ErrNotFound
	}
	return nil
}
