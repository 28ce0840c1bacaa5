package profiles

import (
	"context"
	"sync"
	"time"

	"github.com/inkfeed/inkfeed/internal/blog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository defines persistence operations for user profiles
type Repository interface {
	Get(ctx context.Context, uid string) (*blog.Profile, error)
	Create(ctx context.Context, p *blog.Profile) (*blog.Profile, error)
	SetName(ctx context.Context, uid, name string) error
	SetAvatar(ctx context.Context, uid, url string) error
}

// MongoRepository implements Repository using MongoDB
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Get(ctx context.Context, uid string) (*blog.Profile, error) {
	var p blog.Profile
	if err := r.col.FindOne(ctx, bson.M{"_id": uid}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, blog.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Create persists the initial profile document with a server-assigned
// createdAt. Upsert keeps a retried registration from failing on the
// duplicate key.
func (r *MongoRepository) Create(ctx context.Context, p *blog.Profile) (*blog.Profile, error) {
	update := bson.M{
		"$set": bson.M{
			"name":      p.Name,
			"email":     p.Email,
			"avatarUrl": p.AvatarURL,
		},
		"$currentDate": bson.M{"createdAt": true},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var created blog.Profile
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": p.UID}, update, opts).Decode(&created); err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *MongoRepository) SetName(ctx context.Context, uid, name string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": bson.M{"name": name}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return blog.ErrNotFound
	}
	return nil
}

func (r *MongoRepository) SetAvatar(ctx context.Context, uid, url string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": bson.M{"avatarUrl": url}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return blog.ErrNotFound
	}
	return nil
}

// MemoryRepository is an in-memory Repository for unit tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	store map[string]*blog.Profile
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{store: make(map[string]*blog.Profile)}
}

func (r *MemoryRepository) Get(ctx context.Context, uid string) (*blog.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.store[uid]
	if !ok {
		return nil, blog.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *MemoryRepository) Create(ctx context.Context, p *blog.Profile) (*blog.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.store[cp.UID] = &cp
	out := cp
	return &out, nil
}

func (r *MemoryRepository) SetName(ctx context.Context, uid, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.store[uid]
	if !ok {
		return blog.ErrNotFound
	}
	p.Name = name
	return nil
}

func (r *MemoryRepository) SetAvatar(ctx context.Context, uid, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.store[uid]
	if !ok {
		return blog.ErrNotFound
	}
	p.AvatarURL = url
	return nil
}
