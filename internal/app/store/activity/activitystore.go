package activitystore

import (
	"context"
	"time"

	"github.com/crewdesk/crewdesk/internal/app/store/scope"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Activity logs are append-only; there are no update or delete operations.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activity_logs")}
}

// Append writes one audit record.
func (s *Store) Append(ctx context.Context, entry models.ActivityLog) error {
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = time.Now()
	_, err := s.c.InsertOne(ctx, entry)
	return err
}

// ListFilter narrows an activity listing.
type ListFilter struct {
	UserID *primitive.ObjectID
	Action string
	Since  *time.Time
	Page   int
	Limit  int
}

// List returns a page of the company's activity, newest first, plus the
// total match count.
func (s *Store) List(ctx context.Context, companyID primitive.ObjectID, f ListFilter) ([]models.ActivityLog, int64, error) {
	filter := scope.Company(companyID)
	if f.UserID != nil {
		filter["user_id"] = *f.UserID
	}
	if f.Action != "" {
		filter["action"] = f.Action
	}
	if f.Since != nil {
		filter["created_at"] = bson.M{"$gte": *f.Since}
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page := f.Page
	if page < 1 {
		page = 1
	}

	cur, err := s.c.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page-1)*limit)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, 0, err
	}
	var out []models.ActivityLog
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
