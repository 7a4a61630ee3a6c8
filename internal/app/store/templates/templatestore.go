package templatestore

import (
	"context"
	"time"

	"github.com/crewdesk/crewdesk/internal/app/store/scope"
	"github.com/crewdesk/crewdesk/internal/app/system/normalize"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var sanitize = bluemonday.StrictPolicy()

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("task_templates")}
}

// Create inserts an active template.
func (s *Store) Create(ctx context.Context, t models.TaskTemplate) (models.TaskTemplate, error) {
	now := time.Now()
	t.ID = primitive.NewObjectID()
	t.Name = normalize.Name(t.Name)
	t.Title = sanitize.Sanitize(t.Title)
	t.Description = sanitize.Sanitize(t.Description)
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	t.IsActive = true
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.TaskTemplate{}, err
	}
	return t, nil
}

// Get loads one active template within the company.
func (s *Store) Get(ctx context.Context, companyID, id primitive.ObjectID) (*models.TaskTemplate, error) {
	filter := scope.ByID(companyID, id)
	filter["is_active"] = true
	var t models.TaskTemplate
	if err := s.c.FindOne(ctx, filter).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// List returns the company's active templates, alphabetically by name.
func (s *Store) List(ctx context.Context, companyID primitive.ObjectID) ([]models.TaskTemplate, error) {
	filter := scope.Company(companyID)
	filter["is_active"] = true

	cur, err := s.c.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []models.TaskTemplate
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update holds the mutable template fields. Nil pointers leave the field
// alone.
type Update struct {
	Name           *string
	Title          *string
	Description    *string
	Priority       *string
	EstimatedHours *float64
}

// Apply updates one active template atomically within the company scope.
func (s *Store) Apply(ctx context.Context, companyID, id primitive.ObjectID, upd Update) (*models.TaskTemplate, error) {
	set := bson.M{"updated_at": time.Now()}
	if upd.Name != nil {
		set["name"] = normalize.Name(*upd.Name)
	}
	if upd.Title != nil {
		set["title"] = sanitize.Sanitize(*upd.Title)
	}
	if upd.Description != nil {
		set["description"] = sanitize.Sanitize(*upd.Description)
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.EstimatedHours != nil {
		set["estimated_hours"] = *upd.EstimatedHours
	}

	filter := scope.ByID(companyID, id)
	filter["is_active"] = true

	var t models.TaskTemplate
	err := s.c.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Deactivate soft-deletes a template. Tasks already created from it are
// unaffected.
func (s *Store) Deactivate(ctx context.Context, companyID, id primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx, scope.ByID(companyID, id), bson.M{"$set": bson.M{
		"is_active":  false,
		"updated_at": time.Now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
