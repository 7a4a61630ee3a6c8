package taskfilestore

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

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("task_files")}
}

// Create records an uploaded file against a task.
func (s *Store) Create(ctx context.Context, f models.TaskFile) (models.TaskFile, error) {
	f.ID = primitive.NewObjectID()
	f.CreatedAt = time.Now()
	if _, err := s.c.InsertOne(ctx, f); err != nil {
		return models.TaskFile{}, err
	}
	return f, nil
}

// ListByTask returns a task's files, newest first, within the company scope.
func (s *Store) ListByTask(ctx context.Context, companyID, taskID primitive.ObjectID) ([]models.TaskFile, error) {
	filter := scope.Company(companyID)
	filter["task_id"] = taskID

	cur, err := s.c.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	var out []models.TaskFile
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get loads one file record within the company.
func (s *Store) Get(ctx context.Context, companyID, id primitive.ObjectID) (*models.TaskFile, error) {
	var f models.TaskFile
	if err := s.c.FindOne(ctx, scope.ByID(companyID, id)).Decode(&f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Delete removes a file record. The caller is responsible for the blob.
func (s *Store) Delete(ctx context.Context, companyID, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, scope.ByID(companyID, id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
