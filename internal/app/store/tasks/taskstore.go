package taskstore

import (
	"context"
	"regexp"
	"time"

	"github.com/crewdesk/crewdesk/internal/app/store/scope"
	"github.com/crewdesk/crewdesk/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Task text is rendered in web clients; strip all markup on the way in.
var sanitize = bluemonday.StrictPolicy()

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// Create inserts a new task. Status and priority default to pending/medium.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	now := time.Now()
	t.ID = primitive.NewObjectID()
	t.Title = sanitize.Sanitize(t.Title)
	t.Description = sanitize.Sanitize(t.Description)
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	t.CreatedAt = now
	t.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// Get loads one task within the company. A task in another company is
// mongo.ErrNoDocuments, same as a missing one.
func (s *Store) Get(ctx context.Context, companyID, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	if err := s.c.FindOne(ctx, scope.ByID(companyID, id)).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ListFilter narrows a task listing. Zero values mean "any".
type ListFilter struct {
	Status     string
	Priority   string
	AssignedTo *primitive.ObjectID
	Search     string
	DueBefore  *time.Time
	DueAfter   *time.Time
	Page       int
	Limit      int
}

const defaultPageSize = 20

// List returns a page of company tasks matching the filter, newest first,
// plus the total match count. When restrictTo is non-nil only tasks assigned
// to that user are visible, regardless of the filter.
func (s *Store) List(ctx context.Context, companyID primitive.ObjectID, f ListFilter, restrictTo *primitive.ObjectID) ([]models.Task, int64, error) {
	filter := scope.Company(companyID)
	if restrictTo != nil {
		filter = scope.ForAssignee(companyID, *restrictTo)
	} else if f.AssignedTo != nil {
		filter["assigned_to"] = *f.AssignedTo
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.Search != "" {
		// Literal substring match; the query is user input, not a pattern.
		filter["title"] = bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}}
	}
	if f.DueBefore != nil || f.DueAfter != nil {
		due := bson.M{}
		if f.DueAfter != nil {
			due["$gte"] = *f.DueAfter
		}
		if f.DueBefore != nil {
			due["$lte"] = *f.DueBefore
		}
		filter["due_date"] = due
	}

	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
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
	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// Update holds the mutable task fields. Nil pointers leave the field alone.
type Update struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *string
	DueDate       *time.Time
	AssignedTo    *primitive.ObjectID
	SubmissionURL *string
}

// Apply updates one task atomically within the company scope and returns the
// fresh document. The filter carries the company clause, so a concurrent
// tenant switch cannot land a write in the wrong company. When restrictTo is
// non-nil the filter also requires assigned_to, so a user limited to their own
// tasks cannot touch anyone else's. Submitting a URL stamps submitted_at.
func (s *Store) Apply(ctx context.Context, companyID, id primitive.ObjectID, upd Update, restrictTo *primitive.ObjectID) (*models.Task, error) {
	now := time.Now()
	set := bson.M{"updated_at": now}
	if upd.Title != nil {
		set["title"] = sanitize.Sanitize(*upd.Title)
	}
	if upd.Description != nil {
		set["description"] = sanitize.Sanitize(*upd.Description)
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.DueDate != nil {
		set["due_date"] = *upd.DueDate
	}
	if upd.AssignedTo != nil {
		set["assigned_to"] = *upd.AssignedTo
	}
	if upd.SubmissionURL != nil {
		set["submission_url"] = *upd.SubmissionURL
		set["submitted_at"] = now
	}

	filter := scope.ByID(companyID, id)
	if restrictTo != nil {
		filter["assigned_to"] = *restrictTo
	}

	var t models.Task
	err := s.c.FindOneAndUpdate(ctx,
		filter,
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CountByAssignee returns how many non-completed tasks each user in the
// company currently carries.
func (s *Store) CountByAssignee(ctx context.Context, companyID primitive.ObjectID) (map[primitive.ObjectID]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"company_id": companyID,
			"status":     bson.M{"$ne": models.TaskCompleted},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$assigned_to",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID    primitive.ObjectID `bson:"_id"`
		Count int64              `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Count
	}
	return out, nil
}
