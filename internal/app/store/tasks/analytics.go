package taskstore

import (
	"context"
	"time"

	"github.com/crewdesk/crewdesk/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// CompletionStats summarizes how long completed tasks took, measured from
// creation to the completing update.
type CompletionStats struct {
	Completed int64   `json:"completed"`
	AvgHours  float64 `json:"avg_hours"`
	MinHours  float64 `json:"min_hours"`
	MaxHours  float64 `json:"max_hours"`
}

// CompletionTimes computes completion duration stats for the company.
// When assignee is non-nil, only that user's tasks count.
func (s *Store) CompletionTimes(ctx context.Context, companyID primitive.ObjectID, assignee *primitive.ObjectID) (CompletionStats, error) {
	match := bson.M{
		"company_id": companyID,
		"status":     models.TaskCompleted,
	}
	if assignee != nil {
		match["assigned_to"] = *assignee
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$project", Value: bson.M{
			"duration_ms": bson.M{"$subtract": bson.A{"$updated_at", "$created_at"}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"count":  bson.M{"$sum": 1},
			"avg_ms": bson.M{"$avg": "$duration_ms"},
			"min_ms": bson.M{"$min": "$duration_ms"},
			"max_ms": bson.M{"$max": "$duration_ms"},
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return CompletionStats{}, err
	}
	var rows []struct {
		Count int64   `bson:"count"`
		AvgMS float64 `bson:"avg_ms"`
		MinMS float64 `bson:"min_ms"`
		MaxMS float64 `bson:"max_ms"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return CompletionStats{}, err
	}
	if len(rows) == 0 {
		return CompletionStats{}, nil
	}
	const msPerHour = float64(time.Hour / time.Millisecond)
	r := rows[0]
	return CompletionStats{
		Completed: r.Count,
		AvgHours:  r.AvgMS / msPerHour,
		MinHours:  r.MinMS / msPerHour,
		MaxHours:  r.MaxMS / msPerHour,
	}, nil
}

// WeekBucket is one week of completion velocity. WeekStart is the Monday of
// the ISO week in UTC.
type WeekBucket struct {
	WeekStart time.Time `json:"week_start"`
	Completed int64     `json:"completed"`
}

// Velocity counts tasks completed per week for the trailing `weeks` weeks,
// oldest first. Weeks with no completions appear with a zero count.
func (s *Store) Velocity(ctx context.Context, companyID primitive.ObjectID, weeks int) ([]WeekBucket, error) {
	if weeks <= 0 {
		weeks = 8
	}
	since := startOfWeek(time.Now().UTC()).AddDate(0, 0, -7*(weeks-1))

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"company_id": companyID,
			"status":     models.TaskCompleted,
			"updated_at": bson.M{"$gte": since},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id": bson.M{
				"year": bson.M{"$isoWeekYear": "$updated_at"},
				"week": bson.M{"$isoWeek": "$updated_at"},
			},
			"completed": bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID struct {
			Year int64 `bson:"year"`
			Week int64 `bson:"week"`
		} `bson:"_id"`
		Completed int64 `bson:"completed"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	counts := make(map[[2]int]int64, len(rows))
	for _, r := range rows {
		counts[[2]int{int(r.ID.Year), int(r.ID.Week)}] = r.Completed
	}

	buckets := make([]WeekBucket, 0, weeks)
	for i := 0; i < weeks; i++ {
		ws := since.AddDate(0, 0, 7*i)
		y, w := ws.ISOWeek()
		buckets = append(buckets, WeekBucket{
			WeekStart: ws,
			Completed: counts[[2]int{y, w}],
		})
	}
	return buckets, nil
}

// AssigneeLoad is one user's task counts by status.
type AssigneeLoad struct {
	UserID     primitive.ObjectID `json:"user_id"`
	Pending    int64              `json:"pending"`
	InProgress int64              `json:"in_progress"`
	Completed  int64              `json:"completed"`
	Overdue    int64              `json:"overdue"`
	Total      int64              `json:"total"`
}

// Workload breaks down every assignee's tasks by status.
func (s *Store) Workload(ctx context.Context, companyID primitive.ObjectID) ([]AssigneeLoad, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"company_id": companyID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"assignee": "$assigned_to", "status": "$status"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID struct {
			Assignee primitive.ObjectID `bson:"assignee"`
			Status   string             `bson:"status"`
		} `bson:"_id"`
		Count int64 `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	byUser := make(map[primitive.ObjectID]*AssigneeLoad)
	order := make([]primitive.ObjectID, 0)
	for _, r := range rows {
		load, ok := byUser[r.ID.Assignee]
		if !ok {
			load = &AssigneeLoad{UserID: r.ID.Assignee}
			byUser[r.ID.Assignee] = load
			order = append(order, r.ID.Assignee)
		}
		switch r.ID.Status {
		case models.TaskPending:
			load.Pending += r.Count
		case models.TaskInProgress:
			load.InProgress += r.Count
		case models.TaskCompleted:
			load.Completed += r.Count
		case models.TaskOverdue:
			load.Overdue += r.Count
		}
		load.Total += r.Count
	}

	out := make([]AssigneeLoad, 0, len(order))
	for _, id := range order {
		out = append(out, *byUser[id])
	}
	return out, nil
}

// DayBucket is one day of task creation and completion counts.
type DayBucket struct {
	Date      string `json:"date"` // YYYY-MM-DD, UTC
	Created   int64  `json:"created"`
	Completed int64  `json:"completed"`
}

// Trends returns daily created/completed counts for the trailing `days` days,
// oldest first, with empty days zero-filled.
func (s *Store) Trends(ctx context.Context, companyID primitive.ObjectID, days int) ([]DayBucket, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, -(days - 1))

	created, err := s.countByDay(ctx, bson.M{
		"company_id": companyID,
		"created_at": bson.M{"$gte": since},
	}, "$created_at")
	if err != nil {
		return nil, err
	}
	completed, err := s.countByDay(ctx, bson.M{
		"company_id": companyID,
		"status":     models.TaskCompleted,
		"updated_at": bson.M{"$gte": since},
	}, "$updated_at")
	if err != nil {
		return nil, err
	}

	buckets := make([]DayBucket, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i).Format("2006-01-02")
		buckets = append(buckets, DayBucket{
			Date:      day,
			Created:   created[day],
			Completed: completed[day],
		})
	}
	return buckets, nil
}

func (s *Store) countByDay(ctx context.Context, match bson.M, dateField string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$dateToString": bson.M{"format": "%Y-%m-%d", "date": dateField}},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		ID    string `bson:"_id"`
		Count int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.Count
	}
	return out, nil
}

// startOfWeek returns the Monday 00:00 UTC of t's ISO week.
func startOfWeek(t time.Time) time.Time {
	t = t.Truncate(24 * time.Hour)
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return t.AddDate(0, 0, -(wd - 1))
}
