// internal/app/store/audit/store.go
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Event categories
const (
	CategoryInvite  = "invite"
	CategoryAccount = "account"
	CategoryAuth    = "auth"
)

// Invite event types
const (
	EventInviteCreated  = "invite_created"
	EventInviteResent   = "invite_resent"
	EventInviteRevoked  = "invite_revoked"
	EventInviteExpired  = "invite_expired"
	EventInviteAccepted = "invite_accepted"
)

// Account event types
const (
	EventRoleUpdated        = "role_updated"
	EventProjectsAssigned   = "projects_assigned"
	EventAccountDeactivated = "account_deactivated"
)

// Auth event types
const (
	EventLoginSuccess = "login_success"
	EventLoginDenied  = "login_denied"
	EventLogout       = "logout"
)

// Event represents an audit event.
type Event struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Timestamp time.Time          `bson:"timestamp"`

	// Event classification
	Category  string `bson:"category"`
	EventType string `bson:"event_type"`

	// Who: identity-provider subjects, not document ids, so events survive
	// account deletion and cover invitees who have no account yet.
	ActorUID   string `bson:"actor_uid,omitempty"`   // who performed the action
	SubjectUID string `bson:"subject_uid,omitempty"` // affected account

	// The invite this event concerns, when there is one.
	InviteID *primitive.ObjectID `bson:"invite_id,omitempty"`

	// Context
	IP        string `bson:"ip,omitempty"`
	UserAgent string `bson:"user_agent,omitempty"`

	// Outcome
	Success       bool   `bson:"success"`
	FailureReason string `bson:"failure_reason,omitempty"`

	// Additional details (varies by event type)
	Details map[string]string `bson:"details,omitempty"`
}

// QueryFilter defines filters for querying audit events.
type QueryFilter struct {
	Category   string
	EventType  string
	ActorUID   string
	SubjectUID string
	InviteID   *primitive.ObjectID
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int64
	Offset     int64
}

// Store manages audit event records.
type Store struct {
	c *mongo.Collection
}

// New creates a new audit Store.
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("audit_events")}
}

// EnsureIndexes creates necessary indexes for efficient querying.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Query by time range (most recent first)
		{
			Keys: bson.D{{Key: "timestamp", Value: -1}},
		},
		// Query by affected account
		{
			Keys: bson.D{
				{Key: "subject_uid", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Query by invite
		{
			Keys: bson.D{
				{Key: "invite_id", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
		// Query by event type
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "event_type", Value: 1},
				{Key: "timestamp", Value: -1},
			},
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Log records an audit event.
func (s *Store) Log(ctx context.Context, event Event) error {
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_, err := s.c.InsertOne(ctx, event)
	return err
}

// Query retrieves audit events matching the given filter, most recent first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Event, error) {
	query := buildQuery(filter)

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit).
		SetSkip(filter.Offset)

	cursor, err := s.c.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// CountByFilter returns the total number of events matching the filter,
// ignoring limit and offset. Used for pagination.
func (s *Store) CountByFilter(ctx context.Context, filter QueryFilter) (int64, error) {
	return s.c.CountDocuments(ctx, buildQuery(filter))
}

// GetRecent returns the most recent events across all categories.
func (s *Store) GetRecent(ctx context.Context, limit int64) ([]Event, error) {
	return s.Query(ctx, QueryFilter{Limit: limit})
}

func buildQuery(filter QueryFilter) bson.M {
	query := bson.M{}

	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.EventType != "" {
		query["event_type"] = filter.EventType
	}
	if filter.ActorUID != "" {
		query["actor_uid"] = filter.ActorUID
	}
	if filter.SubjectUID != "" {
		query["subject_uid"] = filter.SubjectUID
	}
	if filter.InviteID != nil {
		query["invite_id"] = filter.InviteID
	}

	if filter.StartTime != nil || filter.EndTime != nil {
		timeQuery := bson.M{}
		if filter.StartTime != nil {
			timeQuery["$gte"] = *filter.StartTime
		}
		if filter.EndTime != nil {
			timeQuery["$lte"] = *filter.EndTime
		}
		query["timestamp"] = timeQuery
	}

	return query
}
