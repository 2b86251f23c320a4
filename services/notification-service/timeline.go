package main

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const timelineCollection = "case_timeline"

// TimelineEntry is one step in a report's history.
type TimelineEntry struct {
	ReportID string            `bson:"report_id" json:"report_id"`
	Event    string            `bson:"event" json:"event"`
	Actor    string            `bson:"actor,omitempty" json:"actor,omitempty"`
	Detail   map[string]string `bson:"detail,omitempty" json:"detail,omitempty"`
	At       time.Time         `bson:"at" json:"at"`
}

type Timeline interface {
	Append(ctx context.Context, e TimelineEntry) error
	ForReport(ctx context.Context, reportID string) ([]TimelineEntry, error)
}

type MongoTimeline struct {
	coll *mongo.Collection
}

func NewMongoTimeline(db *mongo.Database) *MongoTimeline {
	return &MongoTimeline{coll: db.Collection(timelineCollection)}
}

// EnsureIndexes creates the (report_id, at) index used by ForReport.
func (t *MongoTimeline) EnsureIndexes(ctx context.Context) error {
	_, err := t.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "report_id", Value: 1}, {Key: "at", Value: 1}},
	})
	return err
}

func (t *MongoTimeline) Append(ctx context.Context, e TimelineEntry) error {
	if _, err := t.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("append timeline: %w", err)
	}
	return nil
}

func (t *MongoTimeline) ForReport(ctx context.Context, reportID string) ([]TimelineEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: 1}})
	cursor, err := t.coll.Find(ctx, bson.M{"report_id": reportID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find timeline: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]TimelineEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	return entries, nil
}
