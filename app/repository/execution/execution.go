// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package execution implements the shared executions ledger over MongoDB.
package execution

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	executionModel "github.com/seakee/momo/app/model/execution"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	// Repo defines persistence operations for live schedule instances.
	//
	// The ledger is the only coordination channel between schedule
	// instances: heartbeats, activeness election, takeover cleanup, and
	// per-instance running counts all flow through it.
	Repo interface {
		// AddSchedule registers one schedule instance with a fresh heartbeat.
		AddSchedule(ctx context.Context, scheduleID, name string) error

		// IsActiveSchedule reports whether scheduleID is the active holder
		// of name, claiming ownership when no live entry exists yet.
		IsActiveSchedule(ctx context.Context, scheduleID, name string) (bool, error)

		// Ping refreshes the lastAlive heartbeat of one schedule instance.
		Ping(ctx context.Context, scheduleID string) error

		// DeleteOne removes the entry of one schedule instance.
		DeleteOne(ctx context.Context, scheduleID string) error

		// DeleteDead removes entries of name whose heartbeat is older than
		// olderThan. This is how takeover of a crashed peer happens.
		DeleteDead(ctx context.Context, name string, olderThan int64) error

		// CountRunning sums the running count of jobName over all entries.
		CountRunning(ctx context.Context, jobName string) (int, error)

		// IncrementExecution bumps the running count this instance
		// contributes for jobName.
		IncrementExecution(ctx context.Context, scheduleID, jobName string) error

		// DecrementExecution releases one running count of jobName.
		DecrementExecution(ctx context.Context, scheduleID, jobName string) error

		// EnsureIndexes creates the scheduleId index on the collection.
		EnsureIndexes(ctx context.Context) error
	}

	// repo is a mongo-driver backed Repo implementation.
	repo struct {
		collection   *mongo.Collection
		pingInterval time.Duration
	}
)

// NewScheduleRepo creates a Repo bound to the executions collection of db.
//
// Parameters:
//   - db: MongoDB database handle.
//   - pingInterval: heartbeat period used to judge entry liveness.
//
// Returns:
//   - Repo: initialized repository implementation.
func NewScheduleRepo(db *mongo.Database, pingInterval time.Duration) Repo {
	model := &executionModel.ScheduleEntry{}
	return &repo{
		collection:   db.Collection(model.CollectionName()),
		pingInterval: pingInterval,
	}
}

// EnsureIndexes creates an index on scheduleId.
//
// Parameters:
//   - ctx: request or startup context.
//
// Returns:
//   - error: index creation error.
func (r *repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "scheduleId", Value: 1}},
	})

	return errors.Wrap(err, "create executions scheduleId index")
}

// AddSchedule inserts the ledger entry of one schedule instance.
//
// Parameters:
//   - ctx: request or startup context.
//   - scheduleID: process-unique instance identifier.
//   - name: logical schedule name shared by competing instances.
//
// Returns:
//   - error: upsert error.
func (r *repo) AddSchedule(ctx context.Context, scheduleID, name string) error {
	update := bson.M{
		"$set": bson.M{
			"name":      name,
			"lastAlive": time.Now().UnixMilli(),
		},
		"$setOnInsert": bson.M{"executions": bson.M{}},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"scheduleId": scheduleID}, update, options.Update().SetUpsert(true))

	return errors.Wrapf(err, "add schedule %s", scheduleID)
}

// IsActiveSchedule elects the active holder of a schedule name.
//
// Parameters:
//   - ctx: request or task context.
//   - scheduleID: identifier of the calling instance.
//   - name: logical schedule name under election.
//
// Returns:
//   - bool: true when the caller is (or becomes) the active holder.
//   - error: query or claim error.
//
// Behavior:
//   - Live entries of name are ranked by oldest lastAlive first, then
//     lexicographic scheduleId; the head of the ranking wins.
//   - When no live entry exists the caller claims ownership by writing
//     its own entry. The read-then-write is not atomic: two instances can
//     both observe themselves as winners for at most one ping round, which
//     is tolerated because starting jobs is idempotent.
func (r *repo) IsActiveSchedule(ctx context.Context, scheduleID, name string) (bool, error) {
	cutoff := executionModel.DeadBefore(time.Now(), r.pingInterval)

	cursor, err := r.collection.Find(ctx, bson.M{
		"name":      name,
		"lastAlive": bson.M{"$gte": cutoff},
	})
	if err != nil {
		return false, errors.Wrapf(err, "find live schedules of %s", name)
	}
	defer cursor.Close(ctx)

	entries := make([]*executionModel.ScheduleEntry, 0)
	for cursor.Next(ctx) {
		var entry executionModel.ScheduleEntry
		if err = cursor.Decode(&entry); err != nil {
			return false, errors.Wrap(err, "decode schedule entry")
		}

		entries = append(entries, &entry)
	}

	if err = cursor.Err(); err != nil {
		return false, errors.Wrapf(err, "live schedules cursor of %s", name)
	}

	if len(entries) == 0 {
		// Nobody alive holds the name, claim it with our own entry.
		if err = r.AddSchedule(ctx, scheduleID, name); err != nil {
			return false, err
		}

		return true, nil
	}

	sort.Slice(entries, func(i, k int) bool {
		if entries[i].LastAlive != entries[k].LastAlive {
			return entries[i].LastAlive < entries[k].LastAlive
		}

		return entries[i].ScheduleID < entries[k].ScheduleID
	})

	return entries[0].ScheduleID == scheduleID, nil
}

// Ping refreshes the heartbeat of one schedule instance.
//
// Parameters:
//   - ctx: request or task context.
//   - scheduleID: identifier of the calling instance.
//
// Returns:
//   - error: update error.
func (r *repo) Ping(ctx context.Context, scheduleID string) error {
	update := bson.M{"$set": bson.M{"lastAlive": time.Now().UnixMilli()}}

	_, err := r.collection.UpdateOne(ctx, bson.M{"scheduleId": scheduleID}, update)

	return errors.Wrapf(err, "ping schedule %s", scheduleID)
}

// DeleteOne removes the ledger entry of one schedule instance.
//
// Parameters:
//   - ctx: request or shutdown context.
//   - scheduleID: identifier of the instance to remove.
//
// Returns:
//   - error: deletion error.
func (r *repo) DeleteOne(ctx context.Context, scheduleID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"scheduleId": scheduleID})

	return errors.Wrapf(err, "delete schedule %s", scheduleID)
}

// DeleteDead removes stale ledger entries of a schedule name.
//
// Parameters:
//   - ctx: request or task context.
//   - name: logical schedule name to clean.
//   - olderThan: unix-millisecond cutoff; entries strictly older are removed.
//
// Returns:
//   - error: deletion error.
func (r *repo) DeleteDead(ctx context.Context, name string, olderThan int64) error {
	filter := bson.M{
		"name":      name,
		"lastAlive": bson.M{"$lt": olderThan},
	}

	_, err := r.collection.DeleteMany(ctx, filter)

	return errors.Wrapf(err, "delete dead schedules of %s", name)
}

// CountRunning sums the cluster-wide running count of one job.
//
// Parameters:
//   - ctx: request or task context.
//   - jobName: job whose per-instance counts are summed.
//
// Returns:
//   - int: total running invocations over all entries of the collection;
//     entries are not filtered by liveness or schedule name.
//   - error: aggregation error.
func (r *repo) CountRunning(ctx context.Context, jobName string) (int, error) {
	field := "$executions." + jobName

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": bson.M{"$ifNull": bson.A{field, 0}}},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, errors.Wrapf(err, "count running of %s", jobName)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total int `bson:"total"`
	}

	if cursor.Next(ctx) {
		if err = cursor.Decode(&result); err != nil {
			return 0, errors.Wrap(err, "decode running count")
		}
	}

	return result.Total, cursor.Err()
}

// IncrementExecution bumps the per-instance running count of one job.
//
// Parameters:
//   - ctx: request or task context.
//   - scheduleID: identifier of the executing instance.
//   - jobName: job being executed.
//
// Returns:
//   - error: update error.
func (r *repo) IncrementExecution(ctx context.Context, scheduleID, jobName string) error {
	update := bson.M{"$inc": bson.M{"executions." + jobName: 1}}

	_, err := r.collection.UpdateOne(ctx, bson.M{"scheduleId": scheduleID}, update)

	return errors.Wrapf(err, "increment execution of %s", jobName)
}

// DecrementExecution releases one per-instance running count of a job.
//
// Parameters:
//   - ctx: request or task context.
//   - scheduleID: identifier of the executing instance.
//   - jobName: job whose count is released.
//
// Returns:
//   - error: update error.
func (r *repo) DecrementExecution(ctx context.Context, scheduleID, jobName string) error {
	filter := bson.M{
		"scheduleId":            scheduleID,
		"executions." + jobName: bson.M{"$gt": 0},
	}

	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"executions." + jobName: -1}})

	return errors.Wrapf(err, "decrement execution of %s", jobName)
}
