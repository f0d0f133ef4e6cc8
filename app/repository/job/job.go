// Copyright 2024 Seakee.  All rights reserved.
// Use of this source code is governed by a MIT style
// license that can be found in the LICENSE file.

// Package job implements the shared job store over MongoDB.
package job

import (
	"context"

	"github.com/pkg/errors"
	jobModel "github.com/seakee/momo/app/model/job"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type (
	// Repo defines persistence operations for job definitions.
	//
	// All operations hit the shared jobs collection and may fail; callers
	// decide whether a failure is fatal or absorbed into the periodic loop.
	Repo interface {
		// FindOne returns the job named name, or nil when absent.
		FindOne(ctx context.Context, name string) (*jobModel.Job, error)

		// Save upserts the definition fields of a job, preserving the
		// running counter and execution info of an existing record.
		Save(ctx context.Context, job *jobModel.Job) error

		// Delete removes the job named name.
		Delete(ctx context.Context, name string) error

		// List returns all stored job definitions.
		List(ctx context.Context) ([]*jobModel.Job, error)

		// IncrementRunning atomically bumps the running counter of a job
		// unless doing so would exceed maxRunning. A maxRunning of zero
		// means unbounded. Returns false when the cap blocked the bump.
		IncrementRunning(ctx context.Context, name string, maxRunning int) (bool, error)

		// DecrementRunning releases one running slot, never going below zero.
		DecrementRunning(ctx context.Context, name string) error

		// UpdateExecutionInfo stores the latest execution metadata of a job.
		UpdateExecutionInfo(ctx context.Context, name string, info *jobModel.ExecutionInfo) error

		// EnsureIndexes creates the unique name index on the collection.
		EnsureIndexes(ctx context.Context) error
	}

	// repo is a mongo-driver backed Repo implementation.
	repo struct {
		collection *mongo.Collection
	}
)

// NewJobRepo creates a Repo bound to the jobs collection of db.
//
// Parameters:
//   - db: MongoDB database handle.
//
// Returns:
//   - Repo: initialized repository implementation.
func NewJobRepo(db *mongo.Database) Repo {
	model := &jobModel.Job{}
	return &repo{collection: db.Collection(model.CollectionName())}
}

// EnsureIndexes creates a unique index on the job name.
//
// Parameters:
//   - ctx: request or startup context.
//
// Returns:
//   - error: index creation error.
func (r *repo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})

	return errors.Wrap(err, "create jobs name index")
}

// FindOne returns one job definition by name.
//
// Parameters:
//   - ctx: request or task context.
//   - name: unique job name.
//
// Returns:
//   - *jobModel.Job: matched definition, nil when no record exists.
//   - error: query error.
func (r *repo) FindOne(ctx context.Context, name string) (*jobModel.Job, error) {
	var j jobModel.Job

	err := r.collection.FindOne(ctx, bson.M{"name": name}).Decode(&j)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}

		return nil, errors.Wrapf(err, "find job %s", name)
	}

	return &j, nil
}

// Save upserts a job definition by name.
//
// Parameters:
//   - ctx: request or task context.
//   - job: definition to persist.
//
// Returns:
//   - error: update error.
//
// Behavior:
//   - Sets only definition fields so redefinition keeps the cluster-wide
//     running counter and the recorded execution info of a live job.
func (r *repo) Save(ctx context.Context, job *jobModel.Job) error {
	update := bson.M{
		"$set": bson.M{
			"interval":    job.Interval,
			"concurrency": job.Concurrency,
			"maxRunning":  job.MaxRunning,
			"immediate":   job.Immediate,
		},
		"$setOnInsert": bson.M{"running": 0},
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"name": job.Name}, update, options.Update().SetUpsert(true))

	return errors.Wrapf(err, "save job %s", job.Name)
}

// Delete removes one job definition by name.
//
// Parameters:
//   - ctx: request or task context.
//   - name: unique job name.
//
// Returns:
//   - error: deletion error.
func (r *repo) Delete(ctx context.Context, name string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"name": name})

	return errors.Wrapf(err, "delete job %s", name)
}

// List returns all stored job definitions.
//
// Parameters:
//   - ctx: request or task context.
//
// Returns:
//   - []*jobModel.Job: stored definitions, possibly empty.
//   - error: query or decode error.
func (r *repo) List(ctx context.Context) ([]*jobModel.Job, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "list jobs")
	}
	defer cursor.Close(ctx)

	jobs := make([]*jobModel.Job, 0)
	for cursor.Next(ctx) {
		var j jobModel.Job
		if err = cursor.Decode(&j); err != nil {
			return nil, errors.Wrap(err, "decode job")
		}

		jobs = append(jobs, &j)
	}

	return jobs, errors.Wrap(cursor.Err(), "list jobs cursor")
}

// IncrementRunning bumps the running counter under the cluster cap.
//
// Parameters:
//   - ctx: request or task context.
//   - name: unique job name.
//   - maxRunning: cluster-wide cap, zero for unbounded.
//
// Returns:
//   - bool: true when the counter was incremented.
//   - error: update error.
//
// Behavior:
//   - Uses a filtered $inc so check and increment happen in one document
//     operation; a concurrent peer can still observe stale running values
//     before its own increment, which keeps the cap a soft ceiling.
func (r *repo) IncrementRunning(ctx context.Context, name string, maxRunning int) (bool, error) {
	filter := bson.M{"name": name}
	if maxRunning > 0 {
		filter["running"] = bson.M{"$lt": maxRunning}
	}

	result, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"running": 1}})
	if err != nil {
		return false, errors.Wrapf(err, "increment running of %s", name)
	}

	return result.ModifiedCount > 0, nil
}

// DecrementRunning releases one running slot of a job.
//
// Parameters:
//   - ctx: request or task context.
//   - name: unique job name.
//
// Returns:
//   - error: update error.
//
// Behavior:
//   - Filters on running > 0 so ledger drift from a crashed peer can never
//     push the counter negative.
func (r *repo) DecrementRunning(ctx context.Context, name string) error {
	filter := bson.M{"name": name, "running": bson.M{"$gt": 0}}

	_, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"running": -1}})

	return errors.Wrapf(err, "decrement running of %s", name)
}

// UpdateExecutionInfo stores the latest execution metadata of a job.
//
// Parameters:
//   - ctx: request or task context.
//   - name: unique job name.
//   - info: execution metadata to persist.
//
// Returns:
//   - error: update error.
func (r *repo) UpdateExecutionInfo(ctx context.Context, name string, info *jobModel.ExecutionInfo) error {
	_, err := r.collection.UpdateOne(ctx, bson.M{"name": name}, bson.M{"$set": bson.M{"executionInfo": info}})

	return errors.Wrapf(err, "update execution info of %s", name)
}
