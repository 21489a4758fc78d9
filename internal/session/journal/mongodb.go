package journal

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	defaultCollectionName = "session_journal"
	duplicateKeyCode      = 11000
)

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		coll: db.Collection(defaultCollectionName),
	}
}

// SaveBatch 无序插入；重试时已写入的 _id 报重复键，视为成功。
func (r *MongoRepository) SaveBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if r == nil || r.coll == nil {
		return ErrStoreUnavailable.WithData("reason", "mongodb journal collection is nil")
	}
	docs := make([]any, 0, len(records))
	for i := range records {
		docs = append(docs, records[i])
	}
	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err != nil && !onlyDuplicates(err) {
		return ErrStoreUnavailable.WithData("batch", len(records)).WithCause(err)
	}
	return nil
}

func onlyDuplicates(err error) bool {
	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return mongo.IsDuplicateKeyError(err)
	}
	if bwe.WriteConcernError != nil || len(bwe.WriteErrors) == 0 {
		return false
	}
	for _, we := range bwe.WriteErrors {
		if we.Code != duplicateKeyCode {
			return false
		}
	}
	return true
}
