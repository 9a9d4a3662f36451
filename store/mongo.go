package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"tabiji/db"
	"tabiji/models"
	"tabiji/rdx"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Mongo is the production adapter: documents live in MongoDB, change
// notifications fan out over Redis pub/sub, batches run in one
// multi-document transaction.
type Mongo struct{}

func NewMongo() *Mongo {
	return &Mongo{}
}

func (m *Mongo) coll(name string) *mongo.Collection {
	switch name {
	case models.ColItinerary:
		return db.ItineraryCollection
	case models.ColExpenses:
		return db.ExpensesCollection
	case models.ColShopping:
		return db.ShoppingCollection
	case models.ColRestaurants:
		return db.RestaurantsCollection
	case models.ColSightseeing:
		return db.SightseeingCollection
	}
	return db.Client.Database(db.DBName).Collection(name)
}

// mapErr promotes Mongo authorization errors to the distinguished
// permission-denied kind; everything else passes through unchanged.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Code == 13 || cmdErr.Name == "Unauthorized") {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return err
}

func (m *Mongo) readAll(ctx context.Context, collection string) ([]bson.Raw, error) {
	cur, err := m.coll(collection).Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bson.Raw
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func (m *Mongo) Subscribe(collection string, onSnapshot SnapshotFunc, onError ErrorFunc) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())

	deliver := func() {
		docs, err := m.readAll(ctx, collection)
		if err != nil {
			// Last-known-good stays in place downstream; just report.
			onError(mapErr(err))
			return
		}
		onSnapshot(docs)
	}

	deliver()

	sub := rdx.SubscribeChanges(ctx, collection)
	if sub == nil {
		// No Redis configured: initial snapshot only.
		log.Printf("store: no change feed for %s, snapshot is one-shot", collection)
		return cancel, nil
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				deliver()
			}
		}
	}()

	return func() {
		sub.Close()
		cancel()
	}, nil
}

func (m *Mongo) GetDocument(ctx context.Context, collection, id string, out any) error {
	err := m.coll(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return mapErr(err)
}

func (m *Mongo) SetDocument(ctx context.Context, collection, id string, doc any) error {
	opts := options.Replace().SetUpsert(true)
	_, err := m.coll(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts)
	if err != nil {
		return mapErr(err)
	}
	rdx.PublishChange(ctx, collection)
	return nil
}

func (m *Mongo) UpdateDocument(ctx context.Context, collection, id string, fields bson.M) error {
	_, err := m.coll(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return mapErr(err)
	}
	rdx.PublishChange(ctx, collection)
	return nil
}

func (m *Mongo) DeleteDocument(ctx context.Context, collection, id string) error {
	_, err := m.coll(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapErr(err)
	}
	rdx.PublishChange(ctx, collection)
	return nil
}

// --- Batch ---

type mongoBatchOp func(ctx mongo.SessionContext, m *Mongo) error

type mongoBatch struct {
	m       *Mongo
	ops     []mongoBatchOp
	touched []string
}

func (m *Mongo) Batch() Batch {
	return &mongoBatch{m: m}
}

func (b *mongoBatch) touch(collection string) {
	for _, c := range b.touched {
		if c == collection {
			return
		}
	}
	b.touched = append(b.touched, collection)
}

func (b *mongoBatch) Set(collection, id string, doc any) {
	b.touch(collection)
	b.ops = append(b.ops, func(ctx mongo.SessionContext, m *Mongo) error {
		opts := options.Replace().SetUpsert(true)
		_, err := m.coll(collection).ReplaceOne(ctx, bson.M{"_id": id}, doc, opts)
		return err
	})
}

func (b *mongoBatch) Update(collection, id string, fields bson.M) {
	b.touch(collection)
	b.ops = append(b.ops, func(ctx mongo.SessionContext, m *Mongo) error {
		_, err := m.coll(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
		return err
	})
}

func (b *mongoBatch) Delete(collection, id string) {
	b.touch(collection)
	b.ops = append(b.ops, func(ctx mongo.SessionContext, m *Mongo) error {
		_, err := m.coll(collection).DeleteOne(ctx, bson.M{"_id": id})
		return err
	})
}

func (b *mongoBatch) Commit(ctx context.Context) error {
	if len(b.ops) == 0 {
		return nil
	}

	session, err := db.Client.StartSession()
	if err != nil {
		return mapErr(err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		for _, op := range b.ops {
			if err := op(sc, b.m); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return mapErr(err)
	}

	for _, collection := range b.touched {
		rdx.PublishChange(ctx, collection)
	}
	return nil
}
