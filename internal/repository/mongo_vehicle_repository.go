package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stage-analytics-service/internal/model"
)

// MongoVehicleRepository reads vehicle documents with embedded stage events.
type MongoVehicleRepository struct {
	collection *mongo.Collection
}

// NewMongoVehicleRepository binds the collection and makes sure its indexes exist.
func NewMongoVehicleRepository(ctx context.Context, db *mongo.Database, collection string) (*MongoVehicleRepository, error) {
	repo := &MongoVehicleRepository{collection: db.Collection(collection)}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := repo.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("ensure %s indexes: %w", collection, err)
	}

	return repo, nil
}

func (r *MongoVehicleRepository) ensureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "vehicleNumber", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "entryTime", Value: 1}}},
		{Keys: bson.D{{Key: "exitTime", Value: 1}}},
		{Keys: bson.D{{Key: "stages.timestamp", Value: 1}}},
	}
	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *MongoVehicleRepository) VehiclesWithEventsBetween(ctx context.Context, from, to time.Time) ([]model.Vehicle, error) {
	return r.find(ctx, eventsBetweenFilter(from, to))
}

func (r *MongoVehicleRepository) VehiclesEnteredBetween(ctx context.Context, from, to time.Time) ([]model.Vehicle, error) {
	return r.find(ctx, enteredBetweenFilter(from, to))
}

func (r *MongoVehicleRepository) ActiveVehicles(ctx context.Context) ([]model.Vehicle, error) {
	return r.find(ctx, activeFilter())
}

func (r *MongoVehicleRepository) VehiclesTouching(ctx context.Context, from, to time.Time) ([]model.Vehicle, error) {
	return r.find(ctx, touchingFilter(from, to))
}

func (r *MongoVehicleRepository) VehicleByNumber(ctx context.Context, vehicleNumber string) (*model.Vehicle, error) {
	raw, err := r.collection.FindOne(ctx, bson.M{"vehicleNumber": vehicleNumber}).Raw()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load vehicle %s: %w", vehicleNumber, err)
	}

	var vehicle model.Vehicle
	if err := bson.Unmarshal(raw, &vehicle); err != nil {
		vehicle = unreadableVehicle(raw, err)
	}
	return &vehicle, nil
}

func (r *MongoVehicleRepository) find(ctx context.Context, filter bson.M) ([]model.Vehicle, error) {
	opts := options.Find().SetSort(bson.D{{Key: "entryTime", Value: 1}, {Key: "vehicleNumber", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer cursor.Close(ctx)

	return decodeVehicles(ctx, cursor)
}

// decodeVehicles decodes documents one by one. A document whose event log
// does not decode is returned with LoadError set instead of failing the batch.
func decodeVehicles(ctx context.Context, cursor *mongo.Cursor) ([]model.Vehicle, error) {
	vehicles := make([]model.Vehicle, 0)
	for cursor.Next(ctx) {
		var vehicle model.Vehicle
		if err := cursor.Decode(&vehicle); err != nil {
			vehicles = append(vehicles, unreadableVehicle(cursor.Current, err))
			continue
		}
		vehicles = append(vehicles, vehicle)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("read vehicles: %w", err)
	}
	return vehicles, nil
}

// unreadableVehicle keeps whatever identifying fields can still be read.
func unreadableVehicle(raw bson.Raw, decodeErr error) model.Vehicle {
	vehicle := model.Vehicle{LoadError: fmt.Sprintf("decode vehicle: %v", decodeErr)}
	if number, ok := raw.Lookup("vehicleNumber").StringValueOK(); ok {
		vehicle.VehicleNumber = number
	}
	if entry, ok := raw.Lookup("entryTime").TimeOK(); ok {
		vehicle.EntryTime = entry.UTC()
	}
	if exit, ok := raw.Lookup("exitTime").TimeOK(); ok {
		exit = exit.UTC()
		vehicle.ExitTime = &exit
	}
	return vehicle
}

func rangeFilter(from, to time.Time) bson.M {
	return bson.M{"$gte": from, "$lt": to}
}

// eventsBetweenFilter needs $elemMatch so both bounds apply to the same event.
func eventsBetweenFilter(from, to time.Time) bson.M {
	return bson.M{"stages": bson.M{"$elemMatch": bson.M{"timestamp": rangeFilter(from, to)}}}
}

func enteredBetweenFilter(from, to time.Time) bson.M {
	return bson.M{"entryTime": rangeFilter(from, to)}
}

func exitedBetweenFilter(from, to time.Time) bson.M {
	return bson.M{"exitTime": rangeFilter(from, to)}
}

// activeFilter matches both a null and a missing exitTime.
func activeFilter() bson.M {
	return bson.M{"exitTime": nil}
}

func touchingFilter(from, to time.Time) bson.M {
	return bson.M{"$or": bson.A{
		eventsBetweenFilter(from, to),
		enteredBetweenFilter(from, to),
		exitedBetweenFilter(from, to),
	}}
}
