package db

import (
	"context"
	"log"
	"os"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	Client *mongo.Client
	DBName string

	ItineraryCollection   *mongo.Collection
	ExpensesCollection    *mongo.Collection
	ShoppingCollection    *mongo.Collection
	RestaurantsCollection *mongo.Collection
	SightseeingCollection *mongo.Collection
)

// Init connects to MongoDB and binds the five trip collections.
func Init(ctx context.Context) error {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017"
	}
	DBName = os.Getenv("MONGO_DB")
	if DBName == "" {
		DBName = "tripdb"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}
	Client = client

	database := client.Database(DBName)
	ItineraryCollection = database.Collection("itinerary")
	ExpensesCollection = database.Collection("expenses")
	ShoppingCollection = database.Collection("shopping")
	RestaurantsCollection = database.Collection("restaurants")
	SightseeingCollection = database.Collection("sightseeing")

	log.Printf("Connected to MongoDB at %s, db %s", uri, DBName)
	return nil
}

// Close disconnects the client; safe to call with a nil client.
func Close(ctx context.Context) {
	if Client == nil {
		return
	}
	if err := Client.Disconnect(ctx); err != nil {
		log.Println("Mongo disconnect error:", err)
	}
}
