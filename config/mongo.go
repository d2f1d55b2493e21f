package config

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	mongoDatabase *mongo.Database
	mongoOnce     sync.Once
)

// ConnectMongo initializes a singleton connection to the prescription document
// store. Returns the database handle (or nil) and an error if connection or
// ping failed.
func ConnectMongo() (*mongo.Database, error) {
	var err error
	mongoOnce.Do(func() {
		cfg := LoadConfig()
		if cfg.AppEnv == "test" {
			// Tests use the in-memory prescription store instead.
			return
		}

		uri := cfg.MongoURI
		if uri == "" {
			uri = "mongodb://localhost:27017"
		}
		name := cfg.MongoDB
		if name == "" {
			name = "smartclinic"
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		var client *mongo.Client
		client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			err = fmt.Errorf("mongo connect failed: %w", err)
			return
		}
		if err = client.Ping(ctx, nil); err != nil {
			err = fmt.Errorf("mongo ping failed: %w", err)
			return
		}

		mongoDatabase = client.Database(name)
		log.Printf("Connected to MongoDB at %s", uri)
	})
	return mongoDatabase, err
}

// GetMongoDatabase returns the initialized Mongo database handle (may be nil if
// ConnectMongo failed or was not called).
func GetMongoDatabase() *mongo.Database {
	return mongoDatabase
}
