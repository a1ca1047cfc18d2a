// Package database manages the document store client lifecycle.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"chaosnet/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect dials the document store and verifies the connection with a ping.
// The returned client is safe to share across concurrent request handlers;
// callers own its lifecycle and must Disconnect on shutdown.
func Connect(cfg *config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect failed: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	log.Println("Document store connected successfully")
	return client, nil
}

// Posts returns the posts collection handle for the configured database.
func Posts(client *mongo.Client, cfg *config.Config) *mongo.Collection {
	return client.Database(cfg.MongoDBName).Collection("posts")
}
