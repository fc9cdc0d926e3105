// Package database manages the shared MongoDB connection and exposes the
// process-wide connected gate consulted before every cache operation.
package database

import (
	"context"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const defaultDatabase = "weekend-dashboard"

// DB wraps the Mongo client plus a connected flag. A failed connection does
// not abort startup: the application runs with caching disabled instead.
type DB struct {
	client    *mongo.Client
	database  *mongo.Database
	connected atomic.Bool
	log       *zap.Logger
}

// Connect dials MongoDB at uri. The returned DB is always usable; check
// Connected before relying on it.
func Connect(ctx context.Context, uri string, log *zap.Logger) *DB {
	db := &DB{log: log}

	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetServerSelectionTimeout(5 * time.Second).
		SetSocketTimeout(45 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		log.Warn("mongodb connection failed, continuing without caching", zap.Error(err))
		return db
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		log.Warn("mongodb ping failed, continuing without caching", zap.Error(err))
		return db
	}

	db.client = client
	db.database = client.Database(databaseName(uri))
	db.connected.Store(true)
	log.Info("mongodb connected", zap.String("database", db.database.Name()))
	return db
}

// Connected reports whether the initial connection succeeded.
func (d *DB) Connected() bool { return d.connected.Load() }

// Collection returns a handle in the configured database, or nil when the
// store never came up.
func (d *DB) Collection(name string) *mongo.Collection {
	if d.database == nil {
		return nil
	}
	return d.database.Collection(name)
}

// Disconnect closes the underlying client.
func (d *DB) Disconnect(ctx context.Context) error {
	if d.client == nil {
		return nil
	}
	d.connected.Store(false)
	return d.client.Disconnect(ctx)
}

// databaseName pulls the database out of the connection string path,
// falling back to the default used by the dashboard.
func databaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultDatabase
	}
	name := strings.Trim(u.Path, "/")
	if name == "" {
		return defaultDatabase
	}
	return name
}
