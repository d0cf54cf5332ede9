package storage

import (
	"context"
	"fmt"
)

// Storage drivers.
const (
	DriverFS     = "fs"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMongo  = "mongo"
)

// Options selects and configures a backend.
type Options struct {
	Driver     string
	FSPath     string
	SQLitePath string
	Redis      RedisOptions
	Mongo      MongoOptions
}

// Open returns the backend named by opts.Driver.
func Open(ctx context.Context, opts Options) (Provider, error) {
	switch opts.Driver {
	case DriverFS, "":
		return NewFS(opts.FSPath)
	case DriverSQLite:
		return OpenSQLite(opts.SQLitePath)
	case DriverRedis:
		return OpenRedis(ctx, opts.Redis)
	case DriverMongo:
		return OpenMongo(ctx, opts.Mongo)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", opts.Driver)
	}
}
