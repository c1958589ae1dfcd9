// Package registry remembers debuggee endpoints a controller has
// connected to, so a developer tracking several scripts across a
// fleet doesn't have to retype REMOTE_LDB-style addresses every time.
// It is advisory metadata only: the TCP handshake and wire protocol
// never consult it. A label directory only needs a Redis hash and a
// set, so go-redis is used directly with no abstraction layer.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyLabels = "rdb:registry:labels"
	keyPrefix = "rdb:registry:endpoint:"
)

// Entry is one remembered debuggee target.
type Entry struct {
	Label    string
	Host     string
	Port     int
	LastSeen time.Time
}

// Registry stores Entry values in Redis, keyed by label.
type Registry struct {
	rdb *redis.Client
}

// New builds a Registry against a Redis server at addr (host:port).
// db selects the logical database; 0 is the go-redis default.
func New(addr string, db int) *Registry {
	return &Registry{rdb: redis.NewClient(&redis.Options{Addr: addr, DB: db})}
}

// Close releases the underlying connection pool.
func (r *Registry) Close() error { return r.rdb.Close() }

// Ping verifies the Redis server is reachable.
func (r *Registry) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Remember records or updates a label's endpoint and bumps LastSeen
// to now. now is passed in rather than read from time.Now() so
// callers can keep the registry's clock under their own control.
func (r *Registry) Remember(ctx context.Context, label, host string, port int, now time.Time) error {
	pipe := r.rdb.TxPipeline()
	pipe.SAdd(ctx, keyLabels, label)
	pipe.HSet(ctx, keyPrefix+label, map[string]interface{}{
		"host":      host,
		"port":      port,
		"last_seen": now.Format(time.RFC3339),
	})
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("registry: remembering %s: %w", label, err)
	}
	return nil
}

// Forget removes a label from the directory.
func (r *Registry) Forget(ctx context.Context, label string) error {
	pipe := r.rdb.TxPipeline()
	pipe.SRem(ctx, keyLabels, label)
	pipe.Del(ctx, keyPrefix+label)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("registry: forgetting %s: %w", label, err)
	}
	return nil
}

// Lookup returns the remembered endpoint for label, if any.
func (r *Registry) Lookup(ctx context.Context, label string) (Entry, bool, error) {
	fields, err := r.rdb.HGetAll(ctx, keyPrefix+label).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("registry: looking up %s: %w", label, err)
	}
	if len(fields) == 0 {
		return Entry{}, false, nil
	}
	e, err := entryFromFields(label, fields)
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// List returns every remembered entry, in no particular order.
func (r *Registry) List(ctx context.Context) ([]Entry, error) {
	labels, err := r.rdb.SMembers(ctx, keyLabels).Result()
	if err != nil {
		return nil, fmt.Errorf("registry: listing labels: %w", err)
	}
	entries := make([]Entry, 0, len(labels))
	for _, label := range labels {
		e, ok, err := r.Lookup(ctx, label)
		if err != nil {
			return nil, err
		}
		if ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func entryFromFields(label string, fields map[string]string) (Entry, error) {
	port := 0
	if _, err := fmt.Sscanf(fields["port"], "%d", &port); err != nil {
		return Entry{}, fmt.Errorf("registry: malformed port for %s: %w", label, err)
	}
	lastSeen, err := time.Parse(time.RFC3339, fields["last_seen"])
	if err != nil {
		return Entry{}, fmt.Errorf("registry: malformed last_seen for %s: %w", label, err)
	}
	return Entry{Label: label, Host: fields["host"], Port: port, LastSeen: lastSeen}, nil
}
