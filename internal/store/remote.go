package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sridharani/designhaven/pkg/logger"
)

const (
	remoteCollection  = "store"
	remoteOpTimeout   = 5 * time.Second
	remoteConnTimeout = 5 * time.Second
)

// remoteDoc is the shape of one collection document in MongoDB: the whole
// serialized value lives in a single field, replaced wholesale on write.
type remoteDoc struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// RemoteBackend persists each key as one MongoDB document and watches the
// collection with a change stream for push-style updates.
type RemoteBackend struct {
	client  *mongo.Client
	col     *mongo.Collection
	onError func(key string, err error) // invoked from watch goroutines
}

// NewRemote is the capability probe: it connects and pings, returning an
// error when the remote store is unreachable or misconfigured. Callers
// treat any error as "remote unavailable" and run local-only.
func NewRemote(ctx context.Context, uri, db string) (*RemoteBackend, error) {
	if uri == "" {
		return nil, errors.New("store/remote: no URI configured")
	}

	ctx, cancel := context.WithTimeout(ctx, remoteConnTimeout)
	defer cancel()

	opts := options.Client().ApplyURI(uri).
		SetConnectTimeout(remoteConnTimeout).
		SetServerSelectionTimeout(remoteConnTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("store/remote: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("store/remote: ping: %w", err)
	}

	return &RemoteBackend{
		client: client,
		col:    client.Database(db).Collection(remoteCollection),
	}, nil
}

func (b *RemoteBackend) Name() string { return "remote" }

// SetErrorHandler registers a hook for asynchronous watch failures, so the
// owner can detect a permission revocation and disable the remote path.
func (b *RemoteBackend) SetErrorHandler(fn func(key string, err error)) {
	b.onError = fn
}

func (b *RemoteBackend) Load(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
	defer cancel()

	var doc remoteDoc
	err := b.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, classify(fmt.Errorf("store/remote: load %s: %w", key, err))
	}
	return doc.Value, nil
}

func (b *RemoteBackend) Store(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, remoteOpTimeout)
	defer cancel()

	doc := remoteDoc{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := b.col.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return classify(fmt.Errorf("store/remote: store %s: %w", key, err))
	}
	return nil
}

// Watch opens a change stream scoped to key. Every replace/update/insert
// delivers the new raw value to onChange on a background goroutine. The
// returned func closes the stream.
func (b *RemoteBackend) Watch(ctx context.Context, key string, onChange func(raw []byte)) (func(), error) {
	pipeline := mongo.Pipeline{{{Key: "$match", Value: bson.M{
		"documentKey._id": key,
		"operationType":   bson.M{"$in": bson.A{"insert", "update", "replace"}},
	}}}}

	streamCtx, cancel := context.WithCancel(ctx)
	stream, err := b.col.Watch(streamCtx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		cancel()
		return nil, classify(fmt.Errorf("store/remote: watch %s: %w", key, err))
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(streamCtx) {
			var ev struct {
				FullDocument remoteDoc `bson:"fullDocument"`
			}
			if err := stream.Decode(&ev); err != nil {
				logger.Warn("remote change event decode failed", "key", key, "error", err)
				continue
			}
			onChange(ev.FullDocument.Value)
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			logger.Error("remote change stream closed", "key", key, "error", err)
			if b.onError != nil {
				b.onError(key, classify(err))
			}
		}
	}()

	return cancel, nil
}

// Close disconnects the client. Watches must be cancelled first.
func (b *RemoteBackend) Close(ctx context.Context) error {
	return b.client.Disconnect(ctx)
}

// classify maps MongoDB authorization failures onto ErrPermissionDenied so
// the store can flip to local-only and stop retrying.
func classify(err error) error {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && (cmdErr.Code == 13 || cmdErr.Name == "Unauthorized") {
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	return err
}
