package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
)

// Collection is a typed view over one top-level collection. Document ids
// are carried outside the struct so records keep their wire shape.
type Collection[T any] struct {
	provider *Provider
	name     string
	setID    func(*T, string)
}

// NewCollection binds a typed collection. setID copies the document id into
// decoded records.
func NewCollection[T any](provider *Provider, name string, setID func(*T, string)) *Collection[T] {
	return &Collection[T]{provider: provider, name: name, setID: setID}
}

// Name returns the collection name.
func (c *Collection[T]) Name() string { return c.name }

// Ref returns the collection reference.
func (c *Collection[T]) Ref(ctx context.Context) (*firestore.CollectionRef, error) {
	if c.provider == nil {
		return nil, errors.New("firestore: provider is nil")
	}
	client, err := c.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.Collection(c.name), nil
}

// Query runs the query built from the collection and decodes every document.
func (c *Collection[T]) Query(ctx context.Context, build func(firestore.Query) firestore.Query) ([]T, error) {
	ref, err := c.Ref(ctx)
	if err != nil {
		return nil, err
	}
	query := ref.Query
	if build != nil {
		query = build(query)
	}
	iter := query.Documents(ctx)
	defer iter.Stop()

	var out []T
	for {
		snap, err := iter.Next()
		if isDone(err) {
			break
		}
		if err != nil {
			return nil, WrapError(c.name+".query", err)
		}
		record, err := c.decode(snap)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

// Get loads one document.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	ref, err := c.Ref(ctx)
	if err != nil {
		return zero, err
	}
	snap, err := ref.Doc(id).Get(ctx)
	if err != nil {
		return zero, WrapError(c.name+".get", err)
	}
	return c.decode(snap)
}

// Create writes value under id and fails if the document exists.
func (c *Collection[T]) Create(ctx context.Context, id string, value T) error {
	ref, err := c.Ref(ctx)
	if err != nil {
		return err
	}
	if _, err := ref.Doc(id).Create(ctx, value); err != nil {
		return WrapError(c.name+".create", err)
	}
	return nil
}

// Update applies field updates and fails when the document is missing.
func (c *Collection[T]) Update(ctx context.Context, id string, updates []firestore.Update) error {
	ref, err := c.Ref(ctx)
	if err != nil {
		return err
	}
	if _, err := ref.Doc(id).Update(ctx, updates); err != nil {
		return WrapError(c.name+".update", err)
	}
	return nil
}

// Delete removes the document, failing when it does not exist.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	ref, err := c.Ref(ctx)
	if err != nil {
		return err
	}
	if _, err := ref.Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return WrapError(c.name+".delete", err)
	}
	return nil
}

// Count runs a server-side count aggregation.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	ref, err := c.Ref(ctx)
	if err != nil {
		return 0, err
	}
	result, err := ref.NewAggregationQuery().WithCount("total").Get(ctx)
	if err != nil {
		return 0, WrapError(c.name+".count", err)
	}
	return countValue(result["total"])
}

func (c *Collection[T]) decode(snap *firestore.DocumentSnapshot) (T, error) {
	var record T
	if err := snap.DataTo(&record); err != nil {
		return record, fmt.Errorf("firestore: decode %s/%s: %w", c.name, snap.Ref.ID, err)
	}
	if c.setID != nil {
		c.setID(&record, snap.Ref.ID)
	}
	return record, nil
}

// countValue unwraps the aggregation result, which the client returns as a
// protobuf Value.
func countValue(raw any) (int, error) {
	type integerValue interface{ GetIntegerValue() int64 }
	switch v := raw.(type) {
	case integerValue:
		return int(v.GetIntegerValue()), nil
	case int64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("firestore: unexpected count type %T", raw)
	}
}
