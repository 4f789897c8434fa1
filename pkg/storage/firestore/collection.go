package firestore

import (
	"context"
	"fmt"
	"sort"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
)

type ToFirestoreFunc[T any] func(*T) map[string]interface{}
type FromFirestoreFunc[T any] func(map[string]interface{}) *T

type Collection[T any] struct {
	Ref           *firestore.CollectionRef
	ToFirestore   ToFirestoreFunc[T]
	FromFirestore FromFirestoreFunc[T]
}

func (c *Collection[T]) Doc(id string) *DocumentRef[T] {
	return &DocumentRef[T]{
		Ref:           c.Ref.Doc(id),
		ToFirestore:   c.ToFirestore,
		FromFirestore: c.FromFirestore,
	}
}

func (c *Collection[T]) NewDoc() *DocumentRef[T] {
	return &DocumentRef[T]{
		Ref:           c.Ref.NewDoc(),
		ToFirestore:   c.ToFirestore,
		FromFirestore: c.FromFirestore,
	}
}

// FindOne returns the first document whose field equals value.
// Both returned values are nil when nothing matches.
func (c *Collection[T]) FindOne(ctx context.Context, field string, value interface{}) (*DocumentRef[T], *T, error) {
	iter := c.Ref.Where(field, "==", value).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	ref := &DocumentRef[T]{
		Ref:           snap.Ref,
		ToFirestore:   c.ToFirestore,
		FromFirestore: c.FromFirestore,
	}
	return ref, c.FromFirestore(snap.Data()), nil
}

// DeleteAll removes every document in the collection and returns how many were deleted.
func (c *Collection[T]) DeleteAll(ctx context.Context) (int, error) {
	iter := c.Ref.Documents(ctx)
	defer iter.Stop()

	n := 0
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		if _, err := snap.Ref.Delete(ctx); err != nil {
			return n, fmt.Errorf("delete %s: %w", snap.Ref.ID, err)
		}
		n++
	}
}

type DocumentRef[T any] struct {
	Ref           *firestore.DocumentRef
	ToFirestore   ToFirestoreFunc[T]
	FromFirestore FromFirestoreFunc[T]
}

func (d *DocumentRef[T]) ID() string {
	return d.Ref.ID
}

func (d *DocumentRef[T]) Get(ctx context.Context) (*T, error) {
	snap, err := d.Ref.Get(ctx)
	if err != nil {
		return nil, err
	}
	return d.FromFirestore(snap.Data()), nil
}

func (d *DocumentRef[T]) Set(ctx context.Context, data *T) error {
	m := d.ToFirestore(data)
	_, err := d.Ref.Set(ctx, m, firestore.MergeAll)
	return err
}

// Create writes the document and fails if it already exists.
func (d *DocumentRef[T]) Create(ctx context.Context, data *T) error {
	_, err := d.Ref.Create(ctx, d.ToFirestore(data))
	return err
}

// Update patches top-level fields of an existing document. Unlike Set it
// fails with codes.NotFound when the document is gone.
func (d *DocumentRef[T]) Update(ctx context.Context, updates map[string]interface{}) error {
	// Keys must match Firestore snake_case fields; converters are not applied to partial updates.
	_, err := d.Ref.Update(ctx, FieldUpdates(updates))
	return err
}

// FieldUpdates converts a field map to Firestore updates in key order.
func FieldUpdates(m map[string]interface{}) []firestore.Update {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{Path: k, Value: m[k]})
	}
	return updates
}

func (d *DocumentRef[T]) Delete(ctx context.Context) error {
	_, err := d.Ref.Delete(ctx)
	return err
}
