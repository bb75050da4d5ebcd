package spacetraveling

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/eringen/spacetraveling/prismic"
)

// fakeSource is an in-memory ContentSource keyed by uid.
type fakeSource struct {
	mu       sync.Mutex
	docs     []prismic.Document
	queries  []prismic.QueryOptions
	lookups  int
	queryErr error
	badRef   string // lookups with this ref fail as an expired ref would
}

func (f *fakeSource) Query(ctx context.Context, predicates []prismic.Predicate, opts prismic.QueryOptions) ([]prismic.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, opts)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	out := make([]prismic.Document, len(f.docs))
	for i, d := range f.docs {
		out[i] = prismic.Document{ID: d.ID, UID: d.UID, Type: d.Type}
	}
	return out, nil
}

func (f *fakeSource) GetByUID(ctx context.Context, documentType, uid string, opts prismic.QueryOptions) (prismic.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.badRef != "" && opts.Ref == f.badRef {
		return prismic.Document{}, &prismic.StatusError{Code: 400, Body: "ref expired"}
	}
	for _, d := range f.docs {
		if d.Type == documentType && d.UID == uid {
			return d, nil
		}
	}
	return prismic.Document{}, prismic.ErrNotFound
}

func (f *fakeSource) GetByID(ctx context.Context, id string, opts prismic.QueryOptions) (prismic.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.docs {
		if d.ID == id {
			return d, nil
		}
	}
	return prismic.Document{}, prismic.ErrNotFound
}

func (f *fakeSource) put(d prismic.Document) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.docs {
		if f.docs[i].UID == d.UID {
			f.docs[i] = d
			return
		}
	}
	f.docs = append(f.docs, d)
}

func (f *fakeSource) remove(uid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.docs[:0]
	for _, d := range f.docs {
		if d.UID != uid {
			kept = append(kept, d)
		}
	}
	f.docs = kept
}

func (f *fakeSource) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

// postDoc builds a post document with the given blocks of fragments.
func postDoc(t *testing.T, uid, title string, blocks map[string][]string, order ...string) prismic.Document {
	t.Helper()
	type body struct {
		Text string `json:"text"`
	}
	type content struct {
		Heading string `json:"heading"`
		Body    []body `json:"body"`
	}
	data := map[string]any{
		"title":    title,
		"subtitle": "Subtítulo de " + title,
		"banner":   map[string]string{"url": "https://images.example.com/" + uid + ".png"},
		"author":   "Autora",
	}
	contents := make([]content, 0, len(order))
	for _, heading := range order {
		c := content{Heading: heading}
		for _, text := range blocks[heading] {
			c.Body = append(c.Body, body{Text: text})
		}
		contents = append(contents, c)
	}
	data["content"] = contents
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal post data: %v", err)
	}
	published := prismic.Timestamp{Time: time.Date(2021, 8, 15, 0, 0, 0, 0, time.UTC)}
	return prismic.Document{
		ID:                   "id-" + uid,
		UID:                  uid,
		Type:                 postType,
		FirstPublicationDate: &published,
		Data:                 raw,
	}
}

var errUnreachable = errors.New("connection refused")
