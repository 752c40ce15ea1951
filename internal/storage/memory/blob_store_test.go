package memory

import (
	"bytes"
	"context"
	"testing"
)

func TestBlobStorePutObjectCopiesData(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	uri, err := store.PutObject(context.Background(), "run/report.csv", "text/csv", bytes.NewReader([]byte("content")))
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	if uri != "memory://run/report.csv" {
		t.Fatalf("unexpected uri %s", uri)
	}

	obj, ok := store.Get("run/report.csv")
	if !ok || string(obj.Data) != "content" || obj.ContentType != "text/csv" {
		t.Fatalf("unexpected object %+v (found=%v)", obj, ok)
	}
	obj.Data[0] = 'C'
	again, _ := store.Get("run/report.csv")
	if string(again.Data) != "content" {
		t.Fatalf("expected stored copy to be immutable, got %q", again.Data)
	}
	if _, ok := store.Get("missing"); ok {
		t.Fatal("expected missing object")
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 object, got %d", store.Len())
	}
}
