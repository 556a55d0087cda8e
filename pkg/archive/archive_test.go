package archive

import (
	"bytes"
	"context"
	"testing"
)

func TestMemoryArchivePublicAPI(t *testing.T) {
	a, err := Open(DefaultConfig())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()

	file := []byte{0, 5, 11, 0, 1, 2, 3, 0, 1, 14}
	meta, err := a.Put(context.Background(), "drill", file)
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	_, got, err := a.Get(context.Background(), meta.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !bytes.Equal(got, file) {
		t.Fatalf("Get() = %v, want %v", got, file)
	}
}
