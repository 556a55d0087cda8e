package session

import (
	"bytes"
	"errors"
	"testing"
)

func TestWriteReadPublicAPI(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	if err := w.Write(0, []byte{11, 0, 1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := w.Write(300, []byte{14}); err != nil {
		t.Fatal(err)
	}

	recs, err := ReadAll(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[1].DelayMs != 300 {
		t.Fatalf("records = %+v", recs)
	}
	rep, err := Verify(bytes.NewReader(buf.Bytes()))
	if err != nil || !rep.Complete {
		t.Fatalf("Verify() = %+v, %v", rep, err)
	}
}

func TestPayloadTooLargePublicAPI(t *testing.T) {
	err := WriteRecord(&bytes.Buffer{}, 0, make([]byte, MaxPayload+1))
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("err = %v, want ErrPayloadTooLarge", err)
	}
}
