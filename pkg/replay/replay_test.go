package replay

import (
	"bytes"
	"context"
	"io"
	"net"
	"testing"
)

func TestPlayPublicAPI(t *testing.T) {
	file := []byte{0, 5, 11, 0, 1, 2, 3, 0, 1, 14} // training start, training end
	server, client := net.Pipe()

	got := make(chan []byte, 1)
	go func() {
		b, _ := io.ReadAll(client)
		got <- b
	}()

	cfg := DefaultConfig()
	cfg.Speed = 0
	sum := New(cfg).Play(context.Background(), server, bytes.NewReader(file))
	if sum.Outcome != OutcomeComplete || sum.Records != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	want := []byte{0, 1, 0, 0, 0, 0, 0, 11, 0, 1, 2, 3, 14}
	if b := <-got; !bytes.Equal(b, want) {
		t.Fatalf("client got %v, want %v", b, want)
	}
}
