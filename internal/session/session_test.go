package session

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SmitUplenchwar2687/Rewind/internal/protocol"
)

func TestDelay_RoundTrip(t *testing.T) {
	for _, d := range []uint64{0, 1, 254, 255, 256, 65535} {
		enc := AppendDelay(nil, d)
		assert.Equal(t, EncodedDelayLen(d), len(enc), "encoded length for %d", d)
		assert.Equal(t, byte(0), enc[len(enc)-1], "terminator for %d", d)
		for _, c := range enc[:len(enc)-1] {
			assert.NotZero(t, c)
		}

		got, err := DecodeDelay(bytes.NewReader(enc))
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
}

func TestDelay_Encoding(t *testing.T) {
	assert.Equal(t, []byte{0}, AppendDelay(nil, 0))
	assert.Equal(t, []byte{16, 0}, AppendDelay(nil, 16))
	assert.Equal(t, []byte{255, 0}, AppendDelay(nil, 255))
	assert.Equal(t, []byte{255, 1, 0}, AppendDelay(nil, 256))
}

func TestDecodeDelay_Truncated(t *testing.T) {
	_, err := DecodeDelay(bytes.NewReader([]byte{10, 20}))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = DecodeDelay(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)
}

func TestMillis(t *testing.T) {
	assert.Equal(t, uint64(0), Millis(-time.Second))
	assert.Equal(t, uint64(17), Millis(16600*time.Microsecond))
	assert.Equal(t, uint64(1000), Millis(time.Second))
}

func TestRecord_RoundTripAllLengths(t *testing.T) {
	for n := 0; n <= MaxPayload; n++ {
		payload := bytes.Repeat([]byte{byte(n)}, n)
		delay := uint64(n * 3)

		var buf bytes.Buffer
		require.NoError(t, WriteRecord(&buf, delay, payload))

		rec, err := ReadRecord(&buf)
		require.NoError(t, err, "length %d", n)
		assert.Equal(t, delay, rec.DelayMs)
		assert.Equal(t, payload, rec.Payload)
		assert.Zero(t, buf.Len(), "length %d left bytes unread", n)
	}
}

func TestWriteRecord_PayloadTooLarge(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRecord(&buf, 0, make([]byte, 256))
	assert.ErrorIs(t, err, ErrPayloadTooLarge)
	assert.Zero(t, buf.Len())
}

func TestReader_CleanEOF(t *testing.T) {
	_, err := ReadRecord(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)
	assert.NotErrorIs(t, err, ErrTruncatedRecord)
}

func TestReader_Truncated(t *testing.T) {
	cases := map[string]struct {
		data     []byte
		op       string
		expected int
		actual   int
	}{
		"delay run":     {data: []byte{16}, op: "delay"},
		"length byte":   {data: []byte{16, 0}, op: "length", expected: 1},
		"short payload": {data: []byte{0, 30, 15, 1, 2}, op: "payload", expected: 30, actual: 3},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadRecord(bytes.NewReader(tc.data))
			require.ErrorIs(t, err, ErrTruncatedRecord)

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tc.op, fe.Op)
			assert.Equal(t, tc.expected, fe.Expected)
			assert.Equal(t, tc.actual, fe.Actual)
		})
	}
}

func TestReader_OffsetsAndChunks(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	require.NoError(t, w.Write(0, []byte{1}))
	require.NoError(t, w.Write(600, []byte{2, 3}))
	assert.Equal(t, 2, w.Records())
	assert.Equal(t, int64(buf.Len()), w.Bytes())

	rd := NewReader(&buf)
	_, err := rd.Next(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rd.Offset())

	var chunks []byte
	rec, err := rd.Next(func(c byte) error {
		chunks = append(chunks, c)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte{255, 255, 90}, chunks)
	assert.Equal(t, uint64(600), rec.DelayMs)
	assert.Equal(t, 2, rd.Count())

	_, err = rd.Next(nil)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_ChunkCallbackAborts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecord(&buf, 20, []byte{1}))

	stop := errors.New("stop")
	_, err := NewReader(&buf).Next(func(byte) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestReader_SequentialOverPlainReader(t *testing.T) {
	var buf bytes.Buffer
	for i := 0; i < 5; i++ {
		require.NoError(t, WriteRecord(&buf, uint64(i), []byte{byte(i)}))
	}
	recs, err := ReadAll(io.MultiReader(&buf))
	require.NoError(t, err)
	require.Len(t, recs, 5)
	assert.Equal(t, uint64(4), recs[4].DelayMs)
}

func matchFixture(t *testing.T, frames int) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := NewWriter(&buf)
	start := &protocol.MatchInfo{
		StartKind:  protocol.MatchStart,
		Stage:      0x0102,
		EntryIDs:   []byte{0, 1},
		FighterIDs: []byte{3, 4},
		Tags:       [][]byte{[]byte("A"), []byte("BB")},
	}
	require.NoError(t, w.Write(0, start.Payload()))
	for i := 0; i < frames; i++ {
		frame := protocol.EncodeFighterState(protocol.FighterStateView{Frame: uint32(i)})
		require.NoError(t, w.Write(16, frame[:]))
	}
	require.NoError(t, w.Write(0, []byte{byte(protocol.MatchEnd)}))
	return buf.Bytes()
}

func TestVerify_Complete(t *testing.T) {
	data := matchFixture(t, 3)
	rep, err := Verify(bytes.NewReader(data))
	require.NoError(t, err)
	assert.True(t, rep.Complete)
	assert.Equal(t, 5, rep.Records)
	assert.Equal(t, 3, rep.StateFrames)
	assert.Equal(t, protocol.MatchStart, rep.StartKind)
	assert.Equal(t, protocol.MatchEnd, rep.EndKind)
	assert.Equal(t, uint64(48), rep.TotalDelay)
	assert.Equal(t, int64(len(data)), rep.Bytes)
}

func TestVerify_PrefixIsValidButIncomplete(t *testing.T) {
	data := matchFixture(t, 3)
	// Drop the end marker record (3 bytes).
	rep, err := Verify(bytes.NewReader(data[:len(data)-3]))
	require.NoError(t, err)
	assert.False(t, rep.Complete)
	assert.Equal(t, 3, rep.StateFrames)
}

func TestVerify_Violations(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		_, err := Verify(bytes.NewReader(nil))
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
	t.Run("starts with frame", func(t *testing.T) {
		var buf bytes.Buffer
		frame := protocol.EncodeFighterState(protocol.FighterStateView{})
		require.NoError(t, WriteRecord(&buf, 0, frame[:]))
		_, err := Verify(&buf)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
	t.Run("record after end", func(t *testing.T) {
		data := matchFixture(t, 1)
		data = append(data, 0, 1, byte(protocol.MatchEnd))
		_, err := Verify(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
	t.Run("short frame", func(t *testing.T) {
		data := matchFixture(t, 0)
		data = data[:len(data)-3]
		data = append(data, 16, 0, 2, byte(protocol.FighterState), 0)
		_, err := Verify(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
	t.Run("reset record", func(t *testing.T) {
		data := matchFixture(t, 0)
		data = data[:len(data)-3]
		data = append(data, 16, 0, 1, byte(protocol.TrainingReset))
		_, err := Verify(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
	t.Run("training end closes match", func(t *testing.T) {
		data := matchFixture(t, 1)
		data[len(data)-1] = byte(protocol.TrainingEnd)
		_, err := Verify(bytes.NewReader(data))
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
	t.Run("match end closes training", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteRecord(&buf, 0, []byte{byte(protocol.TrainingStart), 0, 1, 2, 3}))
		require.NoError(t, WriteRecord(&buf, 0, []byte{byte(protocol.MatchEnd)}))
		_, err := Verify(&buf)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})
	t.Run("truncated tail", func(t *testing.T) {
		data := matchFixture(t, 2)
		_, err := Verify(bytes.NewReader(data[:len(data)-10]))
		assert.ErrorIs(t, err, ErrTruncatedRecord)
	})
}
