package bedrock

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeFrame(headers, payload []byte) []byte {
	headersLen := uint32(len(headers))
	payloadLen := uint32(len(payload))
	totalLen := 12 + headersLen + payloadLen + 4

	buf := make([]byte, 0, totalLen)
	prelude := make([]byte, 12)
	binary.BigEndian.PutUint32(prelude[0:4], totalLen)
	binary.BigEndian.PutUint32(prelude[4:8], headersLen)
	buf = append(buf, prelude...)
	buf = append(buf, headers...)
	buf = append(buf, payload...)
	buf = append(buf, 0, 0, 0, 0) // message CRC, unchecked

	return buf
}

func TestEventStreamDecoder_ReadsMultipleFrames(t *testing.T) {
	var stream bytes.Buffer
	stream.Write(encodeFrame(nil, []byte(`{"bytes":"one"}`)))
	stream.Write(encodeFrame(nil, []byte(`{"bytes":"two"}`)))

	d := newEventStreamDecoder(&stream)

	p1, err := d.next()
	require.NoError(t, err)
	assert.Equal(t, `{"bytes":"one"}`, string(p1))

	p2, err := d.next()
	require.NoError(t, err)
	assert.Equal(t, `{"bytes":"two"}`, string(p2))

	_, err = d.next()
	assert.Equal(t, io.EOF, err)
}
