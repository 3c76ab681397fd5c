package bedrock

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

// eventStreamDecoder reads AWS's application/vnd.amazon.eventstream binary
// framing, used by Bedrock's invoke-with-response-stream route instead of
// SSE. Frame layout: total length (4 bytes), header length (4 bytes),
// prelude CRC (4 bytes), headers, payload, message CRC (4 bytes). Header
// and message CRCs are not verified; a corrupt frame surfaces as a decode
// error on the next read instead.
type eventStreamDecoder struct {
	r *bufio.Reader
}

func newEventStreamDecoder(r io.Reader) *eventStreamDecoder {
	return &eventStreamDecoder{r: bufio.NewReader(r)}
}

// next returns the payload bytes of the next frame, or io.EOF when the
// stream is exhausted.
func (d *eventStreamDecoder) next() ([]byte, error) {
	prelude := make([]byte, 12)
	if _, err := io.ReadFull(d.r, prelude); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}

	totalLen := binary.BigEndian.Uint32(prelude[0:4])
	headersLen := binary.BigEndian.Uint32(prelude[4:8])

	if totalLen < 16 || uint32(totalLen) < 12+headersLen+4 {
		return nil, errors.New("bedrock: malformed event stream frame")
	}

	rest := make([]byte, totalLen-12)
	if _, err := io.ReadFull(d.r, rest); err != nil {
		return nil, err
	}

	payloadLen := totalLen - 12 - headersLen - 4
	payload := rest[headersLen : headersLen+payloadLen]
	return payload, nil
}
