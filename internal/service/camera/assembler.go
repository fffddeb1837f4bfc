package camera

import "bytes"

// MaxFrameSize caps a reassembled frame; a source that never sends an end
// marker is reset once it crosses it.
const MaxFrameSize = 2 << 20

var (
	jpegHeader = []byte{0xFF, 0xD8}
	jpegFooter = []byte{0xFF, 0xD9}
)

// Assembler rebuilds JPEG frames from datagrams. A packet starting with the
// JPEG start marker begins a new frame for its source and a packet ending
// with the end marker completes it. Not safe for concurrent use.
type Assembler struct {
	buffers map[string]*bytes.Buffer
}

// NewAssembler creates an empty Assembler.
func NewAssembler() *Assembler {
	return &Assembler{buffers: make(map[string]*bytes.Buffer)}
}

// Feed appends a packet from source and returns a complete frame when the
// packet closed one.
func (a *Assembler) Feed(source string, packet []byte) ([]byte, bool) {
	buf, ok := a.buffers[source]
	if !ok {
		buf = new(bytes.Buffer)
		a.buffers[source] = buf
	}

	if bytes.HasPrefix(packet, jpegHeader) {
		buf.Reset()
	} else if buf.Len() == 0 {
		// mid-frame packet with no start seen
		return nil, false
	}
	buf.Write(packet)

	if buf.Len() > MaxFrameSize {
		buf.Reset()
		return nil, false
	}

	if !bytes.HasSuffix(packet, jpegFooter) {
		return nil, false
	}
	frame := make([]byte, buf.Len())
	copy(frame, buf.Bytes())
	buf.Reset()
	return frame, true
}
