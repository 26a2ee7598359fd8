package pointio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"slices"

	"github.com/hupe1980/fps/tensor"
)

const (
	// Magic opens every container.
	Magic = "FPST"
	// Version is the container version written by Encode.
	Version = 1

	// DefaultBlockSize is the uncompressed payload carried by one block.
	DefaultBlockSize = 256 * 1024

	maxRank     = 8
	maxElements = math.MaxInt32
)

var (
	// ErrInvalidMagic is returned when the input is not a container.
	ErrInvalidMagic = errors.New("pointio: invalid magic")
	// ErrInvalidVersion is returned for containers from an unknown version.
	ErrInvalidVersion = errors.New("pointio: unsupported version")
	// ErrChecksumMismatch is returned when the payload fails its CRC check.
	ErrChecksumMismatch = errors.New("pointio: checksum mismatch")
	// ErrCorrupt is returned for malformed headers or blocks.
	ErrCorrupt = errors.New("pointio: corrupt container")
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Header describes a container's payload.
type Header struct {
	Version     uint8
	DType       tensor.DType
	Shape       tensor.Shape
	Compression Compression
	Checksum    uint32
}

func (h *Header) encode() []byte {
	buf := make([]byte, 0, 4+3+4*len(h.Shape)+1+4)
	buf = append(buf, Magic...)
	buf = append(buf, h.Version, uint8(h.DType), uint8(len(h.Shape)))
	for _, d := range h.Shape {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(d))
	}
	buf = append(buf, uint8(h.Compression))
	buf = binary.LittleEndian.AppendUint32(buf, h.Checksum)
	return buf
}

// ReadHeader reads and validates a container header.
func ReadHeader(r io.Reader) (*Header, error) {
	var fixed [7]byte
	if _, err := io.ReadFull(r, fixed[:]); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}
	if string(fixed[:4]) != Magic {
		return nil, ErrInvalidMagic
	}

	h := &Header{
		Version: fixed[4],
		DType:   tensor.DType(fixed[5]),
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrInvalidVersion, h.Version)
	}
	if h.DType.Size() == 0 {
		return nil, fmt.Errorf("%w: dtype %d", ErrCorrupt, fixed[5])
	}

	rank := int(fixed[6])
	if rank > maxRank {
		return nil, fmt.Errorf("%w: rank %d", ErrCorrupt, rank)
	}
	rest := make([]byte, 4*rank+1+4)
	if _, err := io.ReadFull(r, rest); err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrCorrupt, err)
	}

	h.Shape = make(tensor.Shape, rank)
	elems := int64(1)
	for i := range h.Shape {
		d := int64(binary.LittleEndian.Uint32(rest[4*i:]))
		elems *= d
		if elems > maxElements || elems*int64(h.DType.Size()) > math.MaxInt {
			return nil, fmt.Errorf("%w: shape too large", ErrCorrupt)
		}
		h.Shape[i] = int(d)
	}
	h.Compression = Compression(rest[4*rank])
	if h.Compression > CompressionZSTD {
		return nil, fmt.Errorf("%w: compression %d", ErrCorrupt, h.Compression)
	}
	h.Checksum = binary.LittleEndian.Uint32(rest[4*rank+1:])
	return h, nil
}

// Encode writes t to w. Non-contiguous tensors are packed first; the device
// tag is not stored.
func Encode(w io.Writer, t *tensor.Tensor, c Compression) error {
	if t == nil {
		return errors.New("pointio: nil tensor")
	}
	if c > CompressionZSTD {
		return fmt.Errorf("pointio: unknown compression %v", c)
	}

	payload, err := payloadBytes(t.Contiguous())
	if err != nil {
		return err
	}

	h := Header{
		Version:     Version,
		DType:       t.DType(),
		Shape:       t.Shape(),
		Compression: c,
		Checksum:    crc32.Checksum(payload, castagnoli),
	}
	if _, err := w.Write(h.encode()); err != nil {
		return err
	}

	for off := 0; off < len(payload); off += DefaultBlockSize {
		block, err := compressBlock(payload[off:min(off+DefaultBlockSize, len(payload))], c)
		if err != nil {
			return err
		}
		if _, err := w.Write(block); err != nil {
			return err
		}
	}
	return nil
}

// Decode reads a tensor written by Encode. The result lives on the host.
func Decode(r io.Reader) (*tensor.Tensor, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	// The payload grows with the blocks actually read, so the declared shape
	// alone never sizes an allocation.
	size := h.Shape.NumElements() * h.DType.Size()
	payload := make([]byte, 0, min(size, DefaultBlockSize))
	var hdr [blockHeaderSize]byte
	for off := 0; off < size; {
		if _, err := io.ReadFull(r, hdr[:]); err != nil {
			return nil, fmt.Errorf("%w: block header at %d: %w", ErrCorrupt, off, err)
		}
		rawLen := binary.LittleEndian.Uint32(hdr[0:])
		packedLen := binary.LittleEndian.Uint32(hdr[4:])
		if rawLen == 0 || rawLen > DefaultBlockSize || int(rawLen) > size-off {
			return nil, fmt.Errorf("%w: block of %d bytes at %d exceeds payload", ErrCorrupt, rawLen, off)
		}
		raw := int(rawLen)
		if packedLen > uint32(maxPackedSize(raw, h.Compression)) {
			return nil, fmt.Errorf("%w: compressed block of %d bytes at %d", ErrCorrupt, packedLen, off)
		}
		packed := int(packedLen)

		payload = slices.Grow(payload, raw)
		dst := payload[off : off+raw]
		if packed == 0 {
			if _, err := io.ReadFull(r, dst); err != nil {
				return nil, fmt.Errorf("%w: raw block at %d: %w", ErrCorrupt, off, err)
			}
		} else {
			body := make([]byte, packed)
			if _, err := io.ReadFull(r, body); err != nil {
				return nil, fmt.Errorf("%w: block at %d: %w", ErrCorrupt, off, err)
			}
			if err := decompressBlock(body, dst, h.Compression); err != nil {
				return nil, fmt.Errorf("%w: block at %d: %w", ErrCorrupt, off, err)
			}
		}
		payload = payload[:off+raw]
		off += raw
	}

	if crc32.Checksum(payload, castagnoli) != h.Checksum {
		return nil, ErrChecksumMismatch
	}
	return fromPayload(h, payload)
}

// Marshal encodes t into a byte slice.
func Marshal(t *tensor.Tensor, c Compression) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, t, c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes a tensor from data.
func Unmarshal(data []byte) (*tensor.Tensor, error) {
	return Decode(bytes.NewReader(data))
}

func payloadBytes(t *tensor.Tensor) ([]byte, error) {
	n := t.Shape().NumElements()
	buf := make([]byte, 0, n*t.DType().Size())

	switch t.DType() {
	case tensor.Float32:
		data, _ := t.Float32s()
		for _, v := range data[:n] {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	case tensor.Int32:
		data, _ := t.Int32s()
		for _, v := range data[:n] {
			buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
		}
	default:
		return nil, fmt.Errorf("pointio: unsupported dtype %v", t.DType())
	}
	return buf, nil
}

func fromPayload(h *Header, payload []byte) (*tensor.Tensor, error) {
	n := h.Shape.NumElements()
	switch h.DType {
	case tensor.Float32:
		data := make([]float32, n)
		for i := range data {
			data[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[4*i:]))
		}
		return tensor.FromFloat32(data, h.Shape...)
	case tensor.Int32:
		data := make([]int32, n)
		for i := range data {
			data[i] = int32(binary.LittleEndian.Uint32(payload[4*i:]))
		}
		return tensor.FromInt32(data, h.Shape...)
	default:
		return nil, fmt.Errorf("%w: dtype %v", ErrCorrupt, h.DType)
	}
}
