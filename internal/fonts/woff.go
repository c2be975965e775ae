package fonts

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zlib"
)

// ErrMalformedFont is returned for input that is not a readable sfnt.
var ErrMalformedFont = errors.New("malformed sfnt font")

const (
	woffSignature    = 0x774F4646 // "wOFF"
	woffHeaderSize   = 44
	woffEntrySize    = 20
	sfntHeaderSize   = 12
	sfntRecordSize   = 16
	woffMajorVersion = 1
)

type sfntTable struct {
	tag      uint32
	checksum uint32
	data     []byte
}

func align4(n int) int { return (n + 3) &^ 3 }

// EncodeWOFF wraps a TrueType/OpenType font in a WOFF 1.0 container. Each
// table is zlib-compressed when that makes it smaller and stored as-is
// otherwise; original checksums and the sfnt flavor are preserved.
func EncodeWOFF(sfnt []byte) ([]byte, error) {
	if len(sfnt) < sfntHeaderSize {
		return nil, fmt.Errorf("%w: %d byte header", ErrMalformedFont, len(sfnt))
	}
	flavor := binary.BigEndian.Uint32(sfnt[0:4])
	numTables := int(binary.BigEndian.Uint16(sfnt[4:6]))
	if numTables == 0 || len(sfnt) < sfntHeaderSize+numTables*sfntRecordSize {
		return nil, fmt.Errorf("%w: truncated table directory", ErrMalformedFont)
	}

	tables := make([]sfntTable, numTables)
	totalSfntSize := sfntHeaderSize + numTables*sfntRecordSize
	for i := range tables {
		rec := sfnt[sfntHeaderSize+i*sfntRecordSize:]
		offset := int(binary.BigEndian.Uint32(rec[8:12]))
		length := int(binary.BigEndian.Uint32(rec[12:16]))
		if offset < 0 || length < 0 || offset+length > len(sfnt) {
			return nil, fmt.Errorf("%w: table %d out of bounds", ErrMalformedFont, i)
		}
		tables[i] = sfntTable{
			tag:      binary.BigEndian.Uint32(rec[0:4]),
			checksum: binary.BigEndian.Uint32(rec[4:8]),
			data:     sfnt[offset : offset+length],
		}
		totalSfntSize += align4(length)
	}

	var body bytes.Buffer
	dir := make([]byte, numTables*woffEntrySize)
	offset := woffHeaderSize + len(dir)
	for i, t := range tables {
		stored, err := compressTable(t.data)
		if err != nil {
			return nil, err
		}
		e := dir[i*woffEntrySize:]
		binary.BigEndian.PutUint32(e[0:4], t.tag)
		binary.BigEndian.PutUint32(e[4:8], uint32(offset))
		binary.BigEndian.PutUint32(e[8:12], uint32(len(stored)))
		binary.BigEndian.PutUint32(e[12:16], uint32(len(t.data)))
		binary.BigEndian.PutUint32(e[16:20], t.checksum)

		body.Write(stored)
		pad := align4(len(stored)) - len(stored)
		body.Write(make([]byte, pad))
		offset += len(stored) + pad
	}

	header := make([]byte, woffHeaderSize)
	binary.BigEndian.PutUint32(header[0:4], woffSignature)
	binary.BigEndian.PutUint32(header[4:8], flavor)
	binary.BigEndian.PutUint32(header[8:12], uint32(offset))
	binary.BigEndian.PutUint16(header[12:14], uint16(numTables))
	binary.BigEndian.PutUint32(header[16:20], uint32(totalSfntSize))
	binary.BigEndian.PutUint16(header[20:22], woffMajorVersion)
	// metadata and private blocks stay empty

	out := make([]byte, 0, offset)
	out = append(out, header...)
	out = append(out, dir...)
	out = append(out, body.Bytes()...)
	return out, nil
}

func compressTable(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	if buf.Len() >= len(data) {
		return data, nil
	}
	return buf.Bytes(), nil
}
