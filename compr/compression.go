// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package compr provides a unified interface wrapping
// third-party compression libraries.
package compr

import (
	"bytes"
	"fmt"
	"io"
	"runtime"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
)

// Compressor describes the interface
// a compression algorithm implements.
type Compressor interface {
	// Name is the name of the compression algorithm.
	Name() string
	// Compress should append the compressed contents
	// of src to dst and return the result.
	Compress(src, dst []byte) []byte
}

var (
	// zstdMagic begins every zstd frame
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	// s2Magic is the s2 stream identifier chunk
	s2Magic = []byte("\xff\x06\x00\x00S2sTwO")
)

type zstdCompressor struct {
	name string
	enc  *zstd.Encoder
}

func (z zstdCompressor) Compress(src, dst []byte) []byte {
	return z.enc.EncodeAll(src, dst)
}

func (z zstdCompressor) Name() string { return z.name }

var zstdDecoder *zstd.Decoder

func init() {
	// by default, concurrency is set to min(4, GOMAXPROCS);
	// we'd like it to *always* be GOMAXPROCS
	z, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(runtime.GOMAXPROCS(0)))
	if err != nil {
		panic(err)
	}
	zstdDecoder = z
}

// s2Compressor produces the s2 stream format,
// which (unlike the block format) is
// self-identifying
type s2Compressor struct{}

func (s2Compressor) Compress(src, dst []byte) []byte {
	buf := bytes.NewBuffer(dst)
	w := s2.NewWriter(buf, s2.WriterConcurrency(1))
	_, err := w.Write(src)
	if err == nil {
		err = w.Close()
	}
	if err != nil {
		// the destination is in memory, so this
		// is a bug in the encoder
		panic("s2 compression failed: " + err.Error())
	}
	return buf.Bytes()
}

func (s2Compressor) Name() string { return "s2" }

// Compression selects a compression algorithm by name.
// The returned Compressor will return the same value
// for Compressor.Name as the specified name.
// It returns nil if the name is not recognized.
func Compression(name string) Compressor {
	switch name {
	case "zstd-better":
		z, _ := zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.SpeedBetterCompression),
			zstd.WithEncoderConcurrency(1))
		return zstdCompressor{name: name, enc: z}
	case "zstd":
		z, _ := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
		return zstdCompressor{name: name, enc: z}
	case "s2":
		return s2Compressor{}
	default:
		return nil
	}
}

// Names lists the names accepted by Compression.
func Names() []string {
	return []string{"zstd", "zstd-better", "s2"}
}

// Detect returns the name of the algorithm that
// produced src, or "" if src is not recognized
// as compressed data.
func Detect(src []byte) string {
	switch {
	case bytes.HasPrefix(src, zstdMagic):
		return "zstd"
	case bytes.HasPrefix(src, s2Magic):
		return "s2"
	default:
		return ""
	}
}

// Decompress decompresses src if it begins with a
// zstd frame or an s2 stream header, and returns
// the result along with the name of the algorithm.
// Other input is returned unchanged with an empty name.
func Decompress(src []byte) ([]byte, string, error) {
	switch name := Detect(src); name {
	case "zstd":
		out, err := zstdDecoder.DecodeAll(src, nil)
		if err != nil {
			return nil, name, fmt.Errorf("zstd decompress: %w", err)
		}
		return out, name, nil
	case "s2":
		out, err := io.ReadAll(s2.NewReader(bytes.NewReader(src)))
		if err != nil {
			return nil, name, fmt.Errorf("s2 decompress: %w", err)
		}
		return out, name, nil
	default:
		return src, "", nil
	}
}
