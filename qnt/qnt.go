// Copyright 2024 The Kaguya Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qnt decodes the QNT lossless image format: 24-bit RGB pixels
// stored channel-planar in 2x2 blocks, zlib-compressed, then
// reconstructed through a left/up/average-of-up-and-left predictor,
// with an optional separately-compressed 8-bit alpha plane.
package qnt

import (
	"github.com/aoi-engine/kaguya/internal/kaguyaerr"
	"github.com/aoi-engine/kaguya/internal/logx"
	"github.com/aoi-engine/kaguya/binio"
	"github.com/aoi-engine/kaguya/zlb"
)

// Image is a decoded QNT bitmap: RGBA8 pixels, row-major, top-origin.
// Width/Height are the header-declared dimensions; Pixels is sized
// Width*Height*4 and already cropped from the internally even-rounded
// working buffer.
type Image struct {
	Width    int
	Height   int
	Pixels   []byte // RGBA8, row-major
	HasAlpha bool
}

// Header is the parsed QNT header. Reserved is preserved verbatim;
// its meaning was never published upstream (spec open question).
type Header struct {
	Version             uint32
	X, Y                int32
	Width, Height        int32
	Bpp                  uint32
	Reserved             uint32
	PixelCompressedSize int
	AlphaCompressedSize int
}

const magic = "QNT\x00"

// v0HeaderSize is the fixed header length for version 0, which has no
// header_size field of its own: magic+version+the 8 known fields only
// span 40 bytes, but the format pads the header out to 48 before the
// pixel blob starts.
const v0HeaderSize = 48

// Decode parses a complete QNT file.
func Decode(data []byte) (*Image, error) {
	c := binio.New(data)

	m, err := c.FourCC()
	if err != nil {
		return nil, err
	}
	if m != magic {
		return nil, kaguyaerr.New(kaguyaerr.BadMagic, "qnt.Decode", nil)
	}
	version, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	if version > 1 {
		return nil, kaguyaerr.New(kaguyaerr.UnsupportedVersion, "qnt.Decode", nil)
	}

	var headerSize uint32
	if version >= 1 {
		headerSize, err = c.U32LE()
		if err != nil {
			return nil, err
		}
	}

	hdr := Header{Version: version}
	headerFieldsStart := c.Offset()
	x, err := c.I32LE()
	if err != nil {
		return nil, err
	}
	y, err := c.I32LE()
	if err != nil {
		return nil, err
	}
	width, err := c.I32LE()
	if err != nil {
		return nil, err
	}
	height, err := c.I32LE()
	if err != nil {
		return nil, err
	}
	bpp, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	reserved, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	pixCompSize, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	alphaCompSize, err := c.U32LE()
	if err != nil {
		return nil, err
	}
	hdr.X, hdr.Y, hdr.Width, hdr.Height = x, y, width, height
	hdr.Bpp, hdr.Reserved = bpp, reserved
	hdr.PixelCompressedSize = int(pixCompSize)
	hdr.AlphaCompressedSize = int(alphaCompSize)

	if bpp != 24 {
		return nil, kaguyaerr.New(kaguyaerr.UnsupportedVersion, "qnt.Decode", nil)
	}

	if version >= 1 && headerSize > 0 {
		declaredEnd := int(headerSize)
		// header_size counts from the start of the file, not from
		// headerFieldsStart; seek forward to honor any trailing
		// header bytes this decoder doesn't know about.
		if declaredEnd > c.Offset() {
			if err := c.Seek(declaredEnd); err != nil {
				return nil, err
			}
		} else if declaredEnd != c.Offset() && declaredEnd != headerFieldsStart {
			logx.Warn("qnt: header_size %d does not match parsed header length %d", declaredEnd, c.Offset())
		}
	} else if version == 0 && c.Offset() < v0HeaderSize {
		// No header_size field to declare it, but the pixel blob still
		// starts at a fixed 48-byte offset; skip the trailing pad.
		if err := c.Seek(v0HeaderSize); err != nil {
			return nil, err
		}
	}

	if width <= 0 || height <= 0 {
		return nil, kaguyaerr.New(kaguyaerr.IndexOutOfRange, "qnt.Decode", nil)
	}

	w := int(width)
	h := int(height)
	wEven := w + (w & 1)
	hEven := h + (h & 1)

	pixelBlob, err := c.Bytes(hdr.PixelCompressedSize)
	if err != nil {
		return nil, err
	}
	planar, err := zlb.Inflate(pixelBlob, wEven*hEven*3)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, wEven*hEven*4)
	assemblePlanar(buf, planar, wEven, hEven)

	hasAlpha := hdr.AlphaCompressedSize > 0
	if hasAlpha {
		alphaBlob, err := c.Bytes(hdr.AlphaCompressedSize)
		if err != nil {
			return nil, err
		}
		alphaPlane, err := zlb.Inflate(alphaBlob, wEven*hEven)
		if err != nil {
			return nil, err
		}
		for i := 0; i < wEven*hEven; i++ {
			buf[i*4+3] = alphaPlane[i]
		}
	} else {
		buf[3] = 0xFF // pixel (0,0) alpha; unfilter propagates it
	}

	unfilter(buf, wEven, hEven)

	img := &Image{Width: w, Height: h, HasAlpha: hasAlpha}
	img.Pixels = crop(buf, wEven, hEven, w, h)
	return img, nil
}

// assemblePlanar reconstructs channel-planar, 2x2-block interleaved
// pixel data into an RGBA8 buffer (alpha left zero). planar holds, in
// order, channels B, G, R (each W*H bytes); each channel's bytes are
// grouped into 2x2 blocks read in raster-block order.
func assemblePlanar(out []byte, planar []byte, w, h int) {
	planarIdx := 0
	for _, channel := range [3]int{2, 1, 0} {
		for by := 0; by < h; by += 2 {
			for bx := 0; bx < w; bx += 2 {
				b00 := planar[planarIdx]
				b01 := planar[planarIdx+1]
				b10 := planar[planarIdx+2]
				b11 := planar[planarIdx+3]
				planarIdx += 4
				out[((by)*w+bx)*4+channel] = b00
				out[((by+1)*w+bx)*4+channel] = b01
				out[((by)*w+bx+1)*4+channel] = b10
				out[((by+1)*w+bx+1)*4+channel] = b11
			}
		}
	}
}

// unfilter reverses the left/up/average-of-up-and-left predictor
// in-place across all four channels.
func unfilter(buf []byte, w, h int) {
	for ch := 0; ch < 4; ch++ {
		unfilterChannel(buf, w, h, ch)
	}
}

func unfilterChannel(buf []byte, w, h int, ch int) {
	idx := func(x, y int) int { return (y*w+x)*4 + ch }

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if y == 0 && x == 0 {
				continue
			}
			in := buf[idx(x, y)]
			var pred byte
			switch {
			case y == 0:
				pred = buf[idx(x-1, y)]
			case x == 0:
				pred = buf[idx(0, y-1)]
			default:
				above := buf[idx(x, y-1)]
				left := buf[idx(x-1, y)]
				pred = byte((uint16(above) + uint16(left)) >> 1)
			}
			buf[idx(x, y)] = pred - in
		}
	}
}

// crop extracts the top-left w x h region from a wEven x hEven buffer.
func crop(buf []byte, wEven, hEven, w, h int) []byte {
	if w == wEven && h == hEven {
		return buf
	}
	out := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		copy(out[y*w*4:(y+1)*w*4], buf[y*wEven*4:y*wEven*4+w*4])
	}
	return out
}
