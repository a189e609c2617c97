// Package qrcode renders item identifiers as QR code images.
package qrcode

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
	"github.com/disintegration/imaging"
)

// DefaultModuleSize is the edge length of one QR module in pixels.
const DefaultModuleSize = 10

// QuietZone is the white border around the symbol, in modules.
const QuietZone = 4

// Payload returns the content encoded for an item: its decimal id.
func Payload(id int64) string {
	return strconv.FormatInt(id, 10)
}

// FileName returns the stored file name of an item's QR code.
func FileName(id int64) string {
	return Payload(id) + ".png"
}

// Encode returns the QR symbol for content at one pixel per module.
func Encode(content string) (barcode.Barcode, error) {
	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return nil, fmt.Errorf("encoding qr code: %w", err)
	}
	return code, nil
}

// PNG renders the QR code for an item id as a PNG with a quiet zone.
// A non-positive moduleSize uses DefaultModuleSize.
func PNG(id int64, moduleSize int) ([]byte, error) {
	if moduleSize <= 0 {
		moduleSize = DefaultModuleSize
	}

	code, err := Encode(Payload(id))
	if err != nil {
		return nil, err
	}

	modules := code.Bounds().Dx()
	scaled, err := barcode.Scale(code, modules*moduleSize, modules*moduleSize)
	if err != nil {
		return nil, fmt.Errorf("scaling qr code: %w", err)
	}

	margin := QuietZone * moduleSize
	side := modules*moduleSize + 2*margin
	canvas := imaging.New(side, side, color.White)
	canvas = imaging.Paste(canvas, scaled, image.Pt(margin, margin))

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encoding qr png: %w", err)
	}
	return buf.Bytes(), nil
}
