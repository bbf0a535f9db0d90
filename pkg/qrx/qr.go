// Package qrx renders QR codes as base64 data-URI PNGs, sized for display
// inside the host application's pairing screen.
package qrx

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/qr"
)

// DefaultSize is the pixel width/height used when size <= 0.
const DefaultSize = 256

// DataURL encodes content into a QR code and returns it as a
// "data:image/png;base64," URI suitable for an <img> tag.
func DataURL(content string, size int) (string, error) {
	if content == "" {
		return "", fmt.Errorf("qrx: empty content")
	}
	if size <= 0 {
		size = DefaultSize
	}

	code, err := qr.Encode(content, qr.M, qr.Auto)
	if err != nil {
		return "", fmt.Errorf("qrx: encode: %w", err)
	}

	scaled, err := barcode.Scale(code, size, size)
	if err != nil {
		return "", fmt.Errorf("qrx: scale: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return "", fmt.Errorf("qrx: png encode: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
