package mailer

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QRPNG renders the given content as a QR code PNG. Entry staff scan the
// code to hit the ticket verification endpoint.
func QRPNG(content string, size int) ([]byte, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	return png, nil
}
