package qrimage

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const DefaultPNGSize = 320

// Terminal renders content as half-block text suitable for a console.
func Terminal(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty qr content")
	}
	qr, err := qrcode.New(content, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	return qr.ToSmallString(false), nil
}

func PNG(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty qr content")
	}
	if size <= 0 {
		size = DefaultPNGSize
	}
	b, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr png: %w", err)
	}
	return b, nil
}
