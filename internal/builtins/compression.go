package builtins

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	v8 "github.com/tommie/v8go"
)

// maxDecompressedSize caps decompression output (64 MB). Compressed input
// is attacker-controlled script data, so the expansion must be bounded.
const maxDecompressedSize = 64 * 1024 * 1024

// Compression materializes the "compression" module: brotli compress and
// decompress over base64-encoded payloads, the transfer encoding used for
// binary data across the JS boundary.
func Compression(iso *v8.Isolate, ctx *v8.Context) (*v8.Value, error) {
	return exportsObject(iso, ctx, map[string]any{
		"compress":   compressB64,
		"decompress": decompressB64,
	})
}

func compressB64(b64 string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("decoding input: %w", err)
	}
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return "", fmt.Errorf("compressing: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finishing compression: %w", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func decompressB64(b64 string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return "", fmt.Errorf("decoding input: %w", err)
	}
	r := brotli.NewReader(bytes.NewReader(data))
	out, err := io.ReadAll(io.LimitReader(r, maxDecompressedSize+1))
	if err != nil {
		return "", fmt.Errorf("decompressing: %w", err)
	}
	if len(out) > maxDecompressedSize {
		return "", fmt.Errorf("decompressed data exceeds %d bytes", maxDecompressedSize)
	}
	return base64.StdEncoding.EncodeToString(out), nil
}
