package drawio

import (
	"bytes"
	"encoding/base64"
	"io"
	"net/url"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zlib"

	"github.com/matzehuels/tabledraw/pkg/errors"
)

// zlib framing around the raw deflate stream: a 2-byte header (CMF, FLG)
// and a 4-byte Adler-32 trailer.
const (
	zlibHeaderLen  = 2
	zlibTrailerLen = 4
)

// EncodePage compresses page XML into a diagram payload: the zlib stream
// with its header and trailer removed, base64 encoded.
func EncodePage(data []byte) (string, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeEncodingFailure, err, "create compressor")
	}
	if _, err := zw.Write(data); err != nil {
		return "", errors.Wrap(errors.ErrCodeEncodingFailure, err, "compress page")
	}
	if err := zw.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeEncodingFailure, err, "compress page")
	}

	z := buf.Bytes()
	if len(z) < zlibHeaderLen+zlibTrailerLen {
		return "", errors.New(errors.ErrCodeEncodingFailure, "compressed page too short: %d bytes", len(z))
	}
	return base64.StdEncoding.EncodeToString(z[zlibHeaderLen : len(z)-zlibTrailerLen]), nil
}

// DecodePage reverses [EncodePage]. Payloads saved by the draw.io editor are
// additionally URI-encoded before compression; those are unescaped.
func DecodePage(payload string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode page payload")
	}

	fr := flate.NewReader(bytes.NewReader(raw))
	defer fr.Close()
	data, err := io.ReadAll(fr)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "inflate page payload")
	}

	if bytes.HasPrefix(data, []byte("%3C")) {
		s, err := url.PathUnescape(string(data))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "unescape page payload")
		}
		data = []byte(s)
	}
	return data, nil
}
