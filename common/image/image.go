package image

import (
	"bytes"
	"encoding/base64"
	"strings"

	"github.com/Laisky/errors/v2"
)

// ParseDataURI splits a data URI ("data:image/png;base64,...") into its media
// type and decoded payload. URIs that omit the media type get it sniffed from
// the payload's magic bytes.
func ParseDataURI(dataURI string) (mediaType string, data []byte, err error) {
	if !strings.HasPrefix(dataURI, "data:") {
		return "", nil, errors.New("invalid data URI: must start with 'data:'")
	}
	commaIndex := strings.Index(dataURI, ",")
	if commaIndex == -1 {
		return "", nil, errors.New("invalid data URI: missing comma separator")
	}

	metadata := dataURI[5:commaIndex]
	encoded := dataURI[commaIndex+1:]

	if !strings.Contains(metadata, "base64") {
		return "", nil, errors.New("invalid data URI: only base64 encoding supported")
	}
	mediaType = metadata
	if idx := strings.Index(metadata, ";"); idx != -1 {
		mediaType = metadata[:idx]
	}

	data, err = base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, errors.Wrap(err, "decode base64 image data")
	}
	if len(data) == 0 {
		return "", nil, errors.New("decoded image data is empty")
	}
	if mediaType == "" {
		mediaType = DetectMediaType(data)
	}
	return mediaType, data, nil
}

// BuildDataURIFromBase64 wraps already-encoded payloads, as returned by
// Claude-shaped image blocks and Stability artifacts.
func BuildDataURIFromBase64(mediaType string, encoded string) string {
	return "data:" + mediaType + ";base64," + encoded
}

var magicPrefixes = []struct {
	prefix []byte
	media  string
}{
	{[]byte{0x89, 0x50, 0x4E, 0x47}, "image/png"},
	{[]byte{0xFF, 0xD8, 0xFF}, "image/jpeg"},
	{[]byte("GIF8"), "image/gif"},
	{[]byte("RIFF"), "image/webp"},
}

// DetectMediaType sniffs the image media type from magic bytes, falling back
// to image/png when unknown.
func DetectMediaType(data []byte) string {
	for _, m := range magicPrefixes {
		if bytes.HasPrefix(data, m.prefix) {
			return m.media
		}
	}
	return "image/png"
}
