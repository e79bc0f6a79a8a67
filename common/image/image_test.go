package image_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/polyrelay/polyrelay/common/image"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func TestParseDataURI(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngHeader)

	mediaType, data, err := image.ParseDataURI("data:image/png;base64," + encoded)
	require.NoError(t, err)
	require.Equal(t, "image/png", mediaType)
	require.Equal(t, pngHeader, data)

	_, _, err = image.ParseDataURI("https://example.com/cat.png")
	require.Error(t, err)

	_, _, err = image.ParseDataURI("data:image/png;base64,!!!")
	require.Error(t, err)
}

func TestParseDataURISniffsOmittedMediaType(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(pngHeader)

	mediaType, _, err := image.ParseDataURI("data:;base64," + encoded)
	require.NoError(t, err)
	require.Equal(t, "image/png", mediaType)

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	mediaType, _, err = image.ParseDataURI("data:;base64," + base64.StdEncoding.EncodeToString(jpeg))
	require.NoError(t, err)
	require.Equal(t, "image/jpeg", mediaType)
}

func TestBuildDataURIFromBase64(t *testing.T) {
	uri := image.BuildDataURIFromBase64("image/png", "QUJD")
	require.Equal(t, "data:image/png;base64,QUJD", uri)

	mediaType, data, err := image.ParseDataURI(uri)
	require.NoError(t, err)
	require.Equal(t, "image/png", mediaType)
	require.Equal(t, []byte("ABC"), data)
}
