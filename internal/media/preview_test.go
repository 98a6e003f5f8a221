package media

import (
	"bytes"
	"context"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")
	mp4Header = []byte("\x00\x00\x00\x18ftypmp42\x00\x00\x00\x00mp42isom")
)

func fileHeaders(t *testing.T, files map[string][]byte, order []string) []*multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range order {
		part, err := w.CreateFormFile("procedure_medias", name)
		require.NoError(t, err)
		_, err = part.Write(files[name])
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["procedure_medias"]
}

func TestFromBytesClassifiesBySniffing(t *testing.T) {
	img := FromBytes("photo.txt", pngHeader)
	assert.Equal(t, KindImage, img.Kind)
	assert.Equal(t, "image/png", img.MIME)
	assert.True(t, strings.HasPrefix(img.DataURL, "data:image/png;base64,"))

	vid := FromBytes("clip.mp4", mp4Header)
	assert.Equal(t, KindVideo, vid.Kind)

	other := FromBytes("notes.txt", []byte("hello"))
	assert.Equal(t, KindOther, other.Kind)
	assert.Equal(t, "text/plain", other.MIME)
}

func TestBuildKeepsOrderForMultipleFiles(t *testing.T) {
	files := map[string][]byte{
		"a.png": pngHeader,
		"b.mp4": mp4Header,
		"c.png": pngHeader,
		"d.txt": []byte("plain"),
		"e.png": pngHeader,
	}
	order := []string{"a.png", "b.mp4", "c.png", "d.txt", "e.png"}

	previews, err := Build(context.Background(), fileHeaders(t, files, order), true)
	require.NoError(t, err)
	require.Len(t, previews, 5)
	for i, name := range order {
		assert.Equal(t, name, previews[i].Name)
	}
	assert.Equal(t, KindVideo, previews[1].Kind)
	assert.Equal(t, KindOther, previews[3].Kind)
}

func TestBuildSingleUsesFirstFile(t *testing.T) {
	files := map[string][]byte{"a.png": pngHeader, "b.mp4": mp4Header}

	previews, err := Build(context.Background(), fileHeaders(t, files, []string{"a.png", "b.mp4"}), false)
	require.NoError(t, err)
	require.Len(t, previews, 1)
	assert.Equal(t, "a.png", previews[0].Name)
}

func TestBuildEmpty(t *testing.T) {
	previews, err := Build(context.Background(), nil, true)
	require.NoError(t, err)
	assert.Empty(t, previews)
}
