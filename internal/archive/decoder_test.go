package archive_test

import (
	"archive/zip"
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seka-portal-api/internal/archive"
)

type zipEntry struct {
	Name    string
	Content []byte
	Mode    os.FileMode
}

func buildZip(t *testing.T, entries []zipEntry) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	writer := zip.NewWriter(buf)

	for _, entry := range entries {
		header := &zip.FileHeader{Name: entry.Name, Method: zip.Deflate}
		if entry.Mode != 0 {
			header.SetMode(entry.Mode)
		}

		w, err := writer.CreateHeader(header)
		require.NoError(t, err)
		if len(entry.Content) > 0 {
			_, err = w.Write(entry.Content)
			require.NoError(t, err)
		}
	}

	require.NoError(t, writer.Close())

	return buf.Bytes()
}

func TestDecode_ValidArchive(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{Name: "index.html", Content: []byte("<h1>Portfolio</h1>")},
		{Name: "css/base.css", Content: []byte("body { margin: 0; }")},
		{Name: "css/theme.css", Content: []byte("h1 { color: teal; }")},
		{Name: "js/app.js", Content: []byte("console.log('hi')")},
		{Name: "img/logo.png", Content: []byte{0x89, 0x50, 0x4e, 0x47}},
	})

	content, err := archive.Decode(data)
	require.NoError(t, err)
	require.Equal(t, "<h1>Portfolio</h1>", content.HTML)
	require.Equal(t, "body { margin: 0; }\nh1 { color: teal; }", content.CSS)
	require.Equal(t, "console.log('hi')", content.JS)
	require.Len(t, content.Manifest, 5)
}

func TestDecode_ConcatenatesInArchiveOrder(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{Name: "index.html", Content: []byte("<p>hi</p>")},
		{Name: "z-first.css", Content: []byte("/* first */")},
		{Name: "a-second.css", Content: []byte("/* second */")},
	})

	content, err := archive.Decode(data)
	require.NoError(t, err)
	require.Equal(t, "/* first */\n/* second */", content.CSS)
}

func TestDecode_FirstIndexWins(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{Name: "index.html", Content: []byte("<p>root</p>")},
		{Name: "nested/index.html", Content: []byte("<p>nested</p>")},
	})

	content, err := archive.Decode(data)
	require.NoError(t, err)
	require.Equal(t, "<p>root</p>", content.HTML)
}

func TestDecode_RejectsTraversal(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{Name: "../evil.html", Content: []byte("<p>bad</p>")},
		{Name: "index.html", Content: []byte("<p>ok</p>")},
	})

	_, err := archive.Decode(data)
	require.ErrorIs(t, err, archive.ErrUnsafeEntry)
}

func TestDecode_AcceptsDoubleDotsInsideName(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{Name: "index.html", Content: []byte("<p>ok</p>")},
		{Name: "css/styles..v2.css", Content: []byte("p { color: red; }")},
	})

	content, err := archive.Decode(data)
	require.NoError(t, err)
	require.Equal(t, "p { color: red; }", content.CSS)
}

func TestDecode_RejectsNestedTraversalSegment(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{Name: "index.html", Content: []byte("<p>ok</p>")},
		{Name: "assets/../../evil.css", Content: []byte("p {}")},
	})

	_, err := archive.Decode(data)
	require.ErrorIs(t, err, archive.ErrUnsafeEntry)
}

func TestDecode_RejectsAbsolutePath(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{Name: "/etc/passwd.txt", Content: []byte("root")},
		{Name: "index.html", Content: []byte("<p>ok</p>")},
	})

	_, err := archive.Decode(data)
	require.ErrorIs(t, err, archive.ErrUnsafeEntry)
}

func TestDecode_RejectsSymlink(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{Name: "index.html", Content: []byte("<p>ok</p>")},
		{Name: "link.html", Content: []byte("target"), Mode: os.ModeSymlink | 0o777},
	})

	_, err := archive.Decode(data)
	require.ErrorIs(t, err, archive.ErrUnsafeEntry)
}

func TestDecode_RejectsDisallowedExtension(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{Name: "index.html", Content: []byte("<p>ok</p>")},
		{Name: "run.exe", Content: []byte{0x4d, 0x5a}},
	})

	_, err := archive.Decode(data)
	require.ErrorIs(t, err, archive.ErrDisallowedEntry)
}

func TestDecode_RequiresIndexHTML(t *testing.T) {
	data := buildZip(t, []zipEntry{
		{Name: "about.html", Content: []byte("<p>about</p>")},
		{Name: "style.css", Content: []byte("p {}")},
	})

	_, err := archive.Decode(data)
	require.ErrorIs(t, err, archive.ErrMissingIndex)
}

func TestDecode_RejectsOversizedContent(t *testing.T) {
	huge := strings.Repeat("a", archive.MaxContentChars+1)
	data := buildZip(t, []zipEntry{
		{Name: "index.html", Content: []byte("<p>ok</p>")},
		{Name: "big.css", Content: []byte(huge)},
	})

	_, err := archive.Decode(data)
	require.ErrorIs(t, err, archive.ErrContentTooLarge)
}

func TestDecode_RejectsCorruptData(t *testing.T) {
	_, err := archive.Decode([]byte("definitely not a zip"))
	require.ErrorIs(t, err, archive.ErrInvalidArchive)

	_, err = archive.Decode(nil)
	require.ErrorIs(t, err, archive.ErrInvalidArchive)
}

func TestDecode_EmptyArchiveInvalid(t *testing.T) {
	data := buildZip(t, nil)

	_, err := archive.Decode(data)
	require.ErrorIs(t, err, archive.ErrInvalidArchive)
}
