package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxContentChars caps each decoded text blob (HTML, concatenated CSS,
// concatenated JS). Oversized content aborts the whole decode.
const MaxContentChars = 120_000

var (
	// ErrInvalidArchive signals that the zip archive could not be read.
	ErrInvalidArchive = errors.New("archive is invalid or corrupted")
	// ErrUnsafeEntry indicates an entry path escapes the archive root or is a symlink.
	ErrUnsafeEntry = errors.New("archive contains an unsafe entry path")
	// ErrDisallowedEntry indicates an entry extension outside the static-asset allowlist.
	ErrDisallowedEntry = errors.New("archive contains a disallowed file type")
	// ErrMissingIndex indicates no index.html entry was found.
	ErrMissingIndex = errors.New("archive is missing an index.html entry")
	// ErrContentTooLarge indicates a decoded text blob exceeds MaxContentChars.
	ErrContentTooLarge = errors.New("archive content exceeds the size ceiling")
)

// Static-asset extensions accepted inside a portfolio archive.
var allowedExtensions = map[string]struct{}{
	".html": {}, ".htm": {},
	".css": {},
	".js":  {},
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".svg": {}, ".webp": {}, ".ico": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".otf": {}, ".eot": {},
	".txt": {}, ".md": {}, ".json": {},
}

// Entry describes one archive member recorded in the submission manifest.
type Entry struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Content is the fully validated result of decoding a portfolio archive.
// It is returned complete or not at all.
type Content struct {
	HTML     string
	CSS      string
	JS       string
	Manifest []Entry
}

// Metadata summarises a stored archive for the submission's archive_meta column.
type Metadata struct {
	Entries    []Entry   `json:"entries"`
	SizeBytes  int64     `json:"size_bytes"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Decode validates the zip payload and extracts the draft content. Entries
// are checked for traversal, symlinks and the extension allowlist before any
// content is read; CSS and JS entries are concatenated in archive order.
func Decode(data []byte) (Content, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return Content{}, ErrInvalidArchive
	}

	if len(reader.File) == 0 {
		return Content{}, ErrInvalidArchive
	}

	var (
		html     string
		haveHTML bool
		css      strings.Builder
		js       strings.Builder
		manifest []Entry
	)

	for _, file := range reader.File {
		if err := validateEntry(file); err != nil {
			return Content{}, err
		}

		if file.FileInfo().IsDir() {
			continue
		}

		manifest = append(manifest, Entry{
			Path: filepath.ToSlash(filepath.Clean(file.Name)),
			Size: int64(file.UncompressedSize64),
		})

		lower := strings.ToLower(file.Name)
		switch {
		case strings.HasSuffix(lower, "index.html"):
			content, err := readEntry(file)
			if err != nil {
				return Content{}, err
			}
			// First index.html wins; nested copies are kept as plain assets.
			if !haveHTML {
				html = content
				haveHTML = true
			}
		case strings.HasSuffix(lower, ".css"):
			content, err := readEntry(file)
			if err != nil {
				return Content{}, err
			}
			if css.Len() > 0 {
				css.WriteString("\n")
			}
			css.WriteString(content)
		case strings.HasSuffix(lower, ".js"):
			content, err := readEntry(file)
			if err != nil {
				return Content{}, err
			}
			if js.Len() > 0 {
				js.WriteString("\n")
			}
			js.WriteString(content)
		}
	}

	if !haveHTML {
		return Content{}, ErrMissingIndex
	}

	if len(html) > MaxContentChars || css.Len() > MaxContentChars || js.Len() > MaxContentChars {
		return Content{}, ErrContentTooLarge
	}

	return Content{
		HTML:     html,
		CSS:      css.String(),
		JS:       js.String(),
		Manifest: manifest,
	}, nil
}

func validateEntry(file *zip.File) error {
	cleaned := filepath.ToSlash(filepath.Clean(file.Name))
	if strings.HasPrefix(cleaned, "/") || filepath.IsAbs(file.Name) {
		return ErrUnsafeEntry
	}
	for _, segment := range strings.Split(cleaned, "/") {
		if segment == ".." {
			return ErrUnsafeEntry
		}
	}

	if file.Mode()&os.ModeSymlink != 0 {
		return ErrUnsafeEntry
	}

	if file.FileInfo().IsDir() {
		return nil
	}

	ext := strings.ToLower(filepath.Ext(cleaned))
	if _, ok := allowedExtensions[ext]; !ok {
		return ErrDisallowedEntry
	}

	return nil
}

func readEntry(file *zip.File) (string, error) {
	reader, err := file.Open()
	if err != nil {
		return "", ErrInvalidArchive
	}
	defer reader.Close()

	data, err := io.ReadAll(io.LimitReader(reader, MaxContentChars+1))
	if err != nil {
		return "", ErrInvalidArchive
	}

	if len(data) > MaxContentChars {
		return "", ErrContentTooLarge
	}

	return string(data), nil
}
