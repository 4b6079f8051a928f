package backup

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	gverrors "github.com/Ben2303/gamevault-backend/internal/errors"
	"github.com/spf13/afero"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Artifact describes a completed backup file on disk. It is created by
// an engine strategy and consumed once to produce a download stream.
type Artifact struct {
	SourcePath        string
	SizeBytes         int64
	MimeType          string
	SuggestedFilename string
}

// Download is a one-shot byte stream of a backup artifact with the
// metadata required for an attachment response.
type Download struct {
	Reader      afero.File
	Filename    string
	Size        int64
	ContentType string
}

// Close releases the underlying file handle.
func (d *Download) Close() error {
	return d.Reader.Close()
}

// ArtifactBuilder turns backup files into downloadable streams.
type ArtifactBuilder struct {
	fs afero.Fs
}

// NewArtifactBuilder creates a builder over the given filesystem.
func NewArtifactBuilder(fs afero.Fs) *ArtifactBuilder {
	return &ArtifactBuilder{fs: fs}
}

// Describe stats path and produces the artifact metadata for it.
// The suggested filename is the sanitized base name of the file.
func (b *ArtifactBuilder) Describe(path string) (*Artifact, error) {
	stat, err := b.fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, gverrors.NewNotFound(fmt.Sprintf("backup file does not exist: %s", path))
		}
		return nil, fmt.Errorf("cannot stat backup file: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	return &Artifact{
		SourcePath:        path,
		SizeBytes:         stat.Size(),
		MimeType:          mimeType,
		SuggestedFilename: SanitizeFilename(filepath.Base(path)),
	}, nil
}

// Open opens the artifact as a sequential stream for transfer.
func (b *ArtifactBuilder) Open(artifact *Artifact) (*Download, error) {
	file, err := b.fs.Open(artifact.SourcePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, gverrors.NewNotFound(fmt.Sprintf("backup file does not exist: %s", artifact.SourcePath))
		}
		return nil, fmt.Errorf("cannot open backup file: %w", err)
	}

	return &Download{
		Reader:      file,
		Filename:    artifact.SuggestedFilename,
		Size:        artifact.SizeBytes,
		ContentType: artifact.MimeType,
	}, nil
}

// BuildDownload is Describe followed by Open.
func (b *ArtifactBuilder) BuildDownload(path string) (*Download, error) {
	artifact, err := b.Describe(path)
	if err != nil {
		return nil, err
	}
	return b.Open(artifact)
}

var illegalFilenameChars = strings.NewReplacer(
	"/", "", "\\", "", ":", "", "*", "", "?", "",
	`"`, "", "<", "", ">", "", "|", "",
)

// SanitizeFilename makes a name safe for a Content-Disposition header:
// diacritics are decomposed and stripped, remaining non-ASCII runes and
// characters illegal in filenames are removed.
func SanitizeFilename(name string) string {
	// NFD decomposition splits 'Ü' into 'U' + combining diaeresis,
	// which the rune filter then drops.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if ascii, _, err := transform.String(t, name); err == nil {
		name = ascii
	}

	var sb strings.Builder
	for _, r := range name {
		if r > unicode.MaxASCII || unicode.IsControl(r) {
			continue
		}
		sb.WriteRune(r)
	}

	return strings.TrimSpace(illegalFilenameChars.Replace(sb.String()))
}

var backupTimestampReplacer = strings.NewReplacer(":", "-", ".", "-")

// BackupFilename returns the canonical name for a backup created at t,
// e.g. gamevault_database_backup_2024-03-01T10-30-00-000Z.db
func BackupFilename(t time.Time) string {
	ts := backupTimestampReplacer.Replace(t.UTC().Format("2006-01-02T15:04:05.000Z"))
	return "gamevault_database_backup_" + ts + ".db"
}
