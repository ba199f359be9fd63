package preview

import (
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/lysyi3m/edgeboard/app/content"
)

const (
	// MaxFiles caps how many files one request previews.
	MaxFiles = 24

	sniffBytes = 3072
)

// Input is a file offered for preview. Head holds its leading bytes.
type Input struct {
	Name string
	Size int64
	Head []byte
}

type Preview struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	MIME      string            `json:"mime"`
	Kind      content.MediaKind `json:"kind"`
	Label     string            `json:"label"`
	Size      int64             `json:"size"`
	SizeLabel string            `json:"size_label"`
}

type Result struct {
	Previews []Preview `json:"previews"`
	Skipped  int       `json:"skipped"`
}

type Previewer struct {
	maxFiles int
}

func NewPreviewer(maxFiles int) *Previewer {
	if maxFiles <= 0 {
		maxFiles = MaxFiles
	}
	return &Previewer{maxFiles: maxFiles}
}

// Run describes up to maxFiles inputs; the rest are counted as skipped.
func (p *Previewer) Run(inputs []Input) Result {
	result := Result{Previews: []Preview{}}

	for i, in := range inputs {
		if i >= p.maxFiles {
			result.Skipped = len(inputs) - p.maxFiles
			break
		}
		result.Previews = append(result.Previews, p.describe(in))
	}

	return result
}

func (p *Previewer) describe(in Input) Preview {
	mime := mimetype.Detect(in.Head)
	kind, known := kindFromMIME(mime)
	if !known {
		kind, known = content.MediaKindFromExt(path.Ext(in.Name))
	}

	mimeType := mime.String()
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}

	return Preview{
		ID:        uuid.NewString(),
		Name:      path.Base(strings.ReplaceAll(in.Name, "\\", "/")),
		MIME:      mimeType,
		Kind:      kind,
		Label:     label(kind, known, mimeType),
		Size:      in.Size,
		SizeLabel: PrettySize(in.Size),
	}
}

func kindFromMIME(mime *mimetype.MIME) (content.MediaKind, bool) {
	for m := mime; m != nil; m = m.Parent() {
		switch {
		case strings.HasPrefix(m.String(), "image/"):
			return content.MediaImage, true
		case strings.HasPrefix(m.String(), "audio/"):
			return content.MediaAudio, true
		case strings.HasPrefix(m.String(), "video/"):
			return content.MediaVideo, true
		case m.Is("application/pdf"):
			return content.MediaPDF, true
		}
	}
	return content.MediaLink, false
}

func label(kind content.MediaKind, known bool, mimeType string) string {
	if !known {
		if mimeType == "" || mimeType == "application/octet-stream" {
			return "File"
		}
		return mimeType
	}
	switch kind {
	case content.MediaImage:
		return "Image"
	case content.MediaAudio:
		return "Audio"
	case content.MediaVideo:
		return "Video"
	case content.MediaPDF:
		return "PDF"
	default:
		return "File"
	}
}

// PrettySize renders a byte count as whole KB below one MB, else MB with
// one decimal.
func PrettySize(bytes int64) string {
	if bytes < 0 {
		return ""
	}
	kb := float64(bytes) / 1024
	if kb < 1024 {
		return fmt.Sprintf("%.0f KB", kb)
	}
	return fmt.Sprintf("%.1f MB", kb/1024)
}

// FromMultipart reads the leading bytes of uploaded files, stopping after
// limit files. Later files are returned with no head.
func FromMultipart(headers []*multipart.FileHeader, limit int) ([]Input, error) {
	inputs := make([]Input, 0, len(headers))
	for i, fh := range headers {
		in := Input{Name: fh.Filename, Size: fh.Size}
		if i < limit {
			head, err := readHead(fh)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
			}
			in.Head = head
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

func readHead(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, sniffBytes))
}
