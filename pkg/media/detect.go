package media

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// sniffLen is how much of the content is inspected, matching http.DetectContentType.
	sniffLen = 512

	octetStream = "application/octet-stream"
)

// Kinds of InputMedia a file can be sent as.
const (
	KindPhoto     = "photo"
	KindVideo     = "video"
	KindAnimation = "animation"
	KindAudio     = "audio"
	KindDocument  = "document"
)

// knownExts maps file extensions to MIME types for formats the Bot API
// deals with directly.
var knownExts = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".mp3":  "audio/mpeg",
	".m4a":  "audio/mp4",
	".ogg":  "audio/ogg",
	".oga":  "audio/ogg",
	".opus": "audio/ogg",
	".flac": "audio/flac",
	".wav":  "audio/wav",
	".pdf":  "application/pdf",
	".zip":  "application/zip",
	".tgs":  "application/x-tgsticker",
	".pem":  "application/x-pem-file",
	".crt":  "application/x-x509-ca-cert",
	".txt":  "text/plain; charset=utf-8",
	".json": "application/json",
}

// DetectContentType picks a MIME type for a file from its name and the
// first bytes of its content. Known extensions win, then the system MIME
// table, then content sniffing.
func DetectContentType(name string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := knownExts[ext]; ok {
		return mt
	}
	if ext != "" {
		if mt := mime.TypeByExtension(ext); mt != "" {
			return mt
		}
	}
	return sniff(data)
}

// sniff uses the stdlib detector first and falls back to the broader
// mimetype library when the stdlib only knows it is binary.
func sniff(data []byte) string {
	if len(data) == 0 {
		return octetStream
	}
	head := data
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	if mt := http.DetectContentType(head); mt != octetStream {
		return mt
	}
	return mimetype.Detect(data).String()
}

// Kind suggests how a file with contentType should be sent in a media group.
func Kind(contentType string) string {
	base, _, _ := strings.Cut(contentType, ";")
	base = strings.TrimSpace(strings.ToLower(base))
	switch {
	case base == "image/gif":
		return KindAnimation
	case strings.HasPrefix(base, "image/"):
		return KindPhoto
	case strings.HasPrefix(base, "video/"):
		return KindVideo
	case strings.HasPrefix(base, "audio/"):
		return KindAudio
	default:
		return KindDocument
	}
}
