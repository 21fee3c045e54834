// Package input builds InputMedia objects for sendMediaGroup, sendPaidMedia
// and editMessageMedia parameters.
package input

import (
	"github.com/sipeed/picoclaw-files/pkg/media"
	"github.com/sipeed/picoclaw-files/pkg/upload"
)

// Animation is a GIF or H.264/MPEG-4 AVC video without sound.
func Animation(m any, opts map[string]any) map[string]any {
	return build(media.KindAnimation, m, opts)
}

// Document is a general file.
func Document(m any, opts map[string]any) map[string]any {
	return build(media.KindDocument, m, opts)
}

// Audio is an audio file treated as music.
func Audio(m any, opts map[string]any) map[string]any {
	return build(media.KindAudio, m, opts)
}

func Photo(m any, opts map[string]any) map[string]any {
	return build(media.KindPhoto, m, opts)
}

func Video(m any, opts map[string]any) map[string]any {
	return build(media.KindVideo, m, opts)
}

// FromFile picks the InputMedia type from the file's content type.
func FromFile(f *upload.File, opts map[string]any) map[string]any {
	ct := f.ContentType
	if ct == "" {
		ct = media.DetectContentType(f.Name, f.Data)
	}
	return build(media.Kind(ct), f, opts)
}

// build copies opts and sets type and media last so opts cannot override them.
func build(kind string, m any, opts map[string]any) map[string]any {
	out := make(map[string]any, len(opts)+2)
	for k, v := range opts {
		out[k] = v
	}
	out["type"] = kind
	out["media"] = m
	return out
}
