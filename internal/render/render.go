// Package render turns generated prose into downloadable office
// documents. It assembles the minimal OOXML packages itself; artifacts
// only ever exist in memory.
package render

import (
	"fmt"
	"strings"

	"github.com/Samandar0813/darsbot/internal/metrics"
	"github.com/rs/zerolog"
)

// TaskPresentation is the task label rendered as a slide deck; every
// other task becomes a text document.
const TaskPresentation = "📊 Taqdimot"

const (
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimePptx = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
)

// Artifact is a rendered document ready to send as an attachment.
type Artifact struct {
	Name string
	MIME string
	Data []byte
}

// Renderer produces a document artifact from generated text.
type Renderer interface {
	Render(task, topic, body string) (*Artifact, error)
}

// Service dispatches between the slide-deck and text-document writers
// based on the selected task.
type Service struct {
	logger zerolog.Logger
}

// NewService creates a document renderer.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		logger: logger.With().Str("component", "renderer").Logger(),
	}
}

// Render builds the artifact for the given selections.
func (s *Service) Render(task, topic, body string) (*Artifact, error) {
	if task == TaskPresentation {
		data, err := buildPptx(topic, body)
		if err != nil {
			return nil, fmt.Errorf("render presentation: %w", err)
		}
		metrics.DocumentsRendered.WithLabelValues("pptx").Inc()
		s.logger.Debug().Str("topic", topic).Int("bytes", len(data)).Msg("Rendered presentation")
		return &Artifact{Name: fileName(topic, "pptx"), MIME: mimePptx, Data: data}, nil
	}

	data, err := buildDocx(task, body)
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}
	metrics.DocumentsRendered.WithLabelValues("docx").Inc()
	s.logger.Debug().Str("topic", topic).Int("bytes", len(data)).Msg("Rendered document")
	return &Artifact{Name: fileName(topic, "docx"), MIME: mimeDocx, Data: data}, nil
}

// fileName derives a safe attachment name from the topic.
func fileName(topic, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(topic))
	if name == "" {
		name = "hujjat"
	}
	if len(name) > 64 {
		name = name[:64]
	}
	return name + "." + ext
}
