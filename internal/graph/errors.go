package graph

import (
	"context"
	"errors"

	"github.com/Divas-Gupta30/readease/internal/ingestion"
	"github.com/Divas-Gupta30/readease/internal/speech"
)

const (
	MsgUnreadable   = "Could not read this file."
	MsgUnsimplified = "Could not simplify this text."
	MsgNoReadAloud  = "Read-aloud isn't supported here."
)

// UserMessage maps a terminal error to the message shown to the reader.
// Superseded and cancelled requests have no message.
func UserMessage(err error) string {
	var xe *ingestion.ExtractionError
	var se *speech.SpeechUnavailableError
	switch {
	case err == nil, errors.Is(err, ErrSuperseded), errors.Is(err, context.Canceled):
		return ""
	case errors.As(err, &xe):
		return MsgUnreadable
	case errors.As(err, &se):
		return MsgNoReadAloud
	default:
		return MsgUnsimplified
	}
}
