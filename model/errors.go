package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the machine readable class of a pipeline failure.
type Kind string

const (
	KindBadRequest             Kind = "bad_request"
	KindRequestTooShort        Kind = "request_too_short"
	KindUnintelligible         Kind = "unintelligible"
	KindSTTProviderUnavailable Kind = "stt_provider_unavailable"
	KindSTTProviderError       Kind = "stt_provider_error"
	KindGenerationFailed       Kind = "generation_failed"
	KindReplyExtractionFailed  Kind = "reply_extraction_failed"
	KindTTSProviderError       Kind = "tts_provider_error"
	KindTranscodeError         Kind = "transcode_error"
	KindInternal               Kind = "internal_error"
)

// Stage names the pipeline step an error came from.
type Stage string

const (
	StageRequest    Stage = "request"
	StageNormalize  Stage = "normalize"
	StageTranscribe Stage = "transcribe"
	StageReply      Stage = "reply"
	StageSynthesize Stage = "synthesize"
)

// Error is a typed pipeline failure.
type Error struct {
	Kind  Kind
	Stage Stage
	Err   error
}

// NewError builds an *Error. err may be nil.
func NewError(kind Kind, stage Stage, err error) *Error {
	return &Error{Kind: kind, Stage: stage, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Stage, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the kind to an HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindBadRequest, KindRequestTooShort, KindUnintelligible:
		return http.StatusBadRequest
	case KindSTTProviderUnavailable:
		return http.StatusServiceUnavailable
	case KindSTTProviderError, KindGenerationFailed, KindReplyExtractionFailed, KindTTSProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Message is the user facing text for the error body.
func (e *Error) Message() string {
	switch e.Kind {
	case KindRequestTooShort:
		return "Audio too short."
	case KindUnintelligible:
		return "Speech could not be understood."
	case KindSTTProviderUnavailable:
		return "Speech recognition service unavailable."
	case KindSTTProviderError:
		return "Speech recognition API error."
	case KindGenerationFailed, KindReplyExtractionFailed:
		return "Reply generation failed."
	case KindTTSProviderError:
		return "Speech synthesis failed."
	case KindTranscodeError:
		return "Audio conversion failed."
	case KindBadRequest:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "Bad request."
	default:
		return "Internal Server Error."
	}
}

// KindOf extracts the Kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// AsError returns err as an *Error, wrapping untyped errors as internal.
func AsError(err error, stage Stage) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewError(KindInternal, stage, err)
}

// FailureKind maps a transcription failure onto the error taxonomy.
func FailureKind(f TranscriptionFailure) Kind {
	switch f {
	case FailureUnintelligible:
		return KindUnintelligible
	case FailureProviderUnavailable:
		return KindSTTProviderUnavailable
	default:
		return KindSTTProviderError
	}
}
