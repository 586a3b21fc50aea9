package domain

import "errors"

// Sentinel errors for the pipeline. Every failure is terminal for the
// triggering request; callers translate these into user-facing messages.
var (
	// ErrInvalidChunkConfig indicates bad chunking parameters
	// (non-positive size, negative overlap, or overlap >= size).
	ErrInvalidChunkConfig = errors.New("invalid chunk configuration")

	// ErrIndexNotFound indicates no index exists for the requested
	// document key, or the persisted artifact is unreadable.
	ErrIndexNotFound = errors.New("index not found")

	// ErrDocumentNotFound indicates the document record does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrSessionNotFound indicates the session id is unknown.
	ErrSessionNotFound = errors.New("session not found")

	// ErrFormatNotSelected indicates note generation was requested
	// before a format was selected for the session.
	ErrFormatNotSelected = errors.New("notes format not selected")

	// ErrCustomTemplateRequired indicates the custom format variant was
	// selected without custom template text.
	ErrCustomTemplateRequired = errors.New("custom template text required")

	// ErrMissingContext indicates the prompt template needs retrieved
	// context that could not be filled.
	ErrMissingContext = errors.New("missing prompt context")

	// ErrGenerationUnavailable indicates the model provider failed
	// (network, auth, rate limit, or timeout). Not retried internally.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrUnsupportedFormat indicates an upload with an unknown file
	// extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUnreadableContent indicates an upload that yielded no usable
	// text.
	ErrUnreadableContent = errors.New("no readable text in file")
)
