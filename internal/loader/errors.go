package loader

import (
	"errors"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorLabel prefixes the error text written to the surface.
const ErrorLabel = "Erreur: "

var (
	ErrMissingProducts = errors.New("missing products field")
	ErrNullProduct     = errors.New("null product entry")
	ErrSuperseded      = errors.New("load superseded by a newer load")
)

// Stage names the step of a load that failed.
type Stage string

const (
	StageRequest Stage = "request"
	StageStatus  Stage = "status"
	StageRead    Stage = "read"
	StageDecode  Stage = "decode"
	StagePayload Stage = "payload"
	StageRender  Stage = "render"
)

// LoadError is the single failure type of a load. Its message is the cause's
// message, so the surface shows the underlying description.
type LoadError struct {
	Stage Stage
	Err   error
}

func (e *LoadError) Error() string {
	return e.Err.Error()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func handleError(err error, span trace.Span) {
	if err == nil {
		return
	}
	span.AddEvent(err.Error())
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
