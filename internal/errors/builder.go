package errors

import (
	"strings"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
)

// detailsPrefix tags the safe detail that carries the reportable details as json
const detailsPrefix = "__json__:"

// ErrorBuilder assembles an error in steps. It is not an error itself: Mark
// ends every chain and returns the built error.
type ErrorBuilder struct {
	err     error
	details map[string]any
}

// NewError starts a chain from a plain internal message
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError starts a chain that wraps err
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithHint sets the message shown to API clients
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithReportableDetails merges details into the set returned to clients under
// error.details. Later calls win on key collisions.
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	if b.details == nil {
		b.details = make(map[string]any, len(details))
	}
	for k, v := range details {
		b.details[k] = v
	}
	return b
}

// Mark tags the error with a sentinel so that Is and the HTTP mapping can
// classify it, and returns the built error
func (b *ErrorBuilder) Mark(reference error) error {
	err := b.err
	if len(b.details) > 0 {
		if raw, mErr := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(b.details); mErr == nil {
			err = errors.WithSafeDetails(err, detailsPrefix+"%s", errors.Safe(string(raw)))
		}
	}
	return errors.Mark(err, reference)
}

// ReportableDetails collects every detail attached through WithReportableDetails
// anywhere in err's chain. It returns nil when there are none.
func ReportableDetails(err error) map[string]any {
	details := make(map[string]any)
	for _, sdp := range errors.GetAllSafeDetails(err) {
		for _, payload := range sdp.SafeDetails {
			raw, ok := strings.CutPrefix(payload, detailsPrefix)
			if !ok {
				continue
			}
			var part map[string]any
			if jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(raw, &part) == nil {
				for k, v := range part {
					details[k] = v
				}
			}
		}
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
