package vision

import "fmt"

// ErrorKind classifies extraction failures so callers can branch on a tag
// instead of matching message substrings.
type ErrorKind int

const (
	// KindTransport covers network failures, model API errors, and unparseable replies.
	KindTransport ErrorKind = iota
	// KindNoChartData means the model looked at the image and found nothing chartable.
	KindNoChartData
	// KindInvalidStructure means the model replied but the data failed validation.
	KindInvalidStructure
)

func (k ErrorKind) String() string {
	switch k {
	case KindNoChartData:
		return "no_chart_data"
	case KindInvalidStructure:
		return "invalid_structure"
	default:
		return "transport"
	}
}

// ExtractionError is the tagged failure type returned by the extractor.
type ExtractionError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("extraction %s: %s", e.Kind, e.Detail)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// KindOf returns the extraction error kind, or KindTransport for foreign errors.
func KindOf(err error) ErrorKind {
	if ee, ok := err.(*ExtractionError); ok {
		return ee.Kind
	}
	return KindTransport
}

func transportErr(detail string, err error) *ExtractionError {
	return &ExtractionError{Kind: KindTransport, Detail: detail, Err: err}
}

func noChartErr(detail string) *ExtractionError {
	return &ExtractionError{Kind: KindNoChartData, Detail: detail}
}

func invalidErr(detail string) *ExtractionError {
	return &ExtractionError{Kind: KindInvalidStructure, Detail: detail}
}
