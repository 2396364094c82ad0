package model

// WriteOutcome tags which backends accepted a dual write.
type WriteOutcome string

const (
	WriteBothOK       WriteOutcome = "both_ok"
	WriteIndexedOnly  WriteOutcome = "indexed_only"
	WriteDocumentOnly WriteOutcome = "document_only"
	WriteBothFailed   WriteOutcome = "both_failed"
)

// WriteReport carries the per-backend result of one dual write. Backend
// errors are kept individually so a partial failure can be logged with
// enough context to retry out-of-band.
type WriteReport struct {
	Outcome     WriteOutcome
	IndexedErr  error
	DocumentErr error
}

// Succeeded reports whether at least one backend accepted the write.
func (r WriteReport) Succeeded() bool {
	return r.Outcome != WriteBothFailed
}

// Partial reports whether exactly one backend accepted the write.
func (r WriteReport) Partial() bool {
	return r.Outcome == WriteIndexedOnly || r.Outcome == WriteDocumentOnly
}

// ReportFor classifies a pair of backend errors into a WriteReport.
func ReportFor(indexedErr, documentErr error) WriteReport {
	r := WriteReport{IndexedErr: indexedErr, DocumentErr: documentErr}
	switch {
	case indexedErr == nil && documentErr == nil:
		r.Outcome = WriteBothOK
	case indexedErr == nil:
		r.Outcome = WriteIndexedOnly
	case documentErr == nil:
		r.Outcome = WriteDocumentOnly
	default:
		r.Outcome = WriteBothFailed
	}
	return r
}
