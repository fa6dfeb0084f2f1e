package domain

import (
	"strings"
	"time"
)

// EngineName identifies an OCR engine collaborator
type EngineName string

const (
	EngineTesseract EngineName = "tesseract"
	EngineEasyOCR   EngineName = "easyocr"
)

// Precedence returns the fixed tie-break rank of an engine, matching the
// deterministic order recognition is invoked. Lower wins.
func (e EngineName) Precedence() int {
	switch e {
	case EngineTesseract:
		return 0
	case EngineEasyOCR:
		return 1
	default:
		return 2
	}
}

// FieldName identifies a logical card field
type FieldName string

const (
	FieldFirstName  FieldName = "first_name"
	FieldSecondName FieldName = "second_name"
	FieldAddress    FieldName = "address"
	FieldID         FieldName = "id"
)

// Fields lists the locatable fields in contract order
var Fields = []FieldName{FieldFirstName, FieldSecondName, FieldAddress, FieldID}

// Box is a line bounding box in pixel coordinates, origin top-left
type Box struct {
	X0 int `json:"x0"`
	Y0 int `json:"y0"`
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
}

// OcrLine is a single recognized text line from one engine
type OcrLine struct {
	Text string `json:"text"`
	// Confidence is in [0,1]; negative means the engine reported none.
	Confidence float64 `json:"confidence"`
	Box        *Box    `json:"box,omitempty"`
}

// RawOcrResult is the immutable output of one engine for one image
type RawOcrResult struct {
	Engine EngineName `json:"engine"`
	Lines  []OcrLine  `json:"lines"`
}

// Empty reports whether the engine produced no usable text
func (r RawOcrResult) Empty() bool {
	for _, l := range r.Lines {
		if strings.TrimSpace(l.Text) != "" {
			return false
		}
	}
	return true
}

// FieldCandidate is one engine's proposed value for one logical field
type FieldCandidate struct {
	Field  FieldName
	Value  string
	Engine EngineName
	// Confidence is in [0,1]; negative means unavailable.
	Confidence float64
}

// IsZero reports whether the candidate carries no value
func (c FieldCandidate) IsZero() bool { return c.Value == "" }

// Error code bits. The error field of a ResultRecord is a bitmask so
// consumers can distinguish causes; 0 means all checks passed.
const (
	ErrNone             = 0
	ErrIDMissing        = 1 << 0
	ErrIDFormat         = 1 << 1
	ErrBirthdateInvalid = 1 << 2
	ErrNamesMissing     = 1 << 3
	ErrAddressMissing   = 1 << 4
	ErrEnginesFailed    = 1 << 5
	ErrPreprocessFailed = 1 << 6
)

// ResultRecord is the sole boundary artifact of a scan. Field names and
// casing are a fixed external contract.
type ResultRecord struct {
	FirstName  string `json:"first_name"`
	SecondName string `json:"second_name"`
	Address    string `json:"address"`
	ID         string `json:"id" validate:"omitempty,len=14,numeric"`
	Birthdate  string `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
	Error      int    `json:"error"`
}

// ScanStatus represents the processing state of a scan job
type ScanStatus string

const (
	StatusPending    ScanStatus = "pending"
	StatusProcessing ScanStatus = "processing"
	StatusCompleted  ScanStatus = "completed"
	StatusFailed     ScanStatus = "failed"
)

// ScanJob tracks one asynchronous scan
type ScanJob struct {
	JobID     string        `json:"job_id"`
	Status    ScanStatus    `json:"status"`
	Result    *ResultRecord `json:"result,omitempty"`
	Message   string        `json:"message,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// ScanAuditEntry records one scan for the optional audit table
type ScanAuditEntry struct {
	ID         string    `db:"id"`
	JobID      string    `db:"job_id"`
	ErrorCode  int       `db:"error_code"`
	IDPresent  bool      `db:"id_present"`
	EngineA    bool      `db:"engine_a_ok"`
	EngineB    bool      `db:"engine_b_ok"`
	DurationMs int64     `db:"duration_ms"`
	CreatedAt  time.Time `db:"created_at"`
}
