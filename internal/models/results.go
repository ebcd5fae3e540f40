package models

import "time"

// SaveResult reports the outcome of a save operation. Failures inside the
// pipeline are carried here rather than returned as errors, so callers get
// one uniform shape whatever went wrong.
type SaveResult struct {
	Success     bool          `json:"success"`
	SlotID      string        `json:"slot_id"`
	OperationID string        `json:"operation_id"`
	Duration    time.Duration `json:"duration"`
	PayloadSize int64         `json:"payload_size"`
	Message     string        `json:"message,omitempty"`
	Err         error         `json:"-"`
}

// LoadResult reports the outcome of a load operation.
type LoadResult struct {
	Success         bool          `json:"success"`
	SlotID          string        `json:"slot_id"`
	OperationID     string        `json:"operation_id"`
	Snapshot        *Snapshot     `json:"-"`
	Duration        time.Duration `json:"duration"`
	WasMigrated     bool          `json:"was_migrated"`
	OriginalVersion string        `json:"original_version,omitempty"`
	Message         string        `json:"message,omitempty"`
	Err             error         `json:"-"`
}

// ImportResult reports the outcome of importing an external save file.
// Validation holds the pre-copy validation findings; when they contain
// fatal errors the import is rejected and the target slot is untouched.
type ImportResult struct {
	Success     bool              `json:"success"`
	SlotID      string            `json:"slot_id"`
	OperationID string            `json:"operation_id"`
	Validation  *ValidationResult `json:"validation,omitempty"`
	Message     string            `json:"message,omitempty"`
	Err         error             `json:"-"`
}

// ValidationResult collects validator findings. Errors block a load;
// warnings allow it to proceed with defaults.
type ValidationResult struct {
	Exists            bool     `json:"exists"`
	IsValid           bool     `json:"is_valid"`
	ChecksumValid     bool     `json:"checksum_valid"`
	VersionCompatible bool     `json:"version_compatible"`
	Errors            []string `json:"errors,omitempty"`
	Warnings          []string `json:"warnings,omitempty"`
}

// AddError records a fatal finding.
func (r *ValidationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddWarning records a non-fatal finding.
func (r *ValidationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Merge folds another result's findings into r.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}
