package models

// FieldIssue is one field-attributed validation failure.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RowError collects the validation failures of one import row (1-indexed).
type RowError struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

// ErrorResponse is the uniform error body. Error is a stable machine code
// that client UIs branch on; Issues/Rows carry detail for validation and
// import failures respectively.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message,omitempty"`
	Issues  []FieldIssue `json:"issues,omitempty"`
	Rows    []RowError   `json:"rows,omitempty"`
}
