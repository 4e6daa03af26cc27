package domain

// DiagnosisStatus summarizes whether a load balancer produces logs
type DiagnosisStatus string

const (
	DiagnosisWorking DiagnosisStatus = "working"
	DiagnosisNoLogs  DiagnosisStatus = "no_logs"
)

// String returns the string representation of DiagnosisStatus
func (s DiagnosisStatus) String() string {
	return string(s)
}

// DiagnosisTest is one check run by the remote diagnose operation
type DiagnosisTest struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LogsFound *int   `json:"logs_found,omitempty"`
}

// Passed returns true for a passing check or one that found logs
func (t DiagnosisTest) Passed() bool {
	if t.Status == "pass" {
		return true
	}
	return t.LogsFound != nil && *t.LogsFound > 0
}

// Diagnosis explains why a load balancer does or does not return logs
type Diagnosis struct {
	Status         DiagnosisStatus `json:"status"`
	Recommendation string          `json:"recommendation"`
	Tests          []DiagnosisTest `json:"tests"`
}

// LogExport describes a log file generated by the remote API
type LogExport struct {
	File             string   `json:"file"`
	LogType          LogType  `json:"log_type"`
	Records          *int     `json:"records,omitempty"`
	FetchTimeSeconds *float64 `json:"fetch_time_seconds,omitempty"`
	TotalTimeSeconds *float64 `json:"total_time_seconds,omitempty"`
}

// IndexReport describes a push of log documents into the search index
type IndexReport struct {
	DocumentsSent    int     `json:"documentsSent"`
	Errors           int     `json:"errors"`
	Index            string  `json:"index"`
	TookMs           *int64  `json:"tookMs,omitempty"`
	FetchTimeSeconds float64 `json:"fetchTimeSeconds"`
	TotalTimeSeconds float64 `json:"totalTimeSeconds"`
	Records          *int    `json:"records,omitempty"`
}
