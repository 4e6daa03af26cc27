package remote

import (
	"strings"

	"github.com/valyala/fastjson"

	"github.com/charliek/logdesk/internal/domain"
)

// stringList extracts the string items of the array under key. A missing
// key yields an empty list; non-string items are skipped.
func stringList(v *fastjson.Value, key string) []string {
	items := v.GetArray(key)
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.Type() != fastjson.TypeString {
			continue
		}
		if s := strings.TrimSpace(string(item.GetStringBytes())); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// number returns the first numeric value found under any of keys
func number(v *fastjson.Value, keys ...string) (float64, bool) {
	for _, key := range keys {
		field := v.Get(key)
		if field == nil || field.Type() != fastjson.TypeNumber {
			continue
		}
		if f, err := field.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

// text returns the first non-empty string found under any of keys
func text(v *fastjson.Value, keys ...string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(string(v.GetStringBytes(key))); s != "" {
			return s
		}
	}
	return ""
}

// parseIndexReport reads an indexing result. Both camelCase and snake_case
// keys are accepted, and the older {records, elastic: {success, failed}}
// shape is mapped onto the same report.
func parseIndexReport(v *fastjson.Value) domain.IndexReport {
	var r domain.IndexReport

	if n, ok := number(v, "documentsSent", "documents_sent"); ok {
		r.DocumentsSent = int(n)
	}
	if n, ok := number(v, "errors", "failed"); ok {
		r.Errors = int(n)
	} else if errs := v.GetArray("errors"); errs != nil {
		r.Errors = len(errs)
	}
	r.Index = text(v, "index")
	if n, ok := number(v, "tookMs", "took_ms", "took"); ok {
		took := int64(n)
		r.TookMs = &took
	}
	if n, ok := number(v, "fetchTimeSeconds", "fetch_time_seconds"); ok {
		r.FetchTimeSeconds = n
	}
	if n, ok := number(v, "totalTimeSeconds", "total_time_seconds"); ok {
		r.TotalTimeSeconds = n
	}
	if n, ok := number(v, "records"); ok {
		records := int(n)
		r.Records = &records
	}

	if legacy := v.Get("elastic"); legacy != nil && legacy.Type() == fastjson.TypeObject {
		if !v.Exists("documentsSent") && !v.Exists("documents_sent") {
			if n, ok := number(legacy, "success"); ok {
				r.DocumentsSent = int(n)
			}
		}
		if n, ok := number(legacy, "failed"); ok && r.Errors == 0 {
			r.Errors = int(n)
		}
		if r.Index == "" {
			r.Index = text(legacy, "index")
		}
	}

	return r
}

// parseLogExport reads a log export result
func parseLogExport(v *fastjson.Value) domain.LogExport {
	e := domain.LogExport{
		File:    text(v, "file"),
		LogType: domain.LogType(text(v, "log_type", "logType")),
	}
	if n, ok := number(v, "records"); ok {
		records := int(n)
		e.Records = &records
	}
	if n, ok := number(v, "fetch_time_seconds", "fetchTimeSeconds"); ok {
		e.FetchTimeSeconds = &n
	}
	if n, ok := number(v, "total_time_seconds", "totalTimeSeconds"); ok {
		e.TotalTimeSeconds = &n
	}
	return e
}

// parseDiagnosis reads a diagnostic report
func parseDiagnosis(v *fastjson.Value) domain.Diagnosis {
	d := domain.Diagnosis{
		Status:         domain.DiagnosisStatus(text(v, "status")),
		Recommendation: text(v, "recommendation"),
	}
	for _, t := range v.GetArray("tests") {
		test := domain.DiagnosisTest{
			Name:   text(t, "name"),
			Status: text(t, "status"),
		}
		if n, ok := number(t, "logs_found", "logsFound"); ok {
			found := int(n)
			test.LogsFound = &found
		}
		d.Tests = append(d.Tests, test)
	}
	return d
}
