package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestDiagnosisTest_Passed(t *testing.T) {
	tests := []struct {
		name string
		test DiagnosisTest
		want bool
	}{
		{"pass status", DiagnosisTest{Status: "pass"}, true},
		{"fail status", DiagnosisTest{Status: "fail"}, false},
		{"no data without count", DiagnosisTest{Status: "no_data"}, false},
		{"no data with zero logs", DiagnosisTest{Status: "no_data", LogsFound: intPtr(0)}, false},
		{"logs found", DiagnosisTest{Status: "no_data", LogsFound: intPtr(3)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.test.Passed())
		})
	}
}
