package api

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobStatus(t *testing.T) {
	assert.Equal(t, "Complete", Complete.String())
	assert.Equal(t, "JobStatus(5)", JobStatus(5).String())
	assert.True(t, Complete.IsTerminal())
	assert.True(t, Quarantined.IsTerminal())
	assert.False(t, Solving.IsTerminal())
	assert.False(t, JobStatus(5).IsKnown())
}

func TestParseJobStatus(t *testing.T) {
	status, err := ParseJobStatus("complete")
	require.NoError(t, err)
	assert.Equal(t, Complete, status)

	_, err = ParseJobStatus("running")
	assert.Error(t, err)
}

func TestJobStatusFromValue(t *testing.T) {
	tests := map[string]struct {
		value    interface{}
		expected JobStatus
		fail     bool
	}{
		"float":               {value: float64(70), expected: Complete},
		"json number":         {value: json.Number("40"), expected: Solving},
		"int":                 {value: 10, expected: QueuedForMeshing},
		"name":                {value: "Quarantined", expected: Quarantined},
		"fraction":            {value: 1.5, fail: true},
		"unknown":             {value: "running", fail: true},
		"bool":                {value: true, fail: true},
		"huge float":          {value: 1e20, fail: true},
		"huge negative float": {value: -1e20, fail: true},
		"nan":                 {value: math.NaN(), fail: true},
		"infinity":            {value: math.Inf(1), fail: true},
		"huge json number":    {value: json.Number("99999999999"), fail: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			status, err := JobStatusFromValue(tc.value)
			if tc.fail {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, status)
		})
	}
}
