package pseudocap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReport(t *testing.T) {
	report := &Report{
		Output: "Autoloader.exe",
		Sections: []Section{
			{Name: "cap", Written: 1000},
			{Name: "offset", Written: 176},
			{Name: "signed file #1", Written: 24},
		},
	}
	assert.Equal(t, int64(1200), report.Size())
	assert.True(t, report.Complete())
	assert.NoError(t, report.Err())
	assert.Contains(t, report.String(), "Autoloader.exe (1.2 kB)")

	report.Sections[2].Err = errors.New("simulated error")
	assert.False(t, report.Complete())
	assert.EqualError(t, report.Err(), "signed file #1: simulated error")
	assert.Contains(t, report.String(), "simulated error")

	report.Sections[2].Err = nil
	report.Finalized = errors.New("close image: simulated error")
	assert.EqualError(t, report.Err(), "close image: simulated error")
}
