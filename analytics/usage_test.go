package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitTogglesReporting(t *testing.T) {
	Init(true)
	assert.False(t, enableMetrics)

	Init(false)
	assert.True(t, enableMetrics)
}

func TestReportEventWithoutKeyIsNoop(t *testing.T) {
	Init(false)
	PublicKey = ""
	// Must not panic or attempt network I/O.
	ReportEvent(BuildCommand)
}
