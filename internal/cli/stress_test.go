package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/traitwatch/traitwatch/internal/logging"
)

func TestStress_CleanRun(t *testing.T) {
	report := Stress(20, logging.NewNop())

	assert.Equal(t, 20, report.Cycles)
	assert.NoError(t, report.WriterErr)
	assert.Positive(t, report.Writes)
}
