package sms

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogSender_EscribeCodigo(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(zerolog.New(&buf))
	require.NoError(t, s.SendCode(context.Background(), "13900000001", "5521"))
	assert.Contains(t, buf.String(), `"code":"5521"`)
	assert.Contains(t, buf.String(), `"component":"sms"`)
}
