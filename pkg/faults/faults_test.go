package faults

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Format(t *testing.T) {
	err := Upstream("transcribe audio", errors.New("quota exceeded"))
	assert.Equal(t, "transcribe audio: quota exceeded", err.Error())
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := LocalIO("save audio", fmt.Errorf("write failed: %w", cause))
	assert.True(t, errors.Is(err, cause))

	var fe *Error
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, KindLocalIO, fe.Kind)
	assert.Equal(t, "save audio", fe.Op)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "upstream", err: Upstream("op", errors.New("boom")), want: KindUpstream},
		{name: "timeout", err: Timeout("op", errors.New("slow")), want: KindTimeout},
		{name: "parse", err: Parse("op", errors.New("bad json")), want: KindParse},
		{name: "local io", err: LocalIO("op", errors.New("denied")), want: KindLocalIO},
		{name: "wrapped", err: fmt.Errorf("pipeline: %w", Parse("op", errors.New("bad"))), want: KindParse},
		{name: "unknown defaults to upstream", err: errors.New("mystery"), want: KindUpstream},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestFromTransport(t *testing.T) {
	err := FromTransport("download file", context.DeadlineExceeded)
	assert.Equal(t, KindTimeout, Classify(err))

	err = FromTransport("download file", errors.New("connection refused"))
	assert.Equal(t, KindUpstream, Classify(err))
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "upstream", KindUpstream.String())
	assert.Equal(t, "timeout", KindTimeout.String())
	assert.Equal(t, "parse", KindParse.String())
	assert.Equal(t, "local_io", KindLocalIO.String())
}
