package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCodeAndCause(t *testing.T) {
	base := stderrors.New("boom")
	err := Wrap(LoadError("sales.csv", base), "upload failed")

	assert.Equal(t, CodeLoadError, GetCode(err))
	assert.True(t, stderrors.Is(err, base))
	assert.Contains(t, err.Error(), "upload failed")
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	err := Wrapf(stderrors.New("disk"), "reading %s", "x")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestWithCode(t *testing.T) {
	base := stderrors.New("missing")
	err := WithCode(CodeNotFound, base)

	assert.True(t, IsAppError(err))
	assert.Equal(t, CodeNotFound, GetCode(err))
	assert.True(t, stderrors.Is(err, base))
	assert.Equal(t, "UNKNOWN", GetCode(base))
}

func TestConstructorCodes(t *testing.T) {
	cause := stderrors.New("locked")
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"database", DatabaseError("failed to record llm usage", cause), CodeDatabaseError},
		{"internal", InternalError("config cannot be nil"), CodeInternalError},
		{"not found", NotFound("sample"), CodeNotFound},
		{"narrative", NarrativeServiceError(cause), CodeNarrativeService},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, GetCode(tt.err))
			assert.Equal(t, tt.code, GetCode(Wrapf(tt.err, "while %s", "testing")))
		})
	}
	assert.True(t, stderrors.Is(DatabaseError("x", cause), cause))
}
