package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoreErrorIsMatchesKind(t *testing.T) {
	wrapped := Wrap(ErrIndexLoad, "retrieval.bm25.Load", errors.New("file missing"))
	assert.True(t, errors.Is(wrapped, ErrIndexLoad))
	assert.False(t, errors.Is(wrapped, ErrEmbedding))
	assert.Contains(t, wrapped.Error(), "retrieval.bm25.Load")
	assert.Contains(t, wrapped.Error(), "file missing")
}

func TestCoreErrorWithoutDetail(t *testing.T) {
	wrapped := Wrap(ErrDeadline, "orchestrator.ProcessQuestion", nil)
	assert.Equal(t, "orchestrator.ProcessQuestion: deadline exceeded", wrapped.Error())
}
