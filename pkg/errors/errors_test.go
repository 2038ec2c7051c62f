package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, MetadataFor(CodeNotFound).HTTPStatus)
	assert.Equal(t, http.StatusUnprocessableEntity, MetadataFor(CodeStateConflict).HTTPStatus)
	assert.Equal(t, http.StatusBadRequest, MetadataFor(CodeMissingConfig).HTTPStatus)
	assert.Equal(t, http.StatusBadGateway, MetadataFor(CodeUpstream).HTTPStatus)
	assert.True(t, MetadataFor(CodeUpstream).Retryable)
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("BOGUS"))
	assert.Equal(t, http.StatusInternalServerError, meta.HTTPStatus)
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("socket closed")
	err := Wrap(CodeUpstream, cause, "initiate transfer")

	require.NotNil(t, err)
	assert.Equal(t, CodeUpstream, err.Code())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "UPSTREAM_FAILURE: initiate transfer", err.Error())
}

func TestAsUnwrapsNestedTypedError(t *testing.T) {
	typed := New(CodeStateConflict, "payout is not pending")
	wrapped := fmt.Errorf("processing payout: %w", typed)

	found := As(wrapped)
	require.NotNil(t, found)
	assert.Equal(t, CodeStateConflict, found.Code())
	assert.True(t, HasCode(wrapped, CodeStateConflict))
	assert.False(t, HasCode(wrapped, CodeNotFound))
}

func TestDumpCollectsChain(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(CodeDependency, cause, "redis unavailable")

	dump := Dump(err)
	assert.Equal(t, CodeDependency, dump.Code)
	assert.Len(t, dump.Chain, 2)
}
