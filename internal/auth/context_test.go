package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestProfileID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, uuid.Nil, GetProfileID(ctx))
	assert.False(t, IsAuthenticated(ctx))

	id := uuid.New()
	ctx = SetProfileID(ctx, id)
	assert.Equal(t, id, GetProfileID(ctx))
	assert.True(t, IsAuthenticated(ctx))

	r := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	assert.True(t, IsAuthenticatedRequest(r))
}
