package utils

import (
	"context"
	"testing"

	"printlab-be/internal/user"

	"github.com/stretchr/testify/assert"
)

func TestActorContextRoundTrip(t *testing.T) {
	actor := user.Actor{Username: "maria", Name: "Maria", Role: user.RoleSeller}

	ctx := SetActorContext(context.Background(), actor)
	got, ok := ActorFromContext(ctx)

	assert.True(t, ok)
	assert.Equal(t, actor, got)
}

func TestActorFromContext_Missing(t *testing.T) {
	_, ok := ActorFromContext(context.Background())
	assert.False(t, ok)
}
