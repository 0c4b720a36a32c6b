package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHasCode_ThroughWrapping(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("failed to delete photo: %w", NewOwnershipError("not yours"))
	assert.True(t, HasCode(err, CodeOwnershipViolation))
	assert.False(t, HasCode(err, CodeNotFound))
	assert.Equal(t, CodeOwnershipViolation, CodeOf(err))
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("plain")))
}

func TestAppError_MessageIncludesCause(t *testing.T) {
	t.Parallel()

	err := NewTransientFetchError(CollectionPosts, fmt.Errorf("connection reset"))
	assert.Equal(t, "failed to fetch posts: connection reset", err.Error())
	assert.Equal(t, "post with ID 42 not found", NewNotFoundError("post", 42).Error())
}

func TestDay_TruncatesToUTCDate(t *testing.T) {
	t.Parallel()

	day, err := ParseDay("2026-02-14")
	assert.NoError(t, err)
	assert.Equal(t, day, Day(day.Add(23*time.Hour)))
	assert.True(t, MoodCalm.Valid())
	assert.False(t, Mood("meh").Valid())
}
