package stats

import (
	"testing"

	"couple-journal-backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPartitionUnread_Chat(t *testing.T) {
	t.Parallel()

	msgs := []*models.ChatMessage{
		{ID: "1", SenderID: "a", IsRead: false},
		{ID: "2", SenderID: "b", IsRead: false},
		{ID: "3", SenderID: "a", IsRead: true},
		{ID: "4", SenderID: "a", IsRead: false},
	}

	unread, rest := PartitionUnread(msgs, "b", SenderOwned)
	assert.Equal(t, []string{"1", "4"}, IDs(unread))
	assert.Equal(t, []string{"2", "3"}, IDs(rest))
}

func TestPartitionUnread_Quotes(t *testing.T) {
	t.Parallel()

	quotes := []*models.Quote{
		{ID: "q1", OwnerID: "a"},
		{ID: "q2", OwnerID: "b"},
		{ID: "q3", OwnerID: "a", IsRead: true},
	}

	unread, rest := PartitionUnread(quotes, "a", RecipientOwned)
	assert.Equal(t, []string{"q1"}, IDs(unread))
	assert.Equal(t, []string{"q2", "q3"}, IDs(rest))
}

func TestPartitionUnread_CoversInputExactlyOnce(t *testing.T) {
	t.Parallel()

	var msgs []*models.ChatMessage
	for i, sender := range []string{"a", "b", "a", "a", "b", "b", "a"} {
		msgs = append(msgs, &models.ChatMessage{ID: string(rune('a' + i)), SenderID: sender, IsRead: i%3 == 0})
	}

	unread, rest := PartitionUnread(msgs, "a", SenderOwned)
	assert.Len(t, append(unread, rest...), len(msgs))

	seen := map[string]int{}
	for _, id := range append(IDs(unread), IDs(rest)...) {
		seen[id]++
	}
	for _, m := range msgs {
		assert.Equal(t, 1, seen[m.ID], "id %s", m.ID)
	}
}

func TestPartitionUnread_Empty(t *testing.T) {
	t.Parallel()

	unread, rest := PartitionUnread([]*models.Quote{}, "a", RecipientOwned)
	assert.Empty(t, unread)
	assert.Empty(t, rest)
}

func TestReactionCounts(t *testing.T) {
	t.Parallel()

	reactions := []*models.Reaction{
		{ID: "r1", PostID: "p1", Kind: models.ReactionLove},
		{ID: "r2", PostID: "p1", Kind: models.ReactionSmile},
		{ID: "r3", PostID: "p2", Kind: models.ReactionLove},
	}
	assert.Equal(t, map[models.ReactionKind]int{
		models.ReactionLove:  1,
		models.ReactionHug:   0,
		models.ReactionSmile: 1,
	}, ReactionCounts(reactions, "p1"))
}
