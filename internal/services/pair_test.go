package services

import (
	"context"
	"testing"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPairNotifier struct {
	linked   [][2]string
	unlinked [][2]string
}

func (n *stubPairNotifier) NotifyPairLinked(aID, bID string) {
	n.linked = append(n.linked, [2]string{aID, bID})
}

func (n *stubPairNotifier) NotifyPairUnlinked(aID, bID string) {
	n.unlinked = append(n.unlinked, [2]string{aID, bID})
}

func TestCreatePair(t *testing.T) {
	t.Parallel()

	mem := testutil.NewMem()
	a := mem.AddProfile("ann", "Ann")
	b := mem.AddProfile("ben", "Ben")
	notifier := &stubPairNotifier{}
	svc := NewPairService(mem.Profiles, notifier)
	ctx := context.Background()

	partner, err := svc.CreatePair(ctx, identity.Identity{Self: a}, " ben000 ")
	require.NoError(t, err)
	assert.Equal(t, b.ID, partner.ID)
	assert.Equal(t, [][2]string{{"ann", "ben"}}, notifier.linked)

	stored, err := mem.Profiles.GetByID(ctx, "ann")
	require.NoError(t, err)
	require.True(t, stored.HasPartner())
	assert.Equal(t, "ben", *stored.PartnerID)
}

func TestCreatePair_Rejections(t *testing.T) {
	t.Parallel()

	mem := testutil.NewMem()
	a := mem.AddProfile("ann", "Ann")
	c, d := mem.AddCouple("cat", "dan")
	svc := NewPairService(mem.Profiles, &stubPairNotifier{})
	ctx := context.Background()

	tests := []struct {
		name   string
		caller identity.Identity
		code   string
		want   string
	}{
		{"short code", identity.Identity{Self: a}, "ABC", models.CodeValidation},
		{"self", identity.Identity{Self: a}, "ANN000", models.CodeValidation},
		{"unknown code", identity.Identity{Self: a}, "ZZZZZZ", models.CodeNotFound},
		{"partner already linked", identity.Identity{Self: a}, "CAT000", models.CodeConflict},
		{"caller already linked", identity.Identity{Self: c, Partner: d}, "ANN000", models.CodeConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePair(ctx, tt.caller, tt.code)
			assert.True(t, models.HasCode(err, tt.want), "got %v", err)
		})
	}
}

func TestDeletePair(t *testing.T) {
	t.Parallel()

	mem := testutil.NewMem()
	a, b := mem.AddCouple("ann", "ben")
	notifier := &stubPairNotifier{}
	svc := NewPairService(mem.Profiles, notifier)
	ctx := context.Background()

	require.NoError(t, svc.DeletePair(ctx, identity.Identity{Self: a, Partner: b}))
	assert.Equal(t, [][2]string{{"ann", "ben"}}, notifier.unlinked)

	for _, id := range []string{"ann", "ben"} {
		p, err := mem.Profiles.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, p.HasPartner())
	}

	err := svc.DeletePair(ctx, identity.Identity{Self: a})
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}
