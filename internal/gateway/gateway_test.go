package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/realtime"
	"couple-journal-backend/internal/store"
	"couple-journal-backend/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	mu     sync.Mutex
	events []realtime.Event
	err    error
}

func (p *stubPublisher) Publish(_ context.Context, e realtime.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *stubPublisher) last() realtime.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[len(p.events)-1]
}

func (p *stubPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fixture struct {
	mem   *testutil.Mem
	pub   *stubPublisher
	gw    *Gateway
	alice identity.Identity
	bob   identity.Identity
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mem := testutil.NewMem()
	a, b := mem.AddCouple("alice", "bob")
	pub := &stubPublisher{}
	f := &fixture{
		mem:   mem,
		pub:   pub,
		gw:    New(mem.Store(), pub),
		alice: identity.Identity{Self: a, Partner: b},
		bob:   identity.Identity{Self: b, Partner: a},
		now:   time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC),
	}
	seq := 0
	f.gw.newID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}
	f.gw.now = func() time.Time { return f.now }
	return f
}

func single(p *models.Profile) identity.Identity {
	return identity.Identity{Self: p}
}

func TestCreatePost(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	post, err := f.gw.CreatePost(context.Background(), f.alice, PostInput{Content: "first light", Mood: models.MoodCalm})
	require.NoError(t, err)
	assert.Equal(t, "alice", post.OwnerID)
	assert.Equal(t, f.now, post.CreatedAt)
	assert.Equal(t, 1, f.mem.Posts.Len())

	e := f.pub.last()
	assert.Equal(t, models.CollectionPosts, e.Collection)
	assert.Equal(t, realtime.OpInsert, e.Op)
	assert.Equal(t, post.ID, e.RowID)
	assert.Equal(t, "alice", e.OwnerID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, e.VisibleTo)
}

func TestCreatePost_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   PostInput
		code string
	}{
		{"blank content", PostInput{Content: "  \n\t", Mood: models.MoodHappy}, models.CodeValidation},
		{"unknown mood", PostInput{Content: "hi", Mood: "meh"}, models.CodeValidation},
		{"someone else's owner id", PostInput{OwnerID: "bob", Content: "hi", Mood: models.MoodHappy}, models.CodeOwnershipViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)

			_, err := f.gw.CreatePost(context.Background(), f.alice, tt.in)
			assert.True(t, models.HasCode(err, tt.code), "got %v", err)
			assert.Equal(t, 0, f.mem.Posts.Len())
			assert.Equal(t, 0, f.pub.count())
		})
	}
}

func TestCreatePost_PublishFailureIsNotReturned(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.pub.err = errors.New("redis down")

	_, err := f.gw.CreatePost(context.Background(), f.alice, PostInput{Content: "still saved", Mood: models.MoodHappy})
	require.NoError(t, err)
	assert.Equal(t, 1, f.mem.Posts.Len())
}

func TestUpdatePost(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.gw.CreatePost(ctx, f.alice, PostInput{Content: "draft", Mood: models.MoodHappy})
	require.NoError(t, err)

	in := PostInput{Content: "final", Mood: models.MoodLoved}
	_, err = f.gw.UpdatePost(ctx, f.alice, post.ID, in)
	require.NoError(t, err)
	_, err = f.gw.UpdatePost(ctx, f.alice, post.ID, in)
	require.NoError(t, err, "updates are idempotent")

	stored, err := f.mem.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", stored.Content)
	assert.Equal(t, models.MoodLoved, stored.Mood)

	_, err = f.gw.UpdatePost(ctx, f.bob, post.ID, in)
	assert.True(t, models.HasCode(err, models.CodeNotFound), "partner cannot edit")

	_, err = f.gw.UpdatePost(ctx, f.alice, "missing", in)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestUpdatePost_FrozenAfterReaction(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.gw.CreatePost(ctx, f.alice, PostInput{Content: "look", Mood: models.MoodExcited})
	require.NoError(t, err)
	_, err = f.gw.ToggleReaction(ctx, f.bob, post.ID, models.ReactionHug)
	require.NoError(t, err)

	_, err = f.gw.UpdatePost(ctx, f.alice, post.ID, PostInput{Content: "changed", Mood: models.MoodExcited})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = f.gw.UpdatePost(ctx, f.alice, post.ID, PostInput{Content: "look", Mood: models.MoodCalm})
	assert.True(t, models.HasCode(err, models.CodeValidation), "mood is frozen too")

	stored, err := f.mem.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "look", stored.Content)
	assert.Equal(t, models.MoodExcited, stored.Mood)

	require.NoError(t, f.gw.DeletePost(ctx, f.alice, post.ID))
	assert.Equal(t, 0, f.mem.Reactions.Len(), "reactions go with the post")
}

func TestDeletePost(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.gw.CreatePost(ctx, f.alice, PostInput{Content: "mine", Mood: models.MoodHappy})
	require.NoError(t, err)

	err = f.gw.DeletePost(ctx, f.bob, post.ID)
	assert.True(t, models.HasCode(err, models.CodeOwnershipViolation))
	assert.Equal(t, 1, f.mem.Posts.Len())

	err = f.gw.DeletePost(ctx, f.alice, "nope")
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	require.NoError(t, f.gw.DeletePost(ctx, f.alice, post.ID))
	assert.Equal(t, 0, f.mem.Posts.Len())
	assert.Equal(t, realtime.OpDelete, f.pub.last().Op)
}

func TestToggleReaction_OnOffOn(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.gw.CreatePost(ctx, f.alice, PostInput{Content: "sunset", Mood: models.MoodGrateful})
	require.NoError(t, err)

	r, err := f.gw.ToggleReaction(ctx, f.bob, post.ID, models.ReactionLove)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 1, f.mem.Reactions.Len())

	r, err = f.gw.ToggleReaction(ctx, f.bob, post.ID, models.ReactionLove)
	require.NoError(t, err)
	assert.Nil(t, r)
	assert.Equal(t, 0, f.mem.Reactions.Len())

	r, err = f.gw.ToggleReaction(ctx, f.bob, post.ID, models.ReactionLove)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, 1, f.mem.Reactions.Len())
}

func TestToggleReaction_OtherKindUpdatesInPlace(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.gw.CreatePost(ctx, f.alice, PostInput{Content: "coffee", Mood: models.MoodHappy})
	require.NoError(t, err)

	first, err := f.gw.ToggleReaction(ctx, f.bob, post.ID, models.ReactionLove)
	require.NoError(t, err)
	second, err := f.gw.ToggleReaction(ctx, f.bob, post.ID, models.ReactionSmile)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, models.ReactionSmile, second.Kind)
	require.Equal(t, 1, f.mem.Reactions.Len())
	assert.Equal(t, models.ReactionSmile, f.mem.Reactions.All()[0].Kind)
}

// lateReactions misses the first lookup while a rival toggle lands in between
type lateReactions struct {
	store.ReactionTable
	once  sync.Once
	rival *models.Reaction
}

func (r *lateReactions) FindByPostAndOwner(ctx context.Context, postID, ownerID string) (*models.Reaction, error) {
	missed := false
	var err error
	r.once.Do(func() {
		missed = true
		err = r.ReactionTable.Insert(ctx, r.rival)
	})
	if missed {
		return nil, err
	}
	return r.ReactionTable.FindByPostAndOwner(ctx, postID, ownerID)
}

func TestToggleReaction_ConcurrentInsertTogglesAgainstWinner(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	post, err := f.gw.CreatePost(ctx, f.alice, PostInput{Content: "rain", Mood: models.MoodCalm})
	require.NoError(t, err)

	st := f.mem.Store()
	st.Reactions = &lateReactions{
		ReactionTable: f.mem.Reactions,
		rival:         &models.Reaction{ID: "rival", PostID: post.ID, OwnerID: "bob", Kind: models.ReactionLove, CreatedAt: f.now},
	}
	f.gw.store = st

	r, err := f.gw.ToggleReaction(ctx, f.bob, post.ID, models.ReactionSmile)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "rival", r.ID)

	all := f.mem.Reactions.All()
	require.Len(t, all, 1)
	assert.Equal(t, models.ReactionSmile, all[0].Kind)
}

func TestToggleReaction_Errors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	stranger := single(f.mem.AddProfile("carol", "Carol"))

	post, err := f.gw.CreatePost(ctx, f.alice, PostInput{Content: "private", Mood: models.MoodHappy})
	require.NoError(t, err)

	_, err = f.gw.ToggleReaction(ctx, stranger, post.ID, models.ReactionHug)
	assert.True(t, models.HasCode(err, models.CodeNotFound), "post outside the pair is invisible")

	_, err = f.gw.ToggleReaction(ctx, f.bob, post.ID, "wave")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = f.gw.ToggleReaction(ctx, f.bob, "missing", models.ReactionHug)
	assert.True(t, models.HasCode(err, models.CodeNotFound))
	assert.Equal(t, 0, f.mem.Reactions.Len())
}

func TestSaveDiary_UpsertsPerDay(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	day := time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC)

	var first *models.DiaryEntry
	for i := 1; i <= 4; i++ {
		f.now = f.now.Add(time.Minute)
		entry, err := f.gw.SaveDiary(ctx, f.alice, day.Add(time.Duration(i)*time.Hour), fmt.Sprintf("take %d", i), models.MoodTired)
		require.NoError(t, err)
		if first == nil {
			first = entry
		}
		assert.Equal(t, first.ID, entry.ID)
	}

	all := f.mem.Diary.All()
	require.Len(t, all, 1)
	assert.Equal(t, "take 4", all[0].Content)
	assert.Equal(t, day, all[0].Date)
	assert.True(t, all[0].UpdatedAt.After(all[0].CreatedAt))

	_, err := f.gw.SaveDiary(ctx, f.bob, day, "my side", models.MoodCalm)
	require.NoError(t, err)
	assert.Equal(t, 2, f.mem.Diary.Len(), "entries are per owner")
}

func TestSaveDiary_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.gw.SaveDiary(context.Background(), f.alice, f.now, " ", models.MoodCalm)
	assert.True(t, models.HasCode(err, models.CodeValidation))
	_, err = f.gw.SaveDiary(context.Background(), f.alice, f.now, "ok", "bored")
	assert.True(t, models.HasCode(err, models.CodeValidation))
	assert.Equal(t, 0, f.mem.Diary.Len())
}

// lateDiary misses the first lookup while a rival save lands in between
type lateDiary struct {
	store.DiaryTable
	once  sync.Once
	rival *models.DiaryEntry
}

func (d *lateDiary) FindByOwnerAndDate(ctx context.Context, ownerID string, date time.Time) (*models.DiaryEntry, error) {
	missed := false
	var err error
	d.once.Do(func() {
		missed = true
		err = d.DiaryTable.Insert(ctx, d.rival)
	})
	if missed {
		return nil, err
	}
	return d.DiaryTable.FindByOwnerAndDate(ctx, ownerID, date)
}

func TestSaveDiary_ConcurrentFirstSaveUpdates(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	day := time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC)

	st := f.mem.Store()
	st.Diary = &lateDiary{
		DiaryTable: f.mem.Diary,
		rival:      &models.DiaryEntry{ID: "rival", OwnerID: "alice", Date: day, Content: "other tab", Mood: models.MoodCalm},
	}
	f.gw.store = st

	entry, err := f.gw.SaveDiary(ctx, f.alice, day, "this tab", models.MoodHappy)
	require.NoError(t, err)
	assert.Equal(t, "rival", entry.ID)

	all := f.mem.Diary.All()
	require.Len(t, all, 1)
	assert.Equal(t, "this tab", all[0].Content)
	assert.Equal(t, models.MoodHappy, all[0].Mood)
	assert.Equal(t, realtime.OpUpdate, f.pub.last().Op)
}

func TestDeleteDiary(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	entry, err := f.gw.SaveDiary(ctx, f.alice, f.now, "dear diary", models.MoodSad)
	require.NoError(t, err)

	assert.True(t, models.HasCode(f.gw.DeleteDiary(ctx, f.bob, entry.ID), models.CodeOwnershipViolation))
	require.NoError(t, f.gw.DeleteDiary(ctx, f.alice, entry.ID))
	assert.True(t, models.HasCode(f.gw.DeleteDiary(ctx, f.alice, entry.ID), models.CodeNotFound))
}

func TestLeaveQuote_Ownership(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.gw.LeaveQuote(ctx, f.alice, QuoteInput{Text: "you are my sunshine"})
	require.NoError(t, err)
	assert.Equal(t, "bob", q.OwnerID, "a quote belongs to its recipient")
	assert.False(t, q.IsRead)

	_, err = f.gw.LeaveQuote(ctx, f.alice, QuoteInput{RecipientID: "alice", Text: "self love"})
	assert.True(t, models.HasCode(err, models.CodeOwnershipViolation))

	loner := single(f.mem.AddProfile("dave", "Dave"))
	_, err = f.gw.LeaveQuote(ctx, loner, QuoteInput{Text: "hello?"})
	assert.True(t, models.HasCode(err, models.CodeOwnershipViolation))

	_, err = f.gw.LeaveQuote(ctx, f.alice, QuoteInput{Text: "   "})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	assert.Equal(t, 1, f.mem.Quotes.Len())
}

func TestQuote_UpdateByAuthorDeleteByRecipient(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.gw.LeaveQuote(ctx, f.alice, QuoteInput{Text: "draft"})
	require.NoError(t, err)

	_, err = f.gw.UpdateQuote(ctx, f.bob, q.ID, "edited by recipient")
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	updated, err := f.gw.UpdateQuote(ctx, f.alice, q.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)

	assert.True(t, models.HasCode(f.gw.DeleteQuote(ctx, f.alice, q.ID), models.CodeOwnershipViolation), "author cannot delete")
	assert.Equal(t, 1, f.mem.Quotes.Len())
	require.NoError(t, f.gw.DeleteQuote(ctx, f.bob, q.ID))
	assert.Equal(t, 0, f.mem.Quotes.Len())
	assert.Equal(t, realtime.OpDelete, f.pub.last().Op)
}

func TestMarkQuotesRead(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	q1, err := f.gw.LeaveQuote(ctx, f.alice, QuoteInput{Text: "one"})
	require.NoError(t, err)
	q2, err := f.gw.LeaveQuote(ctx, f.alice, QuoteInput{Text: "two"})
	require.NoError(t, err)
	mine, err := f.gw.LeaveQuote(ctx, f.bob, QuoteInput{Text: "for alice"})
	require.NoError(t, err)
	before := f.pub.count()

	n, err := f.gw.MarkQuotesRead(ctx, f.alice, []string{mine.ID, q1.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the caller's own quotes can be marked")

	n, err = f.gw.MarkQuotesRead(ctx, f.bob, []string{q1.ID, q2.ID, "ghost"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, before+2, f.pub.count(), "one event per batch")

	n, err = f.gw.MarkQuotesRead(ctx, f.bob, []string{q1.ID, q2.ID})
	require.NoError(t, err)
	assert.Equal(t, 0, n, "already read")
	assert.Equal(t, before+2, f.pub.count())
}

func TestPlaylist(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gw.AddPlaylistItem(ctx, f.alice, PlaylistInput{Title: "", URL: "https://example.com/song"})
	assert.True(t, models.HasCode(err, models.CodeValidation))
	_, err = f.gw.AddPlaylistItem(ctx, f.alice, PlaylistInput{Title: "Song", URL: " "})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	item, err := f.gw.AddPlaylistItem(ctx, f.alice, PlaylistInput{Title: "Song", URL: "https://example.com/song"})
	require.NoError(t, err)

	_, err = f.gw.UpdatePlaylistItem(ctx, f.bob, item.ID, PlaylistInput{Title: "Mine now", URL: item.URL})
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	updated, err := f.gw.UpdatePlaylistItem(ctx, f.alice, item.ID, PlaylistInput{Title: "Our song", URL: item.URL})
	require.NoError(t, err)
	assert.Equal(t, "Our song", updated.Title)

	require.NoError(t, f.gw.DeletePlaylistItem(ctx, f.alice, item.ID))
	assert.Equal(t, 0, f.mem.Playlist.Len())
}

func TestDeletePhoto_OtherOwnerIsRejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	photo, err := f.gw.AddPhoto(ctx, f.alice, PhotoInput{URL: "https://cdn.example.com/alice/1.jpg"})
	require.NoError(t, err)
	before := f.pub.count()

	err = f.gw.DeletePhoto(ctx, f.bob, photo.ID)
	assert.True(t, models.HasCode(err, models.CodeOwnershipViolation))
	assert.Equal(t, 1, f.mem.Photos.Len(), "no row is touched")
	assert.Equal(t, before, f.pub.count())
}

func TestAddPhoto_KeepsReservedID(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	caption := "beach"
	reserved := "5b0c7f4e-6d1a-4f43-9a57-2f3c1f0d8e11"

	photo, err := f.gw.AddPhoto(context.Background(), f.alice, PhotoInput{ID: reserved, URL: "https://cdn/x.jpg", Caption: &caption})
	require.NoError(t, err)
	assert.Equal(t, reserved, photo.ID)

	_, err = f.gw.AddPhoto(context.Background(), f.alice, PhotoInput{URL: ""})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	updated, err := f.gw.UpdatePhoto(context.Background(), f.alice, reserved, PhotoInput{URL: "https://cdn/y.jpg"})
	require.NoError(t, err)
	assert.Nil(t, updated.Caption)
}

func TestAddPhoto_ReservedIDCollisions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	reserved := "9f1e2d3c-4b5a-4968-8776-a5b4c3d2e1f0"

	original, err := f.gw.AddPhoto(ctx, f.alice, PhotoInput{ID: reserved, URL: "https://cdn/alice.jpg"})
	require.NoError(t, err)
	before := f.pub.count()

	_, err = f.gw.AddPhoto(ctx, f.alice, PhotoInput{ID: "not-a-uuid", URL: "https://cdn/x.jpg"})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = f.gw.AddPhoto(ctx, f.bob, PhotoInput{ID: reserved, URL: "https://cdn/bob.jpg"})
	assert.True(t, models.HasCode(err, models.CodeOwnershipViolation))

	_, err = f.gw.AddPhoto(ctx, f.alice, PhotoInput{ID: reserved, URL: "https://cdn/again.jpg"})
	assert.True(t, models.HasCode(err, models.CodeConflict))

	stored, err := f.mem.Photos.GetByID(ctx, reserved)
	require.NoError(t, err)
	assert.Equal(t, original.URL, stored.URL)
	assert.Equal(t, "alice", stored.OwnerID)
	assert.Equal(t, 1, f.mem.Photos.Len())
	assert.Equal(t, before, f.pub.count(), "rejected inserts publish nothing")
}

func TestChat(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gw.SendMessage(ctx, f.alice, "\t")
	assert.True(t, models.HasCode(err, models.CodeValidation))

	m1, err := f.gw.SendMessage(ctx, f.alice, "hi")
	require.NoError(t, err)
	m2, err := f.gw.SendMessage(ctx, f.bob, "hey")
	require.NoError(t, err)

	n, err := f.gw.MarkMessagesRead(ctx, f.alice, []string{m1.ID, m2.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the partner's messages are marked")

	stored, err := f.mem.Chat.GetByID(ctx, m1.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsRead)
	stored, err = f.mem.Chat.GetByID(ctx, m2.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsRead)
	assert.Equal(t, "bob", f.pub.last().OwnerID)

	assert.True(t, models.HasCode(f.gw.DeleteMessage(ctx, f.bob, m1.ID), models.CodeOwnershipViolation))
	require.NoError(t, f.gw.DeleteMessage(ctx, f.alice, m1.ID))
}
