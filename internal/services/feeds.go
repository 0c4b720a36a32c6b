package services

import (
	"context"
	"fmt"
	"time"

	"couple-journal-backend/internal/gateway"
	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/live"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/realtime"
	"couple-journal-backend/internal/scope"
	"couple-journal-backend/internal/stats"
	"couple-journal-backend/internal/store"

	"github.com/rs/zerolog/log"
)

// CollectionMemories is the watchable view of posts written on the memory day
const CollectionMemories = "memories"

// TimelineEntry is a post with its reactions as one viewer sees them
type TimelineEntry struct {
	*models.Post
	Reactions  map[models.ReactionKind]int `json:"reactions"`
	MyReaction *models.ReactionKind        `json:"my_reaction,omitempty"`
	When       string                      `json:"when"`
}

// MoodSummary is the mood histogram of a window
type MoodSummary struct {
	Total int               `json:"total"`
	Moods []stats.MoodCount `json:"moods"`
}

// QuoteBoard splits the quotes addressed to the viewer that are still unread from the rest
type QuoteBoard struct {
	Unread []*models.Quote `json:"unread"`
	Quotes []*models.Quote `json:"quotes"`
}

// ChatLog is the conversation in send order. Unread counts the partner's
// messages that were unread when it was loaded.
type ChatLog struct {
	Messages []*models.ChatMessage `json:"messages"`
	Unread   int                   `json:"unread"`
}

// WatchUpdate is one snapshot pushed to a watcher
type WatchUpdate struct {
	Collection string
	Version    uint64
	Data       interface{}
	Err        error
}

// FeedService serves the partner-scoped reads, both one-shot and live
type FeedService struct {
	store   *store.Store
	feed    realtime.Feed
	gateway *gateway.Gateway
	now     func() time.Time
}

// NewFeedService creates a new feed service
func NewFeedService(st *store.Store, feed realtime.Feed, gw *gateway.Gateway) *FeedService {
	return &FeedService{
		store:   st,
		feed:    feed,
		gateway: gw,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func owners(viewer identity.Identity, audience scope.Audience) scope.OwnerSet {
	return scope.BuildFilter(audience, viewer.Self, viewer.Partner)
}

// load runs a source once; a failed fetch surfaces as a transient fetch failure
func load[T models.Entity](ctx context.Context, src live.Source[T], set scope.OwnerSet) ([]T, error) {
	items, err := live.Load(ctx, src, set)
	if err != nil {
		return nil, models.NewTransientFetchError(src.Collection, err)
	}
	return items, nil
}

func (s *FeedService) timelineSource(viewer identity.Identity) live.Source[*TimelineEntry] {
	return live.Source[*TimelineEntry]{
		Collection: models.CollectionPosts,
		Order:      live.NewestFirst,
		Fetch: func(ctx context.Context, set scope.OwnerSet) ([]*TimelineEntry, error) {
			posts, err := s.store.Posts.ListByOwners(ctx, set)
			if err != nil {
				return nil, fmt.Errorf("failed to list posts: %w", err)
			}
			reactions, err := s.store.Reactions.ListByOwners(ctx, viewer.Members())
			if err != nil {
				return nil, fmt.Errorf("failed to list reactions: %w", err)
			}

			mine := make(map[string]models.ReactionKind)
			for _, r := range reactions {
				if r.OwnerID == viewer.SelfID() {
					mine[r.PostID] = r.Kind
				}
			}

			now := s.now()
			entries := make([]*TimelineEntry, 0, len(posts))
			for _, p := range posts {
				entry := &TimelineEntry{
					Post:      p,
					Reactions: stats.ReactionCounts(reactions, p.ID),
					When:      stats.BucketByRecency(p.CreatedAt, now),
				}
				if kind, ok := mine[p.ID]; ok {
					entry.MyReaction = &kind
				}
				entries = append(entries, entry)
			}
			return entries, nil
		},
	}
}

func (s *FeedService) memoriesSource(viewer identity.Identity) live.Source[*TimelineEntry] {
	timeline := s.timelineSource(viewer)
	return live.Source[*TimelineEntry]{
		Collection: models.CollectionPosts,
		Order:      live.NewestFirst,
		Fetch: func(ctx context.Context, set scope.OwnerSet) ([]*TimelineEntry, error) {
			entries, err := timeline.Fetch(ctx, set)
			if err != nil {
				return nil, err
			}
			return stats.MemoriesFrom(entries, s.now()), nil
		},
	}
}

func (s *FeedService) diarySource() live.Source[*models.DiaryEntry] {
	return live.TableSource[*models.DiaryEntry](models.CollectionDiaryEntries, s.store.Diary, live.NewestFirst)
}

func (s *FeedService) playlistSource() live.Source[*models.PlaylistItem] {
	return live.TableSource[*models.PlaylistItem](models.CollectionPlaylistItems, s.store.Playlist, live.NewestFirst)
}

func (s *FeedService) photoSource() live.Source[*models.Photo] {
	return live.TableSource[*models.Photo](models.CollectionPhotos, s.store.Photos, live.NewestFirst)
}

func (s *FeedService) quoteSource() live.Source[*models.Quote] {
	return live.TableSource[*models.Quote](models.CollectionQuotes, s.store.Quotes, live.NewestFirst)
}

func (s *FeedService) chatSource() live.Source[*models.ChatMessage] {
	return live.TableSource[*models.ChatMessage](models.CollectionChatMessages, s.store.Chat, live.OldestFirst)
}

// Timeline lists posts newest first with reaction counts
func (s *FeedService) Timeline(ctx context.Context, viewer identity.Identity, audience scope.Audience) ([]*TimelineEntry, error) {
	return load(ctx, s.timelineSource(viewer), owners(viewer, audience))
}

// Memories lists the posts written exactly 30 calendar days ago
func (s *FeedService) Memories(ctx context.Context, viewer identity.Identity, audience scope.Audience) ([]*TimelineEntry, error) {
	return load(ctx, s.memoriesSource(viewer), owners(viewer, audience))
}

// Diary lists diary entries newest day first
func (s *FeedService) Diary(ctx context.Context, viewer identity.Identity, audience scope.Audience) ([]*models.DiaryEntry, error) {
	return load(ctx, s.diarySource(), owners(viewer, audience))
}

// Playlist lists the shared songs newest first
func (s *FeedService) Playlist(ctx context.Context, viewer identity.Identity, audience scope.Audience) ([]*models.PlaylistItem, error) {
	return load(ctx, s.playlistSource(), owners(viewer, audience))
}

// Photos lists the gallery newest first
func (s *FeedService) Photos(ctx context.Context, viewer identity.Identity, audience scope.Audience) ([]*models.Photo, error) {
	return load(ctx, s.photoSource(), owners(viewer, audience))
}

// Moods summarizes post and diary moods of the last days days; zero means all time
func (s *FeedService) Moods(ctx context.Context, viewer identity.Identity, audience scope.Audience, days int) (*MoodSummary, error) {
	if days < 0 {
		return nil, models.NewValidationError("days must not be negative")
	}
	set := owners(viewer, audience)

	posts, err := load(ctx, live.TableSource[*models.Post](models.CollectionPosts, s.store.Posts, live.OldestFirst), set)
	if err != nil {
		return nil, err
	}
	entries, err := load(ctx, s.diarySource(), set)
	if err != nil {
		return nil, err
	}

	samples := stats.MoodSamples(posts, entries)
	var moods []models.Mood
	if days > 0 {
		now := s.now()
		moods = stats.MoodsWithin(samples, now.AddDate(0, 0, -days), now)
	} else {
		for _, sample := range samples {
			moods = append(moods, sample.Mood)
		}
	}

	return &MoodSummary{
		Total: len(moods),
		Moods: stats.MoodHistogram(moods),
	}, nil
}

// Quotes lists every quote of the pair, split into the viewer's unread ones and the rest
func (s *FeedService) Quotes(ctx context.Context, viewer identity.Identity) (*QuoteBoard, error) {
	quotes, err := load(ctx, s.quoteSource(), owners(viewer, scope.Both))
	if err != nil {
		return nil, err
	}
	unread, rest := stats.PartitionUnread(quotes, viewer.SelfID(), stats.RecipientOwned)
	return &QuoteBoard{Unread: unread, Quotes: rest}, nil
}

// Chat loads the conversation and marks the partner's unread messages as read.
// The returned log still shows them unread.
func (s *FeedService) Chat(ctx context.Context, viewer identity.Identity) (*ChatLog, error) {
	messages, err := load(ctx, s.chatSource(), owners(viewer, scope.Both))
	if err != nil {
		return nil, err
	}

	unread, _ := stats.PartitionUnread(messages, viewer.SelfID(), stats.SenderOwned)
	if len(unread) > 0 {
		if _, err := s.gateway.MarkMessagesRead(ctx, viewer, stats.IDs(unread)); err != nil {
			log.Error().Err(err).Str("user_id", viewer.SelfID()).Msg("Failed to mark chat messages read")
		}
	}

	return &ChatLog{Messages: messages, Unread: len(unread)}, nil
}

// Watch opens a live view of collection for viewer. emit receives every
// snapshot, the first one before Watch returns. Chat and quotes always cover
// the whole pair.
func (s *FeedService) Watch(ctx context.Context, viewer identity.Identity, collection string, audience scope.Audience, emit func(WatchUpdate)) (Watch, error) {
	set := owners(viewer, audience)
	pair := owners(viewer, scope.Both)

	switch models.Collection(collection) {
	case models.CollectionPosts:
		return openWatch(ctx, s, viewer, collection, s.timelineSource(viewer), set, emit), nil
	case CollectionMemories:
		return openWatch(ctx, s, viewer, collection, s.memoriesSource(viewer), set, emit), nil
	case models.CollectionDiaryEntries:
		return openWatch(ctx, s, viewer, collection, s.diarySource(), set, emit), nil
	case models.CollectionPlaylistItems:
		return openWatch(ctx, s, viewer, collection, s.playlistSource(), set, emit), nil
	case models.CollectionPhotos:
		return openWatch(ctx, s, viewer, collection, s.photoSource(), set, emit), nil
	case models.CollectionQuotes:
		return openWatch(ctx, s, viewer, collection, s.quoteSource(), pair, emit), nil
	case models.CollectionChatMessages:
		return openWatch(ctx, s, viewer, collection, s.chatSource(), pair, emit), nil
	default:
		return nil, models.NewValidationError(fmt.Sprintf("unknown collection %q", collection))
	}
}

func openWatch[T models.Entity](ctx context.Context, s *FeedService, viewer identity.Identity, name string, src live.Source[T], set scope.OwnerSet, emit func(WatchUpdate)) Watch {
	return live.Open(ctx, live.Options[T]{
		Source: src,
		Viewer: viewer.SelfID(),
		Owners: set,
		Feed:   s.feed,
		OnChange: func(snap live.Snapshot[T]) {
			emit(WatchUpdate{Collection: name, Version: snap.Version, Data: snap.Items, Err: snap.Err})
		},
	})
}
