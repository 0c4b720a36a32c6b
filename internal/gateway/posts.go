package gateway

import (
	"context"
	"fmt"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/realtime"
)

// PostInput carries the writable fields of a timeline post
type PostInput struct {
	OwnerID   string      `json:"owner_id,omitempty"`
	Content   string      `json:"content"`
	Mood      models.Mood `json:"mood"`
	ImageURL  *string     `json:"image_url,omitempty"`
	SongLink  *string     `json:"song_link,omitempty"`
	IsMissYou bool        `json:"is_miss_you"`
}

func (in PostInput) validate() error {
	if err := requireText("content", in.Content); err != nil {
		return err
	}
	return requireMood(in.Mood)
}

// CreatePost adds a post to the caller's timeline
func (g *Gateway) CreatePost(ctx context.Context, caller identity.Identity, in PostInput) (*models.Post, error) {
	if err := requireSelf(caller, in.OwnerID); err != nil {
		return nil, record(models.CollectionPosts, realtime.OpInsert, err)
	}
	if err := in.validate(); err != nil {
		return nil, record(models.CollectionPosts, realtime.OpInsert, err)
	}

	post := &models.Post{
		ID:        g.newID(),
		OwnerID:   caller.SelfID(),
		Content:   in.Content,
		Mood:      in.Mood,
		ImageURL:  in.ImageURL,
		SongLink:  in.SongLink,
		IsMissYou: in.IsMissYou,
		CreatedAt: g.now(),
	}
	if err := g.store.Posts.Insert(ctx, post); err != nil {
		return nil, record(models.CollectionPosts, realtime.OpInsert, fmt.Errorf("failed to create post: %w", err))
	}

	g.publish(ctx, caller, models.CollectionPosts, realtime.OpInsert, post.ID, post.OwnerID)
	return post, record(models.CollectionPosts, realtime.OpInsert, nil)
}

// UpdatePost rewrites one of the caller's posts. A post with reactions is
// immutable; only its owner's delete still applies.
func (g *Gateway) UpdatePost(ctx context.Context, caller identity.Identity, id string, in PostInput) (*models.Post, error) {
	if err := in.validate(); err != nil {
		return nil, record(models.CollectionPosts, realtime.OpUpdate, err)
	}
	post, err := loadWritable(ctx, g.store.Posts, "post", id, caller.SelfID())
	if err != nil {
		return nil, record(models.CollectionPosts, realtime.OpUpdate, err)
	}

	reactions, err := g.store.Reactions.CountByPost(ctx, id)
	if err != nil {
		return nil, record(models.CollectionPosts, realtime.OpUpdate, fmt.Errorf("failed to count reactions: %w", err))
	}
	if reactions > 0 {
		return nil, record(models.CollectionPosts, realtime.OpUpdate,
			models.NewValidationError("a post cannot be edited after it received reactions"))
	}

	post.Content = in.Content
	post.Mood = in.Mood
	post.ImageURL = in.ImageURL
	post.SongLink = in.SongLink
	post.IsMissYou = in.IsMissYou
	if err := g.store.Posts.Update(ctx, post); err != nil {
		return nil, record(models.CollectionPosts, realtime.OpUpdate, fmt.Errorf("failed to update post: %w", err))
	}

	g.publish(ctx, caller, models.CollectionPosts, realtime.OpUpdate, post.ID, post.OwnerID)
	return post, record(models.CollectionPosts, realtime.OpUpdate, nil)
}

// DeletePost removes one of the caller's posts and its reactions
func (g *Gateway) DeletePost(ctx context.Context, caller identity.Identity, id string) error {
	post, err := loadDeletable(ctx, g.store.Posts, "post", id, caller.SelfID())
	if err != nil {
		return record(models.CollectionPosts, realtime.OpDelete, err)
	}
	if err := g.store.Reactions.DeleteByPost(ctx, id); err != nil {
		return record(models.CollectionPosts, realtime.OpDelete, fmt.Errorf("failed to delete reactions: %w", err))
	}
	if err := g.store.Posts.Delete(ctx, id); err != nil {
		return record(models.CollectionPosts, realtime.OpDelete, fmt.Errorf("failed to delete post: %w", err))
	}

	g.publish(ctx, caller, models.CollectionPosts, realtime.OpDelete, id, post.OwnerID)
	return record(models.CollectionPosts, realtime.OpDelete, nil)
}

// ToggleReaction flips the caller's reaction on a visible post: no reaction
// creates one, the same kind removes it and another kind replaces it in place.
// It returns the reaction now in place, or nil when it was removed.
func (g *Gateway) ToggleReaction(ctx context.Context, caller identity.Identity, postID string, kind models.ReactionKind) (*models.Reaction, error) {
	const c = models.CollectionReactions

	if !kind.Valid() {
		return nil, record(c, realtime.OpInsert, models.NewValidationError(fmt.Sprintf("unknown reaction kind %q", kind)))
	}
	post, err := g.store.Posts.GetByID(ctx, postID)
	if err != nil {
		return nil, record(c, realtime.OpInsert, err)
	}
	if post.OwnerID != caller.SelfID() && post.OwnerID != caller.PartnerID() {
		return nil, record(c, realtime.OpInsert, models.NewNotFoundError("post", postID))
	}

	var (
		op     realtime.Op
		result *models.Reaction
		rowID  string
	)
	// Losing a race to insert the caller's reaction toggles against the winner.
	for attempt := 0; attempt < 2; attempt++ {
		op, result, rowID, err = g.toggleReaction(ctx, caller, postID, kind)
		if !(op == realtime.OpInsert && models.HasCode(err, models.CodeConflict)) {
			break
		}
	}
	if err != nil {
		return nil, record(c, op, err)
	}

	g.publish(ctx, caller, c, op, rowID, caller.SelfID())
	// The post's reaction counts changed, so timeline watchers refetch too.
	g.publish(ctx, caller, models.CollectionPosts, realtime.OpUpdate, post.ID, post.OwnerID)
	return result, record(c, op, nil)
}

func (g *Gateway) toggleReaction(ctx context.Context, caller identity.Identity, postID string, kind models.ReactionKind) (realtime.Op, *models.Reaction, string, error) {
	existing, err := g.store.Reactions.FindByPostAndOwner(ctx, postID, caller.SelfID())
	if err != nil {
		return realtime.OpInsert, nil, "", fmt.Errorf("failed to look up reaction: %w", err)
	}

	var (
		op     realtime.Op
		result *models.Reaction
		rowID  string
	)
	switch {
	case existing == nil:
		op = realtime.OpInsert
		result = &models.Reaction{
			ID:        g.newID(),
			PostID:    postID,
			OwnerID:   caller.SelfID(),
			Kind:      kind,
			CreatedAt: g.now(),
		}
		rowID = result.ID
		err = g.store.Reactions.Insert(ctx, result)
	case existing.Kind == kind:
		op = realtime.OpDelete
		rowID = existing.ID
		err = g.store.Reactions.Delete(ctx, existing.ID)
	default:
		op = realtime.OpUpdate
		existing.Kind = kind
		result = existing
		rowID = existing.ID
		err = g.store.Reactions.Update(ctx, existing)
	}
	if err != nil {
		return op, nil, "", fmt.Errorf("failed to toggle reaction: %w", err)
	}
	return op, result, rowID, nil
}
