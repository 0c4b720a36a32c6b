package gateway

import (
	"context"
	"fmt"

	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/realtime"

	"github.com/google/uuid"
)

// PlaylistInput carries the writable fields of a shared song
type PlaylistInput struct {
	OwnerID string `json:"owner_id,omitempty"`
	Title   string `json:"title"`
	URL     string `json:"url"`
}

func (in PlaylistInput) validate() error {
	if err := requireText("title", in.Title); err != nil {
		return err
	}
	return requireText("url", in.URL)
}

// AddPlaylistItem adds a song to the caller's side of the playlist
func (g *Gateway) AddPlaylistItem(ctx context.Context, caller identity.Identity, in PlaylistInput) (*models.PlaylistItem, error) {
	const c = models.CollectionPlaylistItems

	if err := requireSelf(caller, in.OwnerID); err != nil {
		return nil, record(c, realtime.OpInsert, err)
	}
	if err := in.validate(); err != nil {
		return nil, record(c, realtime.OpInsert, err)
	}

	item := &models.PlaylistItem{
		ID:      g.newID(),
		OwnerID: caller.SelfID(),
		Title:   in.Title,
		URL:     in.URL,
		AddedAt: g.now(),
	}
	if err := g.store.Playlist.Insert(ctx, item); err != nil {
		return nil, record(c, realtime.OpInsert, fmt.Errorf("failed to add playlist item: %w", err))
	}

	g.publish(ctx, caller, c, realtime.OpInsert, item.ID, item.OwnerID)
	return item, record(c, realtime.OpInsert, nil)
}

// UpdatePlaylistItem rewrites one of the caller's songs
func (g *Gateway) UpdatePlaylistItem(ctx context.Context, caller identity.Identity, id string, in PlaylistInput) (*models.PlaylistItem, error) {
	const c = models.CollectionPlaylistItems

	if err := in.validate(); err != nil {
		return nil, record(c, realtime.OpUpdate, err)
	}
	item, err := loadWritable(ctx, g.store.Playlist, "playlist item", id, caller.SelfID())
	if err != nil {
		return nil, record(c, realtime.OpUpdate, err)
	}

	item.Title = in.Title
	item.URL = in.URL
	if err := g.store.Playlist.Update(ctx, item); err != nil {
		return nil, record(c, realtime.OpUpdate, fmt.Errorf("failed to update playlist item: %w", err))
	}

	g.publish(ctx, caller, c, realtime.OpUpdate, item.ID, item.OwnerID)
	return item, record(c, realtime.OpUpdate, nil)
}

// DeletePlaylistItem removes one of the caller's songs
func (g *Gateway) DeletePlaylistItem(ctx context.Context, caller identity.Identity, id string) error {
	return deleteOwned(ctx, g, caller, models.CollectionPlaylistItems, g.store.Playlist, "playlist item", id, caller.SelfID())
}

// PhotoInput carries the writable fields of a gallery photo. ID may be set by
// an upload that already reserved the storage key.
type PhotoInput struct {
	ID      string  `json:"id,omitempty"`
	OwnerID string  `json:"owner_id,omitempty"`
	URL     string  `json:"url"`
	Caption *string `json:"caption,omitempty"`
}

// AddPhoto adds a photo to the caller's gallery
func (g *Gateway) AddPhoto(ctx context.Context, caller identity.Identity, in PhotoInput) (*models.Photo, error) {
	const c = models.CollectionPhotos

	if err := requireSelf(caller, in.OwnerID); err != nil {
		return nil, record(c, realtime.OpInsert, err)
	}
	if err := requireText("url", in.URL); err != nil {
		return nil, record(c, realtime.OpInsert, err)
	}

	id := in.ID
	if id == "" {
		id = g.newID()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, record(c, realtime.OpInsert, models.NewValidationError("photo id must be a UUID"))
	}
	photo := &models.Photo{
		ID:         id,
		OwnerID:    caller.SelfID(),
		URL:        in.URL,
		Caption:    in.Caption,
		UploadedAt: g.now(),
	}
	if err := g.store.Photos.Insert(ctx, photo); err != nil {
		if models.HasCode(err, models.CodeConflict) {
			err = g.photoIDTaken(ctx, caller, id)
		}
		return nil, record(c, realtime.OpInsert, fmt.Errorf("failed to add photo: %w", err))
	}

	g.publish(ctx, caller, c, realtime.OpInsert, photo.ID, photo.OwnerID)
	return photo, record(c, realtime.OpInsert, nil)
}

// photoIDTaken explains why a client-chosen photo id could not be inserted
func (g *Gateway) photoIDTaken(ctx context.Context, caller identity.Identity, id string) error {
	existing, err := g.store.Photos.GetByID(ctx, id)
	if err == nil && existing.OwnerID != caller.SelfID() {
		return models.NewOwnershipError("photo id belongs to another user")
	}
	return models.NewConflictError(fmt.Sprintf("photo %s already exists", id))
}

// UpdatePhoto rewrites the url and caption of one of the caller's photos
func (g *Gateway) UpdatePhoto(ctx context.Context, caller identity.Identity, id string, in PhotoInput) (*models.Photo, error) {
	const c = models.CollectionPhotos

	if err := requireText("url", in.URL); err != nil {
		return nil, record(c, realtime.OpUpdate, err)
	}
	photo, err := loadWritable(ctx, g.store.Photos, "photo", id, caller.SelfID())
	if err != nil {
		return nil, record(c, realtime.OpUpdate, err)
	}

	photo.URL = in.URL
	photo.Caption = in.Caption
	if err := g.store.Photos.Update(ctx, photo); err != nil {
		return nil, record(c, realtime.OpUpdate, fmt.Errorf("failed to update photo: %w", err))
	}

	g.publish(ctx, caller, c, realtime.OpUpdate, photo.ID, photo.OwnerID)
	return photo, record(c, realtime.OpUpdate, nil)
}

// DeletePhoto removes one of the caller's photos
func (g *Gateway) DeletePhoto(ctx context.Context, caller identity.Identity, id string) error {
	return deleteOwned(ctx, g, caller, models.CollectionPhotos, g.store.Photos, "photo", id, caller.SelfID())
}
