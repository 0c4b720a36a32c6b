package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"couple-journal-backend/internal/cache"
	"couple-journal-backend/internal/config"
	"couple-journal-backend/internal/gateway"
	"couple-journal-backend/internal/identity"
	"couple-journal-backend/internal/middleware"
	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/realtime"
	"couple-journal-backend/internal/services"
	"couple-journal-backend/internal/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiFixture struct {
	mem    *testutil.Mem
	router chi.Router
	tokens map[string]string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	mem := testutil.NewMem()
	mem.AddCouple("a", "b")
	mem.AddProfile("c", "Single")

	st := mem.Store()
	broker := realtime.NewBroker()
	gw := gateway.New(st, broker)
	resolver := identity.NewResolver(st.Profiles)
	users := services.NewUserService(st, cache.NewRevocations(nil), "handler-secret", time.Hour)
	hub := services.NewWSHub()
	push, err := services.NewPushService(config.APNsConfig{}, hub)
	require.NoError(t, err)
	feeds := services.NewFeedService(st, broker, gw)

	userHandler := NewUserHandler(users, resolver)
	postHandler := NewPostHandler(gw, feeds, resolver)
	diaryHandler := NewDiaryHandler(gw, feeds, resolver)
	quoteHandler := NewQuoteHandler(gw, feeds, push, resolver)
	photoHandler := NewPhotoHandler(gw, feeds, nil, resolver)
	chatHandler := NewChatHandler(gw, feeds, push, resolver)
	pairHandler := NewPairHandler(services.NewPairService(st.Profiles, hub), resolver)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(users))
		r.Get("/me", userHandler.Me)
		r.Post("/pairs", pairHandler.CreatePair)
		r.Delete("/pairs", pairHandler.DeletePair)
		r.Get("/posts", postHandler.ListPosts)
		r.Post("/posts", postHandler.CreatePost)
		r.Put("/posts/{id}", postHandler.UpdatePost)
		r.Delete("/posts/{id}", postHandler.DeletePost)
		r.Post("/posts/{id}/reactions", postHandler.ToggleReaction)
		r.Get("/diary", diaryHandler.ListDiary)
		r.Put("/diary/{date}", diaryHandler.SaveDiary)
		r.Get("/moods", diaryHandler.Moods)
		r.Get("/quotes", quoteHandler.ListQuotes)
		r.Post("/quotes", quoteHandler.CreateQuote)
		r.Post("/quotes/read", quoteHandler.MarkRead)
		r.Get("/photos", photoHandler.ListPhotos)
		r.Post("/photos", photoHandler.AddPhoto)
		r.Delete("/photos/{id}", photoHandler.DeletePhoto)
		r.Get("/chat", chatHandler.ListMessages)
		r.Post("/chat", chatHandler.SendMessage)
	})

	tokens := make(map[string]string)
	for _, id := range []string{"a", "b", "c"} {
		token, err := users.GenerateJWT(id)
		require.NoError(t, err)
		tokens[id] = token
	}

	return &apiFixture{mem: mem, router: r, tokens: tokens}
}

// do sends a request as user and decodes the JSON response into out, when given
func (f *apiFixture) do(t *testing.T, user, method, path string, body, out interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+f.tokens[user])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	if out != nil && rec.Code < 300 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func errorCodeOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Code
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := map[string]int{
		models.CodeNotAuthenticated:   http.StatusUnauthorized,
		models.CodeProfileMissing:     http.StatusUnauthorized,
		models.CodeValidation:         http.StatusBadRequest,
		models.CodeOwnershipViolation: http.StatusForbidden,
		models.CodeNotFound:           http.StatusNotFound,
		models.CodeConflict:           http.StatusConflict,
		models.CodeTransientFetch:     http.StatusServiceUnavailable,
		models.CodeInternal:           http.StatusInternalServerError,
		"SOMETHING_ELSE":              http.StatusInternalServerError,
	}
	for code, status := range tests {
		assert.Equal(t, status, StatusFor(code), code)
	}
}

func TestRespondAppError_HidesInternalDetails(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	rec := httptest.NewRecorder()
	respondAppError(rec, req, fmt.Errorf("failed to query: %w", errors.New("connection refused to 10.0.0.3")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "10.0.0.3")
	assert.Equal(t, models.CodeInternal, errorCodeOf(t, rec))

	rec = httptest.NewRecorder()
	respondAppError(rec, req, fmt.Errorf("failed to update: %w", models.NewNotFoundError("post", "p1")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, models.CodeNotFound, errorCodeOf(t, rec))
}

func TestAPI_RequiresAuthentication(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	rec := f.do(t, "", http.MethodGet, "/api/v1/posts", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.CodeNotAuthenticated, errorCodeOf(t, rec))
}

func TestAPI_ProfileMissing(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	users := services.NewUserService(f.mem.Store(), cache.NewRevocations(nil), "handler-secret", time.Hour)
	token, err := users.GenerateJWT("ghost")
	require.NoError(t, err)
	f.tokens["ghost"] = token

	rec := f.do(t, "ghost", http.MethodGet, "/api/v1/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, models.CodeProfileMissing, errorCodeOf(t, rec))
}

func TestAPI_PostLifecycle(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	var post models.Post
	rec := f.do(t, "a", http.MethodPost, "/api/v1/posts", gateway.PostInput{Content: "sunset walk", Mood: models.MoodCalm}, &post)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "a", post.OwnerID)

	var theirs []services.TimelineEntry
	rec = f.do(t, "b", http.MethodGet, "/api/v1/posts?audience=theirs", nil, &theirs)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, theirs, 1)
	assert.Equal(t, post.ID, theirs[0].ID)

	var mine []services.TimelineEntry
	f.do(t, "b", http.MethodGet, "/api/v1/posts?audience=mine", nil, &mine)
	assert.Empty(t, mine)

	var reaction ReactionResponse
	rec = f.do(t, "b", http.MethodPost, "/api/v1/posts/"+post.ID+"/reactions", ReactionRequest{Kind: models.ReactionHug}, &reaction)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, reaction.Reaction)
	assert.Equal(t, models.ReactionHug, reaction.Reaction.Kind)

	rec = f.do(t, "b", http.MethodDelete, "/api/v1/posts/"+post.ID, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, models.CodeOwnershipViolation, errorCodeOf(t, rec))

	rec = f.do(t, "a", http.MethodDelete, "/api/v1/posts/"+post.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Zero(t, f.mem.Posts.Len())
	assert.Zero(t, f.mem.Reactions.Len())
}

func TestAPI_ValidationErrors(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
	}{
		{"bad audience", http.MethodGet, "/api/v1/posts?audience=everyone", nil},
		{"blank content", http.MethodPost, "/api/v1/posts", gateway.PostInput{Content: "  ", Mood: models.MoodHappy}},
		{"unknown mood", http.MethodPost, "/api/v1/posts", gateway.PostInput{Content: "hi", Mood: "meh"}},
		{"bad date", http.MethodPut, "/api/v1/diary/yesterday", DiaryRequest{Content: "x", Mood: models.MoodSad}},
		{"negative days", http.MethodGet, "/api/v1/moods?days=-3", nil},
		{"days not a number", http.MethodGet, "/api/v1/moods?days=week", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, "a", tt.method, tt.path, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, models.CodeValidation, errorCodeOf(t, rec))
		})
	}
}

func TestAPI_DiaryUpsertAndMoods(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	for _, content := range []string{"first draft", "second draft", "final"} {
		rec := f.do(t, "a", http.MethodPut, "/api/v1/diary/2026-03-01", DiaryRequest{Content: content, Mood: models.MoodGrateful}, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	var entries []models.DiaryEntry
	f.do(t, "a", http.MethodGet, "/api/v1/diary?audience=mine", nil, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, "final", entries[0].Content)

	var summary services.MoodSummary
	rec := f.do(t, "b", http.MethodGet, "/api/v1/moods?audience=theirs", nil, &summary)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, summary.Total)
	require.Len(t, summary.Moods, 1)
	assert.Equal(t, models.MoodGrateful, summary.Moods[0].Mood)
	assert.InDelta(t, 100, summary.Moods[0].Percentage, 0.001)
}

func TestAPI_QuotesFlow(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	var quote models.Quote
	rec := f.do(t, "a", http.MethodPost, "/api/v1/quotes", gateway.QuoteInput{Text: "you are my favourite"}, &quote)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "b", quote.OwnerID)

	rec = f.do(t, "c", http.MethodPost, "/api/v1/quotes", gateway.QuoteInput{Text: "anyone?"}, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var board services.QuoteBoard
	f.do(t, "b", http.MethodGet, "/api/v1/quotes", nil, &board)
	assert.Len(t, board.Unread, 1)

	var count CountResponse
	rec = f.do(t, "b", http.MethodPost, "/api/v1/quotes/read", IDsRequest{IDs: []string{quote.ID}}, &count)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, count.Count)

	f.do(t, "b", http.MethodGet, "/api/v1/quotes", nil, &board)
	assert.Empty(t, board.Unread)
}

func TestAPI_ChatMarksReadOnLoad(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	rec := f.do(t, "a", http.MethodPost, "/api/v1/chat", SendMessageRequest{Text: "dinner at 8?"}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var first services.ChatLog
	f.do(t, "b", http.MethodGet, "/api/v1/chat", nil, &first)
	require.Len(t, first.Messages, 1)
	assert.Equal(t, 1, first.Unread)

	var second services.ChatLog
	f.do(t, "b", http.MethodGet, "/api/v1/chat", nil, &second)
	require.Len(t, second.Messages, 1)
	assert.Zero(t, second.Unread)
	assert.True(t, second.Messages[0].IsRead)
}

func TestAPI_Photos(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	var photo models.Photo
	rec := f.do(t, "a", http.MethodPost, "/api/v1/photos", gateway.PhotoInput{URL: "https://cdn.example/a/p1.jpg"}, &photo)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var photos []models.Photo
	f.do(t, "b", http.MethodGet, "/api/v1/photos", nil, &photos)
	assert.Len(t, photos, 1)

	rec = f.do(t, "b", http.MethodDelete, "/api/v1/photos/"+photo.ID, nil, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = f.do(t, "a", http.MethodDelete, "/api/v1/photos/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Pairing(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t)

	rec := f.do(t, "c", http.MethodPost, "/api/v1/pairs", services.CreatePairRequest{PartnerCode: "A00000"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = f.do(t, "a", http.MethodDelete, "/api/v1/pairs", nil, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	var partner models.Profile
	rec = f.do(t, "c", http.MethodPost, "/api/v1/pairs", services.CreatePairRequest{PartnerCode: "a00000"}, &partner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "a", partner.ID)

	var posts []services.TimelineEntry
	f.do(t, "b", http.MethodGet, "/api/v1/posts?audience=theirs", nil, &posts)
	assert.Empty(t, posts)
}
