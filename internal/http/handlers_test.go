package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/petitions/internal/auth"
	"github.com/sujalbistaa/petitions/internal/db"
	"github.com/sujalbistaa/petitions/internal/models"
	"github.com/sujalbistaa/petitions/internal/petition"
	"github.com/sujalbistaa/petitions/internal/store"
	"github.com/sujalbistaa/petitions/internal/ws"
)

const (
	owner     uint = 1
	supporter uint = 2
	stranger  uint = 3
)

type testServer struct {
	router *gin.Engine
	store  *store.Store
	tokens *auth.Tokens
}

func newTestServer(t *testing.T, limiter *IPRateLimiter) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn, err := db.Open("sqlite://:memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := conn.DB(); err == nil {
			sqlDB.Close()
		}
	})
	s := store.New(conn)
	require.NoError(t, s.Migrate())
	require.NoError(t, s.SeedCategories(context.Background(), []string{"Wildlife", "Education"}))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := ws.NewHub()
	go hub.Run(ctx)

	if limiter == nil {
		limiter = NewIPRateLimiter(rate.Inf, 1)
	}
	env := &Env{
		Store:    s,
		Hub:      hub,
		Tokens:   auth.NewTokens("test-secret", time.Hour),
		Log:      zap.NewNop(),
		PageSize: 10,
	}
	router := gin.New()
	SetupRoutes(ctx, router, env, Options{CORSOrigin: "*", Limiter: limiter})
	return &testServer{router: router, store: s, tokens: env.Tokens}
}

func (ts *testServer) token(t *testing.T, userID uint) string {
	t.Helper()
	raw, err := ts.tokens.Issue(userID)
	require.NoError(t, err)
	return raw
}

func (ts *testServer) do(t *testing.T, method, path string, body any, userID uint) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(authHeader, ts.token(t, userID))
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func tierBodies(costs ...int) []gin.H {
	tiers := make([]gin.H, 0, len(costs))
	for i, cost := range costs {
		tiers = append(tiers, gin.H{"title": fmt.Sprintf("Tier %d", i+1), "description": "pledge", "cost": cost})
	}
	return tiers
}

func (ts *testServer) createPetition(t *testing.T, title string, userID uint, costs ...int) uint {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/v1/petitions", gin.H{
		"title":        title,
		"description":  "about " + title,
		"categoryId":   1,
		"supportTiers": tierBodies(costs...),
	}, userID)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		PetitionID uint `json:"petitionId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotZero(t, resp.PetitionID)
	return resp.PetitionID
}

func (ts *testServer) tiers(t *testing.T, petitionID uint) []models.SupportTier {
	t.Helper()
	tiers, err := ts.store.FindSupportTiersByPetition(context.Background(), petitionID)
	require.NoError(t, err)
	return tiers
}

func (ts *testServer) support(t *testing.T, petitionID, tierID, userID uint) *httptest.ResponseRecorder {
	t.Helper()
	return ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/petitions/%d/supporters", petitionID),
		gin.H{"supportTierId": tierID, "message": "count me in"}, userID)
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) petition.Page {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page petition.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	return page
}

func titles(page petition.Page) []string {
	out := make([]string, 0, len(page.Petitions))
	for _, p := range page.Petitions {
		out = append(out, p.Title)
	}
	return out
}

func TestListPetitions_Empty(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/api/v1/petitions", nil, 0)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"petitions":[],"count":0}`, w.Body.String())
}

func TestListPetitions_SortFilterPaginate(t *testing.T) {
	ts := newTestServer(t, nil)
	cheap := ts.createPetition(t, "Plant trees", owner, 5, 50)
	dear := ts.createPetition(t, "Build a library", owner, 100)
	ts.createPetition(t, "Clean the beach", stranger, 1)

	require.Equal(t, http.StatusCreated, ts.support(t, cheap, ts.tiers(t, cheap)[0].ID, supporter).Code)
	require.Equal(t, http.StatusCreated, ts.support(t, dear, ts.tiers(t, dear)[0].ID, supporter).Code)

	page := decodePage(t, ts.do(t, http.MethodGet, "/api/v1/petitions?sortBy=COST_DESC", nil, 0))
	assert.Equal(t, 3, page.Count)
	assert.Equal(t, []string{"Build a library", "Plant trees", "Clean the beach"}, titles(page))
	assert.Equal(t, 100, page.Petitions[0].SupportingCost)
	assert.Equal(t, 5, page.Petitions[1].SupportingCost)

	page = decodePage(t, ts.do(t, http.MethodGet, "/api/v1/petitions?sortBy=ALPHABETICAL_ASC&startIndex=1&count=1", nil, 0))
	assert.Equal(t, 3, page.Count)
	assert.Equal(t, []string{"Clean the beach"}, titles(page))

	page = decodePage(t, ts.do(t, http.MethodGet, "/api/v1/petitions?q=BEACH", nil, 0))
	assert.Equal(t, []string{"Clean the beach"}, titles(page))

	page = decodePage(t, ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/petitions?ownerId=%d&supporterId=%d", owner, supporter), nil, 0))
	assert.Equal(t, []string{"Plant trees", "Build a library"}, titles(page))

	page = decodePage(t, ts.do(t, http.MethodGet, "/api/v1/petitions?supportingCost=10&sortBy=ALPHABETICAL_DESC", nil, 0))
	assert.Equal(t, []string{"Plant trees", "Clean the beach"}, titles(page))

	page = decodePage(t, ts.do(t, http.MethodGet, "/api/v1/petitions?categoryIds=2", nil, 0))
	assert.Equal(t, 0, page.Count)
	assert.Empty(t, page.Petitions)
}

func TestListPetitions_RejectsBadQuery(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, query := range []string{
		"sortBy=POPULAR",
		"startIndex=-1",
		"count=abc",
		"q=",
		"supportingCost=-5",
		"ownerId=x",
		"categoryIds=1&categoryIds=two",
	} {
		w := ts.do(t, http.MethodGet, "/api/v1/petitions?"+query, nil, 0)
		assert.Equal(t, http.StatusBadRequest, w.Code, query)
	}
}

func TestGetPetition(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createPetition(t, "Protect bees", owner, 10, 20)
	tiers := ts.tiers(t, id)
	require.Equal(t, http.StatusCreated, ts.support(t, id, tiers[1].ID, supporter).Code)
	require.Equal(t, http.StatusCreated, ts.support(t, id, tiers[1].ID, stranger).Code)

	w := ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/petitions/%d", id), nil, 0)
	require.Equal(t, http.StatusOK, w.Code)

	var detail PetitionDetail
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(t, id, detail.PetitionID)
	assert.Equal(t, owner, detail.OwnerID)
	assert.Equal(t, 20, detail.MoneyRaised)
	assert.Equal(t, 2, detail.NumberOfSupporters)
	assert.Len(t, detail.SupportTiers, 2)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/v1/petitions/999", nil, 0).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodGet, "/api/v1/petitions/abc", nil, 0).Code)
}

func TestCreatePetition_Validation(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.createPetition(t, "Existing", owner, 1)

	body := func(title string, category int, tiers []gin.H) gin.H {
		return gin.H{"title": title, "description": "d", "categoryId": category, "supportTiers": tiers}
	}
	dupTiers := []gin.H{
		{"title": "Same", "description": "d", "cost": 1},
		{"title": "Same", "description": "d", "cost": 2},
	}
	longTitle := string(bytes.Repeat([]byte("x"), 81))

	cases := []struct {
		name   string
		body   gin.H
		userID uint
		status int
	}{
		{"no token", body("New", 1, tierBodies(1)), 0, http.StatusUnauthorized},
		{"no tiers", body("New", 1, []gin.H{}), owner, http.StatusBadRequest},
		{"four tiers", body("New", 1, tierBodies(1, 2, 3, 4)), owner, http.StatusBadRequest},
		{"negative cost", body("New", 1, tierBodies(-1)), owner, http.StatusBadRequest},
		{"duplicate tier titles", body("New", 1, dupTiers), owner, http.StatusBadRequest},
		{"title too long", body(longTitle, 1, tierBodies(1)), owner, http.StatusBadRequest},
		{"unknown category", body("New", 42, tierBodies(1)), owner, http.StatusBadRequest},
		{"title taken", body("Existing", 1, tierBodies(1)), stranger, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/v1/petitions", tc.body, tc.userID)
			assert.Equal(t, tc.status, w.Code, w.Body.String())
		})
	}
}

func TestAuthMiddleware_RejectsBadToken(t *testing.T) {
	ts := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/petitions", bytes.NewReader([]byte(`{}`)))
	req.Header.Set(authHeader, "not-a-token")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Unauthorized"}`, w.Body.String())
}

func TestEditPetition(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createPetition(t, "Old name", owner, 1)
	ts.createPetition(t, "Taken name", owner, 1)
	path := fmt.Sprintf("/api/v1/petitions/%d", id)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPatch, path, gin.H{"title": "Hijack"}, stranger).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPatch, "/api/v1/petitions/999", gin.H{"title": "x"}, owner).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPatch, path, gin.H{"title": ""}, owner).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPatch, path, gin.H{"description": ""}, owner).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPatch, path, gin.H{"title": "Taken name"}, owner).Code)

	w := ts.do(t, http.MethodPatch, path, gin.H{"title": "New name", "categoryId": 2}, owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"title":"New name","description":"about Old name","categoryId":2}`, w.Body.String())
}

func TestDeletePetition(t *testing.T) {
	ts := newTestServer(t, nil)
	free := ts.createPetition(t, "Unbacked", owner, 1)
	backed := ts.createPetition(t, "Backed", owner, 1)
	require.Equal(t, http.StatusCreated, ts.support(t, backed, ts.tiers(t, backed)[0].ID, supporter).Code)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/petitions/%d", free), nil, stranger).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/petitions/%d", backed), nil, owner).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/petitions/%d", free), nil, owner).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/petitions/%d", free), nil, 0).Code)
}

func TestSupportTiers(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createPetition(t, "Tiered", owner, 10)
	other := ts.createPetition(t, "Other", owner, 10)
	base := fmt.Sprintf("/api/v1/petitions/%d/supportTiers", id)

	tier := gin.H{"title": "Gold", "description": "shiny", "cost": 50}
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPut, base, tier, stranger).Code)
	w := ts.do(t, http.MethodPut, base, tier, owner)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.SupportTier
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Gold", created.Title)
	assert.Equal(t, 50, created.Cost)

	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPut, base, tier, owner).Code, "duplicate title")
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPut, base, gin.H{"title": "Neg", "description": "d", "cost": -1}, owner).Code)
	require.Equal(t, http.StatusCreated, ts.do(t, http.MethodPut, base, gin.H{"title": "Silver", "description": "d", "cost": 20}, owner).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPut, base, gin.H{"title": "Bronze", "description": "d", "cost": 5}, owner).Code, "tier limit")

	tierPath := fmt.Sprintf("%s/%d", base, created.ID)
	w = ts.do(t, http.MethodPatch, tierPath, gin.H{"cost": 75}, owner)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"cost":75`)

	otherTier := ts.tiers(t, other)[0].ID
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPatch, fmt.Sprintf("%s/%d", base, otherTier), gin.H{"cost": 1}, owner).Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, tierPath, nil, owner).Code)
	assert.Equal(t, http.StatusForbidden,
		ts.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/petitions/%d/supportTiers/%d", other, otherTier), nil, owner).Code,
		"last tier")
}

func TestSupporters(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.createPetition(t, "Supported", owner, 10, 20)
	tiers := ts.tiers(t, id)

	assert.Equal(t, http.StatusForbidden, ts.support(t, id, tiers[0].ID, owner).Code, "owner")
	assert.Equal(t, http.StatusUnauthorized, ts.support(t, id, tiers[0].ID, 0).Code)
	assert.Equal(t, http.StatusNotFound, ts.support(t, 999, tiers[0].ID, supporter).Code)
	assert.Equal(t, http.StatusNotFound, ts.support(t, id, 999, supporter).Code)

	w := ts.support(t, id, tiers[0].ID, supporter)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, http.StatusForbidden, ts.support(t, id, tiers[1].ID, supporter).Code, "already supporting")

	// Tiers with supporters are frozen.
	tierPath := fmt.Sprintf("/api/v1/petitions/%d/supportTiers/%d", id, tiers[0].ID)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodPatch, tierPath, gin.H{"cost": 1}, owner).Code)
	assert.Equal(t, http.StatusForbidden, ts.do(t, http.MethodDelete, tierPath, nil, owner).Code)

	w = ts.do(t, http.MethodGet, fmt.Sprintf("/api/v1/petitions/%d/supporters", id), nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	var supporters []models.Supporter
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &supporters))
	require.Len(t, supporters, 1)
	assert.Equal(t, supporter, supporters[0].UserID)
	require.NotNil(t, supporters[0].Message)
	assert.Equal(t, "count me in", *supporters[0].Message)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/api/v1/petitions/999/supporters", nil, 0).Code)
}

func TestAddSupporter_RateLimited(t *testing.T) {
	ts := newTestServer(t, NewIPRateLimiter(rate.Every(time.Hour), 1))
	first := ts.createPetition(t, "First", owner, 1)
	second := ts.createPetition(t, "Second", owner, 1)

	require.Equal(t, http.StatusCreated, ts.support(t, first, ts.tiers(t, first)[0].ID, supporter).Code)
	assert.Equal(t, http.StatusTooManyRequests, ts.support(t, second, ts.tiers(t, second)[0].ID, stranger).Code)
}

func TestGetCategories(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/api/v1/petitions/categories", nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"categoryId":1,"name":"Wildlife"},{"categoryId":2,"name":"Education"}]`, w.Body.String())
}

func TestHealthzAndMetrics(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/healthz", nil, 0)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	ts.do(t, http.MethodGet, "/api/v1/petitions?sortBy=COST_ASC", nil, 0)
	w = ts.do(t, http.MethodGet, "/metrics", nil, 0)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "petitions_listing_requests_total")
}
