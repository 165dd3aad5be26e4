package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/investify-billing/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryKeys struct {
	mu   sync.Mutex
	rows map[string]*entity.IdempotencyKey
}

func (m *memoryKeys) GetByKey(_ context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[key+userID.String()], nil
}

func (m *memoryKeys) Create(_ context.Context, k *entity.IdempotencyKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[k.Key+k.UserID.String()] = k
	return nil
}

func (m *memoryKeys) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	return 0, nil
}

type idempotencyRig struct {
	router *gin.Engine
	calls  int
	status int
	now    time.Time
}

func newIdempotencyRig(t *testing.T) *idempotencyRig {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rig := &idempotencyRig{status: http.StatusCreated, now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	userID := uuid.New()
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set("user_id", userID) })
	r.Use(Idempotency(IdempotencyConfig{
		Repo:     &memoryKeys{rows: map[string]*entity.IdempotencyKey{}},
		Required: true,
		Now:      func() time.Time { return rig.now },
	}))
	r.POST("/payments", func(c *gin.Context) {
		rig.calls++
		c.JSON(rig.status, gin.H{"call": rig.calls})
	})
	rig.router = r
	return rig
}

func (rig *idempotencyRig) post(key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	rig.router.ServeHTTP(w, req)
	return w
}

func TestIdempotency_RequiresKey(t *testing.T) {
	rig := newIdempotencyRig(t)

	w := rig.post("", `{"amount":10}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, rig.calls)
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	rig := newIdempotencyRig(t)

	first := rig.post("k-1", `{"amount":10}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := rig.post("k-1", `{"amount":10}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, "true", second.Header().Get(IdempotentReplayHeader))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, rig.calls)
}

func TestIdempotency_RejectsReuseWithDifferentBody(t *testing.T) {
	rig := newIdempotencyRig(t)

	rig.post("k-1", `{"amount":10}`)
	w := rig.post("k-1", `{"amount":99}`)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 1, rig.calls)
}

func TestIdempotency_FailuresAreNotStored(t *testing.T) {
	rig := newIdempotencyRig(t)
	rig.status = http.StatusBadGateway

	rig.post("k-1", `{"amount":10}`)
	rig.status = http.StatusCreated
	w := rig.post("k-1", `{"amount":10}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(IdempotentReplayHeader))
	assert.Equal(t, 2, rig.calls)
}

func TestIdempotency_ExpiredKeyRunsAgain(t *testing.T) {
	rig := newIdempotencyRig(t)

	rig.post("k-1", `{"amount":10}`)
	rig.now = rig.now.Add(IdempotencyKeyTTL + time.Minute)
	w := rig.post("k-1", `{"amount":10}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 2, rig.calls)
}
