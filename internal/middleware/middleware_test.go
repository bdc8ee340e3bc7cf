package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gwd-records-api/internal/authz"
	"github.com/noah-isme/gwd-records-api/internal/models"
	appErrors "github.com/noah-isme/gwd-records-api/pkg/errors"
	"github.com/noah-isme/gwd-records-api/pkg/middleware/requestid"
)

type validatorStub struct {
	tokens map[string]*models.JWTClaims
}

func (v validatorStub) ValidateToken(_ context.Context, token string) (*models.JWTClaims, error) {
	if claims, ok := v.tokens[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newRouter(t *testing.T, handlers ...gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"uid": CurrentUser(c).UserID})
	})
	r.GET("/sites/:id", handlers...)
	r.POST("/sites/:id", handlers...)
	return r
}

func TestJWTAcceptsBearerAndStreamToken(t *testing.T) {
	v := validatorStub{tokens: map[string]*models.JWTClaims{"good": {UserID: "sup-1", Role: models.RoleSupervisor}}}
	r := newRouter(t, JWT(v))

	cases := []struct {
		name   string
		method string
		target string
		header string
		status int
	}{
		{"bearer", http.MethodGet, "/sites/1", "Bearer good", http.StatusOK},
		{"query on get", http.MethodGet, "/sites/1?access_token=good", "", http.StatusOK},
		{"query on post", http.MethodPost, "/sites/1?access_token=good", "", http.StatusUnauthorized},
		{"missing", http.MethodGet, "/sites/1", "", http.StatusUnauthorized},
		{"malformed", http.MethodGet, "/sites/1", "Token good", http.StatusUnauthorized},
		{"invalid", http.MethodGet, "/sites/1", "Bearer bad", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestAuthorizeUsesRolePolicies(t *testing.T) {
	access, err := authz.NewService(nil, nil)
	require.NoError(t, err)
	v := validatorStub{tokens: map[string]*models.JWTClaims{
		"editor": {UserID: "e-1", Role: models.RoleEditor},
		"viewer": {UserID: "v-1", Role: models.RoleViewer},
	}}
	r := newRouter(t, JWT(v), Authorize(access, authz.ObjectSites, authz.ActionAssign))

	for token, status := range map[string]int{"editor": http.StatusOK, "viewer": http.StatusForbidden} {
		req := httptest.NewRequest(http.MethodGet, "/sites/1", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, status, rec.Code, token)
	}
}

type auditRecorder struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (a *auditRecorder) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.logs = append(a.logs, log)
	return nil
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	recorder := &auditRecorder{}
	v := validatorStub{tokens: map[string]*models.JWTClaims{"good": {UserID: "v-1", Role: models.RoleViewer}}}
	r := newRouter(t, Audit(recorder, nil, models.AuditActionExportDownload, "exports", "id"), JWT(v))

	req := httptest.NewRequest(http.MethodGet, "/sites/abc", nil)
	req.Header.Set("Authorization", "Bearer good")
	r.ServeHTTP(httptest.NewRecorder(), req)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sites/abc", nil))

	require.Len(t, recorder.logs, 1)
	assert.Equal(t, "v-1", *recorder.logs[0].UserID)
	assert.Equal(t, "abc", *recorder.logs[0].ResourceID)
	assert.Equal(t, models.AuditActionExportDownload, recorder.logs[0].Action)
}

type observerStub struct {
	paths []string
}

func (o *observerStub) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	o.paths = append(o.paths, method+" "+path)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &observerStub{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/files/:fileNo", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/files/GWD-1", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, []string{"GET /files/:fileNo", "GET unmatched"}, observer.paths)
}

func TestResponseMetaCarriesCacheHitAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(requestid.Middleware())
	var meta map[string]interface{}
	r.GET("/dashboard", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set(requestid.HeaderKey, "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, true, meta["cache_hit"])
	assert.Equal(t, "req-42", meta["request_id"])
}
