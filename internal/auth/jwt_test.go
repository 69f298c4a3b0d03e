package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey    = "test-signing-key"
	testIssuer = "staffledger-test"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := Issue("s1", RoleStaff, testIssuer, testKey, time.Minute)
	require.NoError(t, err)

	claims, err := Parse(tok.AccessToken, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, "s1", claims.StaffID)
	assert.True(t, claims.CanActFor("s1"))
	assert.False(t, claims.CanActFor("s2"))
	assert.False(t, claims.IsAdmin())

	_, err = Parse(tok.AccessToken, "other-key", testIssuer)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = Parse(tok.AccessToken, testKey, "someone-else")
	require.ErrorIs(t, err, ErrIssuerMismatch)
}

func TestIssue_Rules(t *testing.T) {
	_, err := Issue("", RoleStaff, testIssuer, testKey, time.Minute)
	require.Error(t, err)

	_, err = Issue("s1", "device", testIssuer, testKey, time.Minute)
	require.ErrorIs(t, err, ErrUnknownRole)

	admin, err := Issue("", RoleAdmin, testIssuer, testKey, time.Minute)
	require.NoError(t, err)
	claims, err := Parse(admin.AccessToken, testKey, testIssuer)
	require.NoError(t, err)
	assert.True(t, claims.CanActFor("anyone"))
}

func TestParse_Expired(t *testing.T) {
	tok, err := Issue("s1", RoleStaff, testIssuer, testKey, -time.Minute)
	require.NoError(t, err)
	_, err = Parse(tok.AccessToken, testKey, testIssuer)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestBearerAndRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", Bearer(testKey, testIssuer), func(c *gin.Context) {
		c.String(http.StatusOK, Subject(c))
	})
	r.GET("/admin", Bearer(testKey, testIssuer), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	staff, err := Issue("s1", RoleStaff, testIssuer, testKey, time.Minute)
	require.NoError(t, err)
	admin, err := Issue("", RoleAdmin, testIssuer, testKey, time.Minute)
	require.NoError(t, err)

	do := func(path, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusUnauthorized, do("/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do("/me", "garbage").Code)

	w := do("/me", staff.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "staff:s1", w.Body.String())

	assert.Equal(t, http.StatusForbidden, do("/admin", staff.AccessToken).Code)
	assert.Equal(t, http.StatusNoContent, do("/admin", admin.AccessToken).Code)
}
