package controller

import (
	"net/http"
	"testing"

	"github.com/dedilute/catalog-backend/entity"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsUpsertAndRead(t *testing.T) {
	env := newTestEnv(t, false)
	r := gin.New()
	r.GET("/api/settings", env.ctrl.GetSettings)
	r.POST("/api/settings", env.ctrl.UpsertSettings)

	rec := doJSON(r, http.MethodPost, "/api/settings", map[string]any{"settings": []map[string]string{
		{"key": "site_name", "value": "De Dilute"},
		{"key": "site_name", "value": "เดอ ไดลูท", "lang": "th"},
		{"value": "skipped"},
	}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[map[string]any](t, rec)
	assert.Len(t, saved["settings"], 2)

	rec = doJSON(r, http.MethodPost, "/api/settings", map[string]any{"settings": []map[string]string{
		{"key": "site_name", "value": "De Dilute Co.", "type": "html"},
	}})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(r, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	en := decode[map[string]entity.SettingValue](t, rec)
	assert.Equal(t, entity.SettingValue{Value: "De Dilute Co.", Type: "html", Lang: "en"}, en["site_name"])

	rec = doJSON(r, http.MethodGet, "/api/settings?lang=th", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	th := decode[map[string]entity.SettingValue](t, rec)
	assert.Equal(t, "text", th["site_name"].Type)

	rec = doJSON(r, http.MethodPost, "/api/settings", map[string]any{"settings": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
