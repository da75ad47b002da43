package controller

import (
	"strings"

	"github.com/dedilute/catalog-backend/entity"
	"github.com/dedilute/catalog-backend/http/controller/dto"
	"github.com/dedilute/catalog-backend/service"
	"github.com/dedilute/catalog-backend/utils"
	"github.com/gin-gonic/gin"
)

func (ctrl *Controller) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()
	lang := strings.TrimSpace(c.DefaultQuery("lang", "en"))

	settings, err := ctrl.Repository.SettingRepo.ListByLang(ctx, lang)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Settings] Failed to list settings for lang %s", lang)
		utils.JSON500(c, "Failed to fetch settings")
		return
	}

	out := make(map[string]entity.SettingValue, len(settings))
	for _, s := range settings {
		out[s.Key] = entity.SettingValue{Value: s.Value, Type: s.Type, Lang: s.Lang}
	}
	utils.JSON200(c, out)
}

func (ctrl *Controller) UpsertSettings(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.UpsertSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request format")
		return
	}

	updated := make([]entity.Setting, 0, len(req.Settings))
	for _, in := range req.Settings {
		key := strings.TrimSpace(in.Key)
		if key == "" {
			continue
		}
		setting := entity.Setting{Key: key, Value: in.Value, Type: in.Type, Lang: in.Lang}
		if setting.Type == "" {
			setting.Type = "text"
		}
		if setting.Lang == "" {
			setting.Lang = "en"
		}
		if err := ctrl.Repository.SettingRepo.Upsert(ctx, &setting); err != nil {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Settings] Failed to save %s/%s", setting.Key, setting.Lang)
			utils.JSON500(c, "Failed to save settings")
			return
		}
		updated = append(updated, setting)
	}

	if be := ctrl.Cache.Invalidate(ctx, service.SettingsPublicCachePrefix); be != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Settings] %v", be)
	}
	utils.JSON200(c, gin.H{"message": "Settings updated successfully", "settings": updated})
}
