package controller

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/dedilute/catalog-backend/config"
	"github.com/dedilute/catalog-backend/entity"
	"github.com/dedilute/catalog-backend/http/controller/dto"
	"github.com/dedilute/catalog-backend/service"
	"github.com/dedilute/catalog-backend/utils"
	"github.com/gin-gonic/gin"
)

// multipartOverhead covers form fields and part headers on top of file bytes
const multipartOverhead int64 = 1 << 20

func (ctrl *Controller) UploadMedia(c *gin.Context) {
	ctx := c.Request.Context()
	storage := ctrl.Config.EnvConfig.Storage

	maxFileSize := storage.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = config.DefaultMaxFileSize
	}
	maxFiles := storage.MaxFiles
	if maxFiles <= 0 {
		maxFiles = config.DefaultMaxFiles
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxFileSize*int64(maxFiles)+multipartOverhead)
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Media] Upload body exceeds %d bytes", tooLarge.Limit)
			utils.JSON413(c, "File too large")
			return
		}
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Media] Invalid multipart form: %v", err)
		utils.JSON400(c, "Invalid multipart form")
		return
	}

	headers := form.File["files"]
	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxFileSize {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Media] File '%s' is %d bytes, limit is %d", fh.Filename, fh.Size, maxFileSize)
			utils.JSON413(c, "File too large")
			return
		}
		files = append(files, uploadFile(fh))
	}

	entityType := strings.TrimSpace(c.PostForm("entity_type"))
	entityID, _ := strconv.ParseInt(strings.TrimSpace(c.PostForm("entity_id")), 10, 64)

	created, err := ctrl.Media.Upload(ctx, service.UploadRequest{
		EntityType: entityType,
		EntityID:   entityID,
		Purpose:    entity.Purpose(strings.TrimSpace(c.PostForm("purpose"))),
		Replace:    strings.EqualFold(strings.TrimSpace(c.PostForm("replace")), "true"),
		Files:      files,
	})
	if err != nil {
		if len(created) > 0 {
			ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Media] Upload stopped after %d file(s)", len(created))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.PartialUploadResponse{
				Error:    "Upload failed after some files were stored",
				Uploaded: created,
			})
			return
		}
		ctrl.respondMediaError(c, err, entityType)
		return
	}

	utils.JSON201(c, created)
}

func (ctrl *Controller) ListMedia(c *gin.Context) {
	entityID, _ := strconv.ParseInt(c.Query("entity_id"), 10, 64)
	assets, err := ctrl.Media.List(c.Request.Context(), c.Query("entity_type"), entityID, entity.Purpose(c.Query("purpose")))
	if err != nil {
		ctrl.respondMediaError(c, err, c.Query("entity_type"))
		return
	}
	utils.JSON200(c, assets)
}

func (ctrl *Controller) DeleteMedia(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)

	deletedID, err := ctrl.Media.Delete(c.Request.Context(), id)
	if err != nil {
		ctrl.respondMediaError(c, err, "")
		return
	}

	utils.JSON200(c, dto.MessageIDResponse{Message: "Media deleted", ID: deletedID})
}

func (ctrl *Controller) DeleteMediaByEntity(c *gin.Context) {
	var req dto.DeleteByEntityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "Invalid request body")
		return
	}

	entityID, _ := service.ParseInt(req.EntityID)
	count, err := ctrl.Media.DeleteByEntity(c.Request.Context(), req.EntityType, entityID, entity.Purpose(req.Purpose))
	if err != nil {
		ctrl.respondMediaError(c, err, req.EntityType)
		return
	}

	message := "Media deleted by entity"
	if count == 0 {
		message = "No media to delete"
	}
	utils.JSON200(c, dto.MessageCountResponse{Message: message, Count: count})
}

func (ctrl *Controller) SortMedia(c *gin.Context) {
	var req dto.SortMediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSON400(c, "items is required")
		return
	}

	applied, err := ctrl.Media.Reorder(c.Request.Context(), req.Items)
	if err != nil {
		ctrl.respondMediaError(c, err, "")
		return
	}

	utils.JSON200(c, gin.H{"message": "Sort order updated", "updated": applied})
}

// FetchMedia streams an object through the API for deployments without a
// public bucket URL.
func (ctrl *Controller) FetchMedia(c *gin.Context) {
	ctx := c.Request.Context()

	obj, err := ctrl.Media.Fetch(ctx, c.Param("key"))
	if err != nil {
		ctrl.respondMediaError(c, err, "")
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, obj.Size, contentType, obj.Body, map[string]string{
		"Cache-Control":                "public, max-age=31536000, immutable",
		"Access-Control-Allow-Origin":  "*",
		"Cross-Origin-Resource-Policy": "cross-origin",
	})
}

func (ctrl *Controller) respondMediaError(c *gin.Context, err error, entityType string) {
	ctx := c.Request.Context()

	switch {
	case errors.Is(err, service.ErrInvalidEntityType):
		utils.JSON400(c, "Invalid or missing entity_type")
	case errors.Is(err, service.ErrInvalidEntityID):
		utils.JSON400(c, "Missing or invalid entity_id")
	case errors.Is(err, service.ErrInvalidPurpose):
		utils.JSON400(c, "Invalid purpose")
	case errors.Is(err, service.ErrNoFilesProvided):
		utils.JSON400(c, "No files uploaded")
	case errors.Is(err, service.ErrTooManyFiles):
		utils.JSON400(c, "Too many files")
	case errors.Is(err, service.ErrUnsupportedFileType):
		utils.JSON400(c, "Unsupported file type")
	case errors.Is(err, service.ErrNoSortItems):
		utils.JSON400(c, "items is required")
	case errors.Is(err, service.ErrInvalidKey):
		utils.JSON400(c, "Invalid media key")
	case errors.Is(err, service.ErrEntityNotFound):
		if entityType == service.OwnerProduct {
			utils.JSON404(c, "Product not found")
		} else {
			utils.JSON404(c, "Entity not found")
		}
	case errors.Is(err, service.ErrNotFound):
		utils.JSON404(c, "Media not found")
	case errors.Is(err, service.ErrStorageMisconfigured):
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Media] Object storage is not configured")
		utils.JSON500(c, "Object storage misconfigured. Please set S3_BUCKET and S3_ENDPOINT.")
	default:
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Media] Request failed")
		utils.JSON500(c, "Internal server error")
	}
}

func uploadFile(fh *multipart.FileHeader) service.UploadFile {
	return service.UploadFile{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
