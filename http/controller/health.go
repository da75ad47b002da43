package controller

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const healthTimeout = 3 * time.Second

func (ctrl *Controller) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	body := gin.H{
		"env":       ctrl.Config.EnvConfig.Environment.Mode,
		"uptime":    time.Since(ctrl.StartedAt).Seconds(),
		"db":        "connected",
		"redis":     "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	var errs []error
	if err := ctrl.Repository.Ping(ctx); err != nil {
		body["db"] = "disconnected"
		errs = append(errs, err)
	}
	if ctrl.Infra.Redis == nil {
		body["redis"] = "disconnected"
		errs = append(errs, errors.New("redis is not configured"))
	} else if err := ctrl.Infra.Redis.Ping(ctx); err != nil {
		body["redis"] = "disconnected"
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Health] Dependency check failed")
		body["status"] = "ERROR"
		body["error"] = err.Error()
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	body["status"] = "OK"
	c.JSON(http.StatusOK, body)
}
