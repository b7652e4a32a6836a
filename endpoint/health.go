package endpoint

import (
	"context"
	"errors"
	"time"

	"github.com/ariebrainware/heart-risk/middleware"
	"github.com/ariebrainware/heart-risk/predictor"
	"github.com/ariebrainware/heart-risk/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errDatabaseUnavailable = errors.New("database unavailable")

// Health reports database reachability and the loaded model's schema. The
// accuracy is only reported when the metadata records one.
func Health(svc *predictor.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := pingDatabase(c); err != nil {
			util.Logger().Error("health check failed", zap.Error(err))
			util.CallServerError(c, util.APIErrorParams{Msg: "Database unavailable", Err: errDatabaseUnavailable})
			return
		}

		meta := svc.Metadata()
		data := gin.H{
			"database": "up",
			"features": meta.Columns(),
		}
		if meta.Accuracy > 0 {
			data["model_accuracy"] = meta.Accuracy
		}
		util.CallSuccessOK(c, util.APISuccessParams{Msg: "ok", Data: data})
	}
}

func pingDatabase(c *gin.Context) error {
	db := middleware.GetDB(c)
	if db == nil {
		return errNoDatabase
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}
