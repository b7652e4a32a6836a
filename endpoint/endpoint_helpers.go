package endpoint

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ariebrainware/heart-risk/config"
	"github.com/ariebrainware/heart-risk/middleware"
	"github.com/ariebrainware/heart-risk/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Messages shown to users when something fails on the server side.
const (
	GenericErrorMessage = "Something went wrong. Please check your inputs."
	SaveErrorMessage    = "Your result was computed but could not be saved."
	retryMessage        = util.ServerErrorMessage
)

var errNoDatabase = errors.New("db is nil")

type clientInfo struct {
	IP    string
	Agent string
}

func clientInfoFrom(c *gin.Context) clientInfo {
	return clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}
}

// render executes page with the data every page expects. Queued flashes are
// drained, so the session is saved before the body is written.
func render(c *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Title"]; !ok {
		data["Title"] = config.LoadConfig().AppName
	}
	if identity, ok := middleware.CurrentUser(c); ok {
		data["User"] = identity.Username
	}
	data["Flashes"] = middleware.Flashes(c)
	if err := middleware.SaveSession(c); err != nil {
		util.Logger().Error("failed to save session", zap.String("page", page), zap.Error(err))
	}
	c.HTML(status, page, data)
}

// serverError logs err and shows the generic error page. The session is
// left alone since it may be what failed.
func serverError(c *gin.Context, msg string, err error) {
	util.Logger().Error(msg, zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Title":   config.LoadConfig().AppName,
		"Message": retryMessage,
	})
}

func redirect(c *gin.Context, location string) {
	if err := middleware.SaveSession(c); err != nil {
		serverError(c, "failed to save session", err)
		return
	}
	c.Redirect(http.StatusFound, location)
}

func getDBOrRespond(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		serverError(c, "database connection not available", errNoDatabase)
		return nil, false
	}
	return db, true
}

// sentence capitalizes the first letter of an error text for display.
func sentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
