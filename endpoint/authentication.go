package endpoint

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/ariebrainware/heart-risk/middleware"
	"github.com/ariebrainware/heart-risk/model"
	"github.com/ariebrainware/heart-risk/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Credentials is the form posted to /login and /signup.
type Credentials struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

// bind reads the form and reports whether both fields carry text. The
// username is trimmed; the password is kept as typed.
func (f *Credentials) bind(c *gin.Context) bool {
	err := c.ShouldBind(f)
	trimAll(&f.Username)
	return err == nil && f.Username != "" && strings.TrimSpace(f.Password) != ""
}

const (
	credentialsRequiredMessage = "Username and password are required."
	usernameTakenMessage       = "Username already exists. Please choose another."
	invalidCredentialsMessage  = "Invalid username or password"
	rateLimitedMessage         = "Too many attempts. Please try again later."
)

// SignupForm shows the account creation page.
func SignupForm(c *gin.Context) {
	render(c, http.StatusOK, "signup.html", gin.H{"Form": Credentials{}})
}

// Signup creates an account and logs the new user in.
func Signup(c *gin.Context) {
	var form Credentials
	ci := clientInfoFrom(c)
	if !form.bind(c) {
		util.LogSignupFailure(form.Username, ci.IP, ci.Agent, "empty fields")
		rerenderCredentials(c, "signup.html", http.StatusBadRequest, form, credentialsRequiredMessage)
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	exists, err := model.UsernameExists(db, form.Username)
	if err != nil {
		util.Logger().Error("signup lookup failed", zap.Error(err))
		rerenderCredentials(c, "signup.html", http.StatusInternalServerError, form, retryMessage)
		return
	}
	if exists {
		util.LogSignupFailure(form.Username, ci.IP, ci.Agent, "username taken")
		rerenderCredentials(c, "signup.html", http.StatusBadRequest, form, usernameTakenMessage)
		return
	}

	user, err := model.NewUser(form.Username, form.Password)
	if err != nil {
		util.Logger().Error("password hashing failed", zap.Error(err))
		rerenderCredentials(c, "signup.html", http.StatusInternalServerError, form, retryMessage)
		return
	}
	if err := model.CreateUser(db, &user); err != nil {
		// Lost a race with a concurrent signup for the same name.
		if errors.Is(err, model.ErrUsernameTaken) {
			util.LogSignupFailure(form.Username, ci.IP, ci.Agent, "username taken")
			rerenderCredentials(c, "signup.html", http.StatusBadRequest, form, usernameTakenMessage)
			return
		}
		util.Logger().Error("signup insert failed", zap.Error(err))
		rerenderCredentials(c, "signup.html", http.StatusInternalServerError, form, retryMessage)
		return
	}

	if err := middleware.SetCurrentUser(c, user.Username); err != nil {
		serverError(c, "failed to start session", err)
		return
	}
	util.LogSignupSuccess(user.Username, ci.IP, ci.Agent)
	middleware.AddFlash(c, middleware.FlashSuccess, "Account created successfully!")
	redirect(c, "/")
}

// LoginForm shows the login page.
func LoginForm(c *gin.Context) {
	render(c, http.StatusOK, "login.html", gin.H{"Form": Credentials{}})
}

// Login authenticates the posted credentials and stores the username in the
// session. A successful login clears the client's counter in limiter.
func Login(limiter *middleware.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form Credentials
		ci := clientInfoFrom(c)
		if !form.bind(c) {
			util.LogLoginFailure(form.Username, ci.IP, ci.Agent, "empty fields")
			rerenderCredentials(c, "login.html", http.StatusBadRequest, form, credentialsRequiredMessage)
			return
		}

		db, ok := getDBOrRespond(c)
		if !ok {
			return
		}

		user, err := model.FindUserByUsername(db, form.Username)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_, _ = checkPassword(nil, form.Password)
			util.LogLoginFailure(form.Username, ci.IP, ci.Agent, "user not found")
			rerenderCredentials(c, "login.html", http.StatusUnauthorized, form, invalidCredentialsMessage)
			return
		}
		if err != nil {
			util.LogLoginFailure(form.Username, ci.IP, ci.Agent, "database error")
			util.Logger().Error("login lookup failed", zap.Error(err))
			rerenderCredentials(c, "login.html", http.StatusInternalServerError, form, retryMessage)
			return
		}

		match, err := checkPassword(&user, form.Password)
		if err != nil {
			util.LogLoginFailure(form.Username, ci.IP, ci.Agent, "password verification error")
			util.Logger().Error("password verification failed", zap.String("username", user.Username), zap.Error(err))
		}
		if !match {
			if err == nil {
				util.LogLoginFailure(form.Username, ci.IP, ci.Agent, "invalid password")
			}
			rerenderCredentials(c, "login.html", http.StatusUnauthorized, form, invalidCredentialsMessage)
			return
		}

		if err := middleware.SetCurrentUser(c, user.Username); err != nil {
			serverError(c, "failed to start session", err)
			return
		}
		if limiter != nil {
			if err := limiter.Reset(c.Request.Context(), ci.IP, c.Request.URL.Path); err != nil {
				util.Logger().Warn("failed to reset login rate limit", zap.String("ip", ci.IP), zap.Error(err))
			}
		}
		util.LogLoginSuccess(user.Username, ci.IP, ci.Agent)
		middleware.AddFlash(c, middleware.FlashSuccess, "Login successful!")
		redirect(c, "/")
	}
}

// dummyUser gives unknown usernames the same Argon2 cost as known ones.
var dummyUser = sync.OnceValues(func() (model.User, error) {
	return model.NewUser("", "unused-password")
})

// checkPassword verifies plain against user's digest. A nil user is checked
// against a throwaway digest and never matches.
func checkPassword(user *model.User, plain string) (bool, error) {
	if user == nil {
		if dummy, err := dummyUser(); err == nil {
			_, _ = util.VerifyPassword(plain, dummy.Password, dummy.PasswordSalt)
		}
		return false, nil
	}
	return util.VerifyPassword(plain, user.Password, user.PasswordSalt)
}

// rateLimited answers a throttled login or signup by re-showing its form.
func rateLimited(c *gin.Context) {
	page := "login.html"
	if c.Request.URL.Path == "/signup" {
		page = "signup.html"
	}
	form := Credentials{Username: strings.TrimSpace(c.PostForm("username"))}
	rerenderCredentials(c, page, http.StatusTooManyRequests, form, rateLimitedMessage)
}

// Logout clears the session identity.
func Logout(c *gin.Context) {
	if identity, ok := middleware.CurrentUser(c); ok {
		ci := clientInfoFrom(c)
		util.LogLogout(identity.Username, ci.IP, ci.Agent)
	}
	middleware.ClearCurrentUser(c)
	middleware.AddFlash(c, middleware.FlashSuccess, "Logged out successfully")
	redirect(c, "/")
}

func rerenderCredentials(c *gin.Context, page string, status int, form Credentials, message string) {
	middleware.AddFlash(c, middleware.FlashDanger, message)
	render(c, status, page, gin.H{"Form": Credentials{Username: form.Username}})
}
