package endpoint_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/ariebrainware/heart-risk/endpoint"
	"github.com/ariebrainware/heart-risk/middleware"
	"github.com/ariebrainware/heart-risk/model"
	"github.com/ariebrainware/heart-risk/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup_CreatesUserAndLogsIn(t *testing.T) {
	app := newTestApp(t, nil, middleware.RateLimitConfig{})
	b := app.browser()

	w := b.post("/signup", url.Values{"username": {"  alice "}, "password": {"s3cret"}})
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	user, err := model.FindUserByUsername(app.db, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", user.Password)
	ok, err := util.VerifyPassword("s3cret", user.Password, user.PasswordSalt)
	require.NoError(t, err)
	assert.True(t, ok)

	w = b.get("/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Signed in as alice")
	assert.Contains(t, w.Body.String(), "Account created successfully!")
}

func TestSignup_DuplicateUsername(t *testing.T) {
	app := newTestApp(t, nil, middleware.RateLimitConfig{})
	app.browser().signup(t, "alice", "first")

	intruder := app.browser()
	w := intruder.post("/signup", url.Values{"username": {"alice"}, "password": {"second"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Username already exists")
	assert.EqualValues(t, 1, countRows(t, app.db, &model.User{}))

	// The rejected signup must not leave the submitter logged in.
	w = intruder.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	user, err := model.FindUserByUsername(app.db, "alice")
	require.NoError(t, err)
	ok, err := util.VerifyPassword("first", user.Password, user.PasswordSalt)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSignup_EmptyFields(t *testing.T) {
	app := newTestApp(t, nil, middleware.RateLimitConfig{})

	cases := []url.Values{
		{"username": {""}, "password": {"pw"}},
		{"username": {"   "}, "password": {"pw"}},
		{"username": {"bob"}, "password": {""}},
		{"username": {"bob"}, "password": {"  "}},
		{},
	}
	for _, form := range cases {
		b := app.browser()
		w := b.post("/signup", form)
		assert.Equal(t, http.StatusBadRequest, w.Code, form.Encode())
		assert.Contains(t, w.Body.String(), "Username and password are required.")
		assert.Equal(t, http.StatusFound, b.get("/").Code)
	}
	assert.EqualValues(t, 0, countRows(t, app.db, &model.User{}))
}

func TestLogin(t *testing.T) {
	app := newTestApp(t, nil, middleware.RateLimitConfig{})
	app.browser().signup(t, "carol", "correct horse")

	t.Run("success", func(t *testing.T) {
		b := app.browser()
		w := b.post("/login", url.Values{"username": {"carol"}, "password": {"correct horse"}})
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))

		w = b.get("/")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Login successful!")
	})

	t.Run("wrong password", func(t *testing.T) {
		b := app.browser()
		w := b.post("/login", url.Values{"username": {"carol"}, "password": {"battery staple"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid username or password")
		assert.Contains(t, w.Body.String(), `value="carol"`)
		assert.Equal(t, http.StatusFound, b.get("/").Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		b := app.browser()
		w := b.post("/login", url.Values{"username": {"dave"}, "password": {"x"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid username or password")
	})

	t.Run("empty fields", func(t *testing.T) {
		w := app.browser().post("/login", url.Values{"username": {"carol"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLogout(t *testing.T) {
	app := newTestApp(t, nil, middleware.RateLimitConfig{})
	b := app.browser()
	b.signup(t, "erin", "pw")

	w := b.get("/logout")
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))

	w = b.get("/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = b.get("/login")
	assert.Contains(t, w.Body.String(), "Logged out successfully")
	assert.Contains(t, w.Body.String(), "Please log in to access the prediction form.")
}

func TestAuthPages_Render(t *testing.T) {
	app := newTestApp(t, nil, middleware.RateLimitConfig{})
	b := app.browser()

	for _, path := range []string{"/login", "/signup", "/contact"} {
		w := b.get(path)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.Contains(t, w.Body.String(), "<form", path)
	}
}

func TestLogin_RateLimited(t *testing.T) {
	app := newTestApp(t, nil, middleware.RateLimitConfig{Limit: 2})
	b := app.browser()

	form := url.Values{"username": {"nobody"}, "password": {"guess"}}
	assert.Equal(t, http.StatusUnauthorized, b.post("/login", form).Code)
	assert.Equal(t, http.StatusUnauthorized, b.post("/login", form).Code)

	w := b.post("/login", form)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "Too many attempts. Please try again later.")
	assert.Contains(t, w.Body.String(), `value="nobody"`)

	// Counters are per path and per client.
	assert.Equal(t, http.StatusBadRequest, b.post("/signup", url.Values{}).Code)
	other := app.browser()
	other.ip = "198.51.100.4"
	assert.Equal(t, http.StatusUnauthorized, other.post("/login", form).Code)
}

func TestSignup_RateLimitedRendersForm(t *testing.T) {
	app := newTestApp(t, nil, middleware.RateLimitConfig{Limit: 1})
	b := app.browser()

	assert.Equal(t, http.StatusBadRequest, b.post("/signup", url.Values{}).Code)
	w := b.post("/signup", url.Values{"username": {"zoe"}, "password": {"pw"}})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>Sign up</h1>")
	assert.EqualValues(t, 0, countRows(t, app.db, &model.User{}))
}

// Without Redis the counters live in process memory; a correct login must
// still clear them.
func TestLogin_SuccessResetsRateLimit(t *testing.T) {
	app := newTestApp(t, nil, middleware.RateLimitConfig{Limit: 2})
	app.browser().signup(t, "alice", "pw")

	b := app.browser()
	form := url.Values{"username": {"alice"}, "password": {"pw"}}
	for i := 1; i <= 4; i++ {
		w := b.post("/login", form)
		require.Equal(t, http.StatusFound, w.Code, "login #%d", i)
	}

	// Failed attempts still count towards the limit.
	bad := url.Values{"username": {"alice"}, "password": {"wrong"}}
	assert.Equal(t, http.StatusUnauthorized, b.post("/login", bad).Code)
	assert.Equal(t, http.StatusUnauthorized, b.post("/login", bad).Code)
	assert.Equal(t, http.StatusTooManyRequests, b.post("/login", form).Code)
}

func TestLogin_UnknownUserMatchesBadPassword(t *testing.T) {
	app := newTestApp(t, nil, middleware.RateLimitConfig{})
	app.browser().signup(t, "alice", "pw")

	unknown := app.browser().post("/login", url.Values{"username": {"mallory"}, "password": {"pw"}})
	wrong := app.browser().post("/login", url.Values{"username": {"alice"}, "password": {"nope"}})

	assert.Equal(t, wrong.Code, unknown.Code)
	assert.Contains(t, unknown.Body.String(), "Invalid username or password")
	assert.Contains(t, wrong.Body.String(), "Invalid username or password")
}

func TestServerErrors_HideDetail(t *testing.T) {
	app := newTestApp(t, nil, middleware.RateLimitConfig{})
	router := endpoint.NewRouter(endpoint.Dependencies{
		Predictor: app.svc,
		Sessions:  middleware.NewCookieStore("endpoint-test-secret", false),
		Templates: app.tmpl,
	})
	b := &browser{app: &testApp{router: router}, ip: "203.0.113.9", cookies: map[string]*http.Cookie{}}

	w := b.post("/signup", url.Values{"username": {"alice"}, "password": {"pw"}})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Something went wrong. Please try again.")
	assert.NotContains(t, w.Body.String(), "db is nil")

	w = b.get("/healthz")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "db is nil")
}
