package endpoint

import (
	"html/template"

	"github.com/ariebrainware/heart-risk/middleware"
	"github.com/ariebrainware/heart-risk/predictor"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"gorm.io/gorm"
)

// Dependencies are the explicitly constructed collaborators of the web app.
type Dependencies struct {
	DB        *gorm.DB
	Predictor *predictor.Service
	Sessions  sessions.Store
	Templates *template.Template
	RateLimit middleware.RateLimitConfig
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(),
		middleware.SecurityHeaders(),
		middleware.DatabaseMiddleware(deps.DB),
		middleware.SessionMiddleware(deps.Sessions),
	)
	r.SetHTMLTemplate(deps.Templates)

	limitCfg := deps.RateLimit
	if limitCfg.OnLimit == nil {
		limitCfg.OnLimit = rateLimited
	}
	limiter := middleware.NewLimiter(limitCfg)
	throttle := limiter.Handler()

	r.GET("/signup", SignupForm)
	r.POST("/signup", throttle, Signup)
	r.GET("/login", LoginForm)
	r.POST("/login", throttle, Login(limiter))
	r.GET("/logout", Logout)
	r.GET("/contact", ContactPage)
	r.POST("/contact", SubmitContact)
	r.GET("/healthz", Health(deps.Predictor))

	auth := r.Group("/")
	auth.Use(middleware.RequireLogin())
	{
		auth.GET("/", HomeForm(deps.Predictor))
		auth.POST("/", Predict(deps.Predictor))
	}
	return r
}
