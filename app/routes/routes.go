package routes

import (
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"sakibee/app/config"
	"sakibee/app/controllers"
	"sakibee/app/middleware"
	"sakibee/app/services"
	"sakibee/app/storage"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Posts     *services.PostService
	Images    storage.ImageStore
	Templates map[string]*template.Template
	Config    *config.Config
	Logger    *slog.Logger
}

// SetupRoutes defines the application's routes and returns a router.
func SetupRoutes(d Deps) *mux.Router {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := d.Config

	router := mux.NewRouter()
	router.MethodNotAllowedHandler = methodNotAllowed()

	// Apply global middleware
	router.Use(middleware.Recoverer(logger))
	router.Use(middleware.Logger(logger))

	postController := controllers.NewPostController(d.Posts, d.Templates, cfg.Upload.MaxBytes, logger)
	commentController := controllers.NewCommentController(d.Posts, logger)
	imageController := controllers.NewImageController(d.Images, logger)

	// Writes are reserved for the operator when a password hash is configured.
	gate := middleware.OperatorAuth(cfg.Auth.Username, cfg.Auth.PasswordHash)
	operator := func(h http.HandlerFunc) http.Handler { return gate(h) }

	router.HandleFunc("/", postController.Index).Methods(http.MethodGet)
	router.HandleFunc("/healthz", controllers.Health).Methods(http.MethodGet)
	router.HandleFunc("/images/{name}", imageController.Show).Methods(http.MethodGet)

	// Posts web endpoints
	posts := router.PathPrefix("/posts").Subrouter()
	posts.MethodNotAllowedHandler = methodNotAllowed()
	posts.HandleFunc("", postController.Index).Methods(http.MethodGet)
	posts.Handle("/create", operator(postController.New)).Methods(http.MethodGet)
	posts.Handle("/create", operator(postController.Create)).Methods(http.MethodPost)
	posts.Handle("/comments", commentHandler(cfg.Comments, commentController)).Methods(http.MethodPost, http.MethodOptions)
	posts.HandleFunc("/{id:[0-9]+}", postController.Show).Methods(http.MethodGet)
	posts.Handle("/{id:[0-9]+}/edit", operator(postController.Edit)).Methods(http.MethodGet)
	posts.Handle("/{id:[0-9]+}/edit", operator(postController.Update)).Methods(http.MethodPost)
	posts.Handle("/{id:[0-9]+}/delete", operator(postController.ConfirmDelete)).Methods(http.MethodGet)
	posts.Handle("/{id:[0-9]+}/delete", operator(postController.Delete)).Methods(http.MethodPost)

	return router
}

// commentHandler wraps the comment endpoint with the per-IP rate limit and,
// when origins are configured, CORS.
func commentHandler(cfg config.CommentsConfig, cc *controllers.CommentController) http.Handler {
	var h http.Handler = http.HandlerFunc(cc.Create)
	if cfg.RateLimit > 0 {
		h = httprate.LimitByIP(cfg.RateLimit, time.Minute)(h)
	}
	if len(cfg.AllowedOrigins) > 0 {
		h = cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		})(h)
	}
	return h
}

// methodNotAllowed answers a known path requested with the wrong method.
// Subrouters report 404 for a method mismatch unless they carry this handler.
func methodNotAllowed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})
}
