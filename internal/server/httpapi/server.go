// Package httpapi exposes the public HTTP surface over gin. Handlers stay
// thin: they parse identifiers at the boundary, call a service, and map
// sentinel errors onto status codes in one place.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault/internal/logging"
	"filevault/internal/server/services"
)

type Server struct {
	address   string
	users     *services.UserService
	files     *services.FileService
	logger    logging.Logger
	jwtSecret []byte
}

func NewServer(addr string, l logging.Logger, us *services.UserService, fs *services.FileService, secretKey string) (*Server, error) {
	return &Server{
		address:   addr,
		logger:    l.With("module", "http_server"),
		users:     us,
		files:     fs,
		jwtSecret: []byte(secretKey),
	}, nil
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Page not found"})
	})

	router.POST("/register", s.register)
	router.POST("/login", s.login)

	authed := router.Group("/", s.authMiddleware())
	authed.POST("/file/upload", s.uploadFile)
	authed.GET("/file/download", s.downloadFile)
	authed.POST("/file/share", s.shareFile)
	authed.PUT("/file/revoke", s.revokeFile)
	authed.PUT("/file/rename", s.renameFile)
	authed.DELETE("/file/delete", s.deleteFile)
	authed.GET("/files", s.listOwnedFiles)
	authed.GET("/file/shared-users", s.listSharedUsers)
	authed.GET("/file/details", s.fileDetails)
	authed.GET("/user/shared-files", s.listSharedFiles)
	authed.GET("/users", s.listUsers)

	return router
}

// Run starts the HTTP server and shuts it down gracefully when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		_ = srv.Shutdown(context.Background())
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
