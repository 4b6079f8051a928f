// Package server exposes the HTTP API: database administration
// (backup/restore), user accounts, and image storage.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/Ben2303/gamevault-backend/internal/backup"
	"github.com/Ben2303/gamevault-backend/internal/images"
	"github.com/Ben2303/gamevault-backend/internal/logger"
	"github.com/Ben2303/gamevault-backend/internal/users"
	"github.com/gin-gonic/gin"
)

// PasswordHeader carries the database password for admin operations.
const PasswordHeader = "X-Database-Password"

// BackupService is the backup/restore contract the API needs.
type BackupService interface {
	Backup(ctx context.Context, password string) (*backup.Download, error)
	Restore(ctx context.Context, pkg backup.RestorePackage) error
}

// UserService is the account-management contract the API needs.
type UserService interface {
	Register(ctx context.Context, in users.RegisterInput) (*users.User, error)
	Authenticate(ctx context.Context, username, password string) (*users.User, error)
	Get(ctx context.Context, id string) (*users.User, error)
	List(ctx context.Context) ([]users.User, error)
	Activate(ctx context.Context, id string) (*users.User, error)
	Delete(ctx context.Context, id string) error
	Recover(ctx context.Context, id string) error
}

// Server serves the gamevault HTTP API.
type Server struct {
	addr    string
	log     logger.Logger
	backups BackupService
	users   UserService
	images  *images.Store
	version string

	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer wires the API over the given services.
func NewServer(addr string, log logger.Logger, backups BackupService, userSvc UserService, imageStore *images.Store, version string) *Server {
	if addr == "" {
		addr = "0.0.0.0:8080"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:    addr,
		log:     log,
		backups: backups,
		users:   userSvc,
		images:  imageStore,
		version: version,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)

	admin := api.Group("/admin/database")
	admin.POST("/backup", s.handleBackup)
	admin.POST("/restore", s.handleRestore)

	usersGroup := api.Group("/users")
	usersGroup.POST("/register", s.handleRegister)
	usersGroup.POST("/login", s.handleLogin)
	usersGroup.GET("", s.handleListUsers)
	usersGroup.GET("/:id", s.handleGetUser)
	usersGroup.POST("/:id/activate", s.handleActivateUser)
	usersGroup.POST("/:id/recover", s.handleRecoverUser)
	usersGroup.DELETE("/:id", s.handleDeleteUser)

	imagesGroup := api.Group("/images")
	imagesGroup.POST("", s.handleUploadImage)
	imagesGroup.GET("/:id", s.handleGetImage)

	return r
}

// Start begins serving HTTP requests in the background.
func (s *Server) Start() error {
	s.server = &http.Server{
		Handler:           s.Router(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		// Restore uploads and backup downloads of large databases can
		// run for minutes; only bound the header phase and reads.
		ReadTimeout: 30 * time.Minute,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.startTime = time.Now()
	s.log.Info("HTTP API listening", "addr", s.addr)

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop() error {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.startTime).String(),
	})
}
