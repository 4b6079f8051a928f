package server

import (
	"net/http"

	"github.com/Ben2303/gamevault-backend/internal/users"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleRegister(c *gin.Context) {
	var in users.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := s.users.Register(c.Request.Context(), in)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u.Profile())
}

type loginInput struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) handleLogin(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u, err := s.users.Authenticate(c.Request.Context(), in.Username, in.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u.Profile())
}

func (s *Server) handleListUsers(c *gin.Context) {
	list, err := s.users.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	profiles := make([]users.Profile, 0, len(list))
	for i := range list {
		profiles = append(profiles, list[i].Profile())
	}
	c.JSON(http.StatusOK, profiles)
}

func (s *Server) handleGetUser(c *gin.Context) {
	u, err := s.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u.Profile())
}

func (s *Server) handleActivateUser(c *gin.Context) {
	u, err := s.users.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u.Profile())
}

func (s *Server) handleRecoverUser(c *gin.Context) {
	if err := s.users.Recover(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user recovered"})
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	if err := s.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "user deleted"})
}
