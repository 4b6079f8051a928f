package server

import (
	"fmt"
	"net/http"

	"github.com/Ben2303/gamevault-backend/internal/backup"
	"github.com/gin-gonic/gin"
)

func (s *Server) handleBackup(c *gin.Context) {
	password := c.GetHeader(PasswordHeader)

	download, err := s.backups.Backup(c.Request.Context(), password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer download.Close()

	extraHeaders := map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%q", download.Filename),
	}
	c.DataFromReader(http.StatusOK, download.Size, download.ContentType, download.Reader, extraHeaders)
}

func (s *Server) handleRestore(c *gin.Context) {
	password := c.GetHeader(PasswordHeader)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing uploaded file"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read uploaded file"})
		return
	}
	defer file.Close()

	err = s.backups.Restore(c.Request.Context(), backup.RestorePackage{
		Data:     file,
		Password: password,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "database restored"})
}
