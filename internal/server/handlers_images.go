package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleUploadImage(c *gin.Context) {
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

	img, err := s.images.Save(file, fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, img)
}

func (s *Server) handleGetImage(c *gin.Context) {
	img, file, err := s.images.Open(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer file.Close()

	c.DataFromReader(http.StatusOK, img.SizeBytes, img.MediaType, file, nil)
}
