package controllers

import (
	"CodeCollab/services/storage"
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary Downloads an attachment
// @Tags files
// @Produce octet-stream
// @Param name path string true "Stored file name"
// @Success 200 {file} file
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Router /api/files/{name} [get]
func DownloadFile(files *storage.FileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		f, mime, err := files.Open(name)
		switch {
		case errors.Is(err, storage.ErrInvalidName):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file name"})
			return
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
			return
		case err != nil:
			log.Printf("[FILES-ERROR] Opening %s: %v", name, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading file"})
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading file"})
			return
		}
		c.DataFromReader(http.StatusOK, info.Size(), mime, f, map[string]string{
			"Content-Disposition": `attachment; filename="` + name + `"`,
		})
	}
}
