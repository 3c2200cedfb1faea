package controllers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/sridharani/designhaven/pkg/ctx"
	"github.com/sridharani/designhaven/pkg/storage"
)

// UploadController stores catalogue images on the configured disk (local
// or S3) and hands back the URL to put in a category or product record.
type UploadController struct{}

func NewUploadController() *UploadController { return &UploadController{} }

const maxUploadBytes = 5 << 20

var allowedImageExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
}

func (uc *UploadController) Image(c *ctx.Context) {
	if err := c.R.ParseMultipartForm(maxUploadBytes); err != nil {
		c.Error(http.StatusBadRequest, "Invalid multipart form")
		return
	}
	file, header, err := c.R.FormFile("image")
	if err != nil {
		c.Error(http.StatusBadRequest, "Missing image file")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedImageExts[ext] {
		c.Error(http.StatusUnsupportedMediaType, "Unsupported image type")
		return
	}
	if header.Size > maxUploadBytes {
		c.Error(http.StatusRequestEntityTooLarge, "Image too large")
		return
	}

	name := fmt.Sprintf("images/%d%s", time.Now().UnixNano(), ext)
	content, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}
	if err := storage.Put(name, content); err != nil {
		c.Error(http.StatusInternalServerError, err.Error())
		return
	}

	c.Created(map[string]any{"path": name, "url": storage.URL(name)})
}
