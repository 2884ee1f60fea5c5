/*******************************************************************************
* File name: handlers.go
*
* Description: the file API handlers: multipart create, retrieve,
* multipart update, delete, and a block-fix trigger. Each handler takes a
* per-filename lock so a file's own create/retrieve/update/delete requests
* never interleave.
*******************************************************************************/

package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"stripedfs/internal/locks"
	"stripedfs/internal/stripe"
	"stripedfs/internal/validator"
)

// FileHandler implements the /file route group.
type FileHandler struct {
	validator *validator.Validator
	locks     *locks.Registry
	logger    *slog.Logger
}

// NewFileHandler builds a FileHandler over v, serializing same-filename
// requests through reg.
func NewFileHandler(v *validator.Validator, reg *locks.Registry, logger *slog.Logger) *FileHandler {
	return &FileHandler{validator: v, locks: reg, logger: logger}
}

// multipartPayload reads the "file" form field, returning its bytes and
// declared content type.
func multipartPayload(c *gin.Context) ([]byte, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, "", err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", err
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" {
		ct = "application/octet-stream"
	}
	return data, ct, nil
}

// Create handles POST /file/:filename.
func (h *FileHandler) Create(c *gin.Context) {
	filename := c.Param("filename")
	payload, contentType, err := multipartPayload(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	unlock := h.locks.Lock(filename)
	defer unlock()

	desc, err := h.validator.Create(filename, payload, contentType)
	if err != nil {
		code, msg := mapValidatorError(err)
		writeError(c, code, errors.New(msg))
		return
	}
	writeOK(c, http.StatusCreated, desc)
}

// Retrieve handles GET /file/:filename.
func (h *FileHandler) Retrieve(c *gin.Context) {
	filename := c.Param("filename")

	unlock := h.locks.Lock(filename)
	defer unlock()

	data, err := h.validator.Retrieve(filename)
	if err != nil {
		code, msg := mapValidatorError(err)
		writeError(c, code, errors.New(msg))
		return
	}
	c.Data(http.StatusOK, "application/octet-stream", data)
}

// Update handles PUT /file/:filename.
func (h *FileHandler) Update(c *gin.Context) {
	filename := c.Param("filename")
	payload, contentType, err := multipartPayload(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, err)
		return
	}

	unlock := h.locks.Lock(filename)
	defer unlock()

	desc, err := h.validator.Update(filename, payload, contentType)
	if err != nil {
		code, msg := mapValidatorError(err)
		writeError(c, code, errors.New(msg))
		return
	}
	writeOK(c, http.StatusOK, desc)
}

// Delete handles DELETE /file/:filename.
func (h *FileHandler) Delete(c *gin.Context) {
	filename := c.Param("filename")

	unlock := h.locks.Lock(filename)
	defer unlock()

	if err := h.validator.Delete(filename); err != nil {
		code, msg := mapValidatorError(err)
		writeError(c, code, errors.New(msg))
		return
	}
	writeOK(c, http.StatusNoContent, nil)
}

// FixHandler implements the /fix route group.
type FixHandler struct {
	validator *validator.Validator
	logger    *slog.Logger
}

// NewFixHandler builds a FixHandler over v.
func NewFixHandler(v *validator.Validator, logger *slog.Logger) *FixHandler {
	return &FixHandler{validator: v, logger: logger}
}

// Fix handles POST /fix/:block_id, rebuilding every file in the named block
// from its surviving siblings.
func (h *FixHandler) Fix(c *gin.Context) {
	raw := c.Param("block_id")
	blockID, err := strconv.Atoi(raw)
	if err != nil {
		writeError(c, http.StatusBadRequest, errors.New("block_id must be an integer"))
		return
	}

	if err := h.validator.Repair(blockID); err != nil {
		if errors.Is(err, stripe.ErrInvalidBlock) {
			writeError(c, http.StatusBadRequest, err)
			return
		}
		writeError(c, http.StatusInternalServerError, err)
		return
	}
	writeOK(c, http.StatusOK, gin.H{"block_id": blockID, "repaired": true})
}

// Health handles GET /health.
func Health(c *gin.Context) {
	writeOK(c, http.StatusOK, gin.H{"healthy": true})
}
