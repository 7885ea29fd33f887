package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/sftpdrive/internal/drive"
	"github.com/charlesng35/sftpdrive/internal/sftp"
	apperrors "github.com/charlesng35/sftpdrive/pkg/errors"
	"github.com/charlesng35/sftpdrive/pkg/response"
)

// DefaultMaxUploadBytes caps PUT bodies when no limit is configured.
const DefaultMaxUploadBytes int64 = 64 << 20

// DriveHandler exposes remote file operations over HTTP.
type DriveHandler struct {
	drive     drive.Driver
	maxUpload int64
}

// NewDriveHandler constructs a handler. A non-positive maxUpload uses DefaultMaxUploadBytes.
func NewDriveHandler(d drive.Driver, maxUpload int64) *DriveHandler {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &DriveHandler{drive: d, maxUpload: maxUpload}
}

type pathQuery struct {
	Path string `form:"path" json:"path" validate:"required,remote_path,max=4096"`
}

type transferRequest struct {
	Source      string `json:"source" validate:"required,remote_path,max=4096"`
	Destination string `json:"destination" validate:"required,remote_path,max=4096"`
}

type writeResponse struct {
	Path string `json:"path"`
	Size int    `json:"size"`
}

type existsResponse struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

type transferResponse struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

type entryDTO struct {
	Name       string    `json:"name"`
	Location   string    `json:"location"`
	IsFile     bool      `json:"is_file"`
	Size       int64     `json:"size"`
	Mode       string    `json:"mode"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Read streams the file contents back as application/octet-stream.
func (h *DriveHandler) Read(c *gin.Context) {
	var q pathQuery
	if !bindQuery(c, &q) {
		return
	}

	data, err := h.drive.Read(c.Request.Context(), q.Path)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Data(http.StatusOK, "application/octet-stream", data)
}

// Write stores the raw request body at path, replacing any existing file.
func (h *DriveHandler) Write(c *gin.Context) {
	var q pathQuery
	if !bindQuery(c, &q) {
		return
	}

	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	data, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, apperrors.ErrPayloadTooLarge)
			return
		}
		response.Error(c, apperrors.NewBadRequest("could not read request body"))
		return
	}

	if err := h.drive.Write(c.Request.Context(), q.Path, data); err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, writeResponse{Path: q.Path, Size: len(data)})
}

// Delete removes the file at path. Deleting a missing path succeeds.
func (h *DriveHandler) Delete(c *gin.Context) {
	var q pathQuery
	if !bindQuery(c, &q) {
		return
	}

	if err := h.drive.Remove(c.Request.Context(), q.Path); err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"path": q.Path})
}

// Exists reports whether path exists.
func (h *DriveHandler) Exists(c *gin.Context) {
	var q pathQuery
	if !bindQuery(c, &q) {
		return
	}

	exists, err := h.drive.Exists(c.Request.Context(), q.Path)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, existsResponse{Path: q.Path, Exists: exists})
}

// Stat returns size and modification time for path.
func (h *DriveHandler) Stat(c *gin.Context) {
	var q pathQuery
	if !bindQuery(c, &q) {
		return
	}

	stats, err := h.drive.Stat(c.Request.Context(), q.Path)
	if err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, stats)
}

// List enumerates the direct children of a directory, directories first.
func (h *DriveHandler) List(c *gin.Context) {
	var q pathQuery
	if !bindQuery(c, &q) {
		return
	}

	entries, err := h.drive.List(q.Path).Entries(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}

	dtos := make([]entryDTO, 0, len(entries))
	for _, entry := range entries {
		dtos = append(dtos, toEntryDTO(entry))
	}
	sort.SliceStable(dtos, func(i, j int) bool {
		if dtos[i].IsFile == dtos[j].IsFile {
			return strings.ToLower(dtos[i].Name) < strings.ToLower(dtos[j].Name)
		}
		return !dtos[i].IsFile
	})

	response.SuccessWithMeta(c, http.StatusOK, dtos, &response.Meta{Path: q.Path, Total: len(dtos)})
}

// Copy duplicates source at destination.
func (h *DriveHandler) Copy(c *gin.Context) {
	var req transferRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.drive.Copy(c.Request.Context(), req.Source, req.Destination); err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, transferResponse(req))
}

// Move relocates source to destination.
func (h *DriveHandler) Move(c *gin.Context) {
	var req transferRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.drive.Move(c.Request.Context(), req.Source, req.Destination); err != nil {
		h.fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, transferResponse(req))
}

func (h *DriveHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	response.Error(c, mapDriveError(err))
}

func toEntryDTO(entry drive.ListEntry) entryDTO {
	dto := entryDTO{
		Location: entry.Location,
		IsFile:   entry.IsFile,
	}
	if info := entry.Original; info != nil {
		dto.Name = info.Name()
		dto.Size = info.Size()
		dto.Mode = info.Mode().String()
		dto.ModifiedAt = info.ModTime()
	}
	return dto
}

// mapDriveError translates drive failures into API errors. The transport cause decides
// between 404 and 403; everything else the remote side did wrong is a 502.
func mapDriveError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case drive.IsKind(err, drive.KindUnsupported):
		return apperrors.ErrNotImplemented.WithInternal(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperrors.New("TIMEOUT", "Remote operation timed out or was cancelled", http.StatusGatewayTimeout).WithInternal(err)
	case connectionFailure(err):
		return apperrors.ErrBadGateway.WithInternal(err)
	case sftp.IsNotExist(err):
		return apperrors.New(apperrors.ErrNotFound.Code, "Remote path not found", http.StatusNotFound).WithInternal(err)
	case sftp.IsPermission(err):
		return apperrors.New(apperrors.ErrForbidden.Code, "Remote server denied access", http.StatusForbidden).WithInternal(err)
	}

	kind := drive.KindOf(err)
	if kind == "" {
		return apperrors.Wrap(err, "drive operation failed")
	}
	return apperrors.New("drive."+string(kind), "Remote operation failed", http.StatusBadGateway).WithInternal(err)
}

// connectionFailure reports whether any drive error in the chain is a connection error.
func connectionFailure(err error) bool {
	for cur := err; cur != nil; cur = errors.Unwrap(cur) {
		if de, ok := cur.(*drive.Error); ok && de.Kind == drive.KindConnection {
			return true
		}
	}
	return false
}
