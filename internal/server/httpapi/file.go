package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault/internal/common"
	"filevault/internal/server/models"
)

// fileIDParam parses the file_id query parameter. A malformed id cannot name
// any resource, so it maps to not found.
func fileIDParam(c *gin.Context) (models.FileID, error) {
	id, err := models.ParseFileID(c.Query("file_id"))
	if err != nil {
		return "", common.ErrorNotFound
	}
	return id, nil
}

func granteeIDParam(c *gin.Context) (models.UserID, error) {
	id, err := models.ParseUserID(c.Query("to_id"))
	if err != nil {
		return "", common.ErrorNotFound
	}
	return id, nil
}

type fileResponse struct {
	ID          models.FileID `json:"id"`
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type"`
	Size        int64         `json:"size"`
}

type sharedFileResponse struct {
	ID          models.FileID `json:"id"`
	Filename    string        `json:"filename"`
	ContentType string        `json:"content_type"`
	Size        int64         `json:"size"`
	OwnerID     models.UserID `json:"owner_id"`
}

func (s *Server) uploadFile(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		abortWithError(c, common.ErrInvalidToken)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		abortWithError(c, common.ErrorValidation)
		return
	}

	f, err := fh.Open()
	if err != nil {
		abortWithError(c, common.ErrorInternal)
		return
	}
	defer f.Close()

	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if _, err := s.files.Upload(c.Request.Context(), caller, fh.Filename, contentType, fh.Size, f); err != nil {
		s.logger.Error(c.Request.Context(), "upload failed", "error", err)
		abortWithError(c, common.ErrorInternal)
		return
	}

	c.JSON(http.StatusOK, gin.H{"details": "Uploaded successfully"})
}

func (s *Server) downloadFile(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		abortWithError(c, common.ErrInvalidToken)
		return
	}

	fileID, err := fileIDParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	file, rc, err := s.files.Download(c.Request.Context(), caller, fileID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	defer rc.Close()

	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, rc, map[string]string{
		"Content-Disposition": `attachment; filename="` + file.Filename + `"`,
	})
}

func (s *Server) shareFile(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		abortWithError(c, common.ErrInvalidToken)
		return
	}

	fileID, err := fileIDParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	granteeID, err := granteeIDParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.files.Share(c.Request.Context(), caller, fileID, granteeID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"details": "Shared successfully"})
}

func (s *Server) revokeFile(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		abortWithError(c, common.ErrInvalidToken)
		return
	}

	fileID, err := fileIDParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}
	granteeID, err := granteeIDParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.files.Revoke(c.Request.Context(), caller, fileID, granteeID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"details": "Revoked successfully"})
}

func (s *Server) renameFile(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		abortWithError(c, common.ErrInvalidToken)
		return
	}

	fileID, err := fileIDParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.files.Rename(c.Request.Context(), caller, fileID, c.Query("filename")); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"details": "Renamed successfully"})
}

func (s *Server) deleteFile(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		abortWithError(c, common.ErrInvalidToken)
		return
	}

	fileID, err := fileIDParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	if err := s.files.Delete(c.Request.Context(), caller, fileID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"details": "Deleted successfully"})
}

func (s *Server) listOwnedFiles(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		abortWithError(c, common.ErrInvalidToken)
		return
	}

	files, err := s.files.ListOwned(c.Request.Context(), caller)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]fileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, fileResponse{ID: f.ID, Filename: f.Filename, ContentType: f.ContentType, Size: f.Size})
	}
	c.JSON(http.StatusOK, gin.H{"files": out})
}

func (s *Server) listSharedUsers(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		abortWithError(c, common.ErrInvalidToken)
		return
	}

	fileID, err := fileIDParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	users, err := s.files.ListGrantees(c.Request.Context(), caller, fileID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, userResponse{ID: u.ID, Username: u.Username, FullName: u.FullName})
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (s *Server) fileDetails(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		abortWithError(c, common.ErrInvalidToken)
		return
	}

	fileID, err := fileIDParam(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	file, err := s.files.Details(c.Request.Context(), caller, fileID)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"details": gin.H{
		"id":       file.ID,
		"filename": file.Filename,
		"owner_id": file.OwnerID,
	}})
}
