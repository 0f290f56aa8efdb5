package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault/internal/common"
	"filevault/internal/server/models"
)

// userResponse is the public view of an account: no credential digest.
type userResponse struct {
	ID       models.UserID `json:"id"`
	Username string        `json:"username"`
	FullName string        `json:"fullname"`
}

func (s *Server) listUsers(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		abortWithError(c, common.ErrInvalidToken)
		return
	}

	users, err := s.users.ListOthers(c.Request.Context(), caller)
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

func (s *Server) listSharedFiles(c *gin.Context) {
	caller, ok := callerID(c)
	if !ok {
		abortWithError(c, common.ErrInvalidToken)
		return
	}

	files, err := s.files.ListSharedWith(c.Request.Context(), caller)
	if err != nil {
		abortWithError(c, err)
		return
	}

	out := make([]sharedFileResponse, 0, len(files))
	for _, f := range files {
		out = append(out, sharedFileResponse{
			ID:          f.ID,
			Filename:    f.Filename,
			ContentType: f.ContentType,
			Size:        f.Size,
			OwnerID:     f.OwnerID,
		})
	}
	c.JSON(http.StatusOK, gin.H{"files": out})
}
