package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/user"
)

func (s *Server) handleMe(c *gin.Context) {
	c.JSON(http.StatusOK, currentUser(c))
}

func (s *Server) handleListUsers(c *gin.Context) {
	role := user.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	users, err := s.engine.Stores().ListUsers(c.Request.Context(), role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type updateUserRequest struct {
	Role   *user.Role `json:"role"`
	Skills *[]string  `json:"skills"`
}

func (s *Server) handleUpdateUser(c *gin.Context) {
	userID, err := id.ParseUserID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role != nil && !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		return
	}

	u, err := s.engine.Stores().UpdateUser(c.Request.Context(), userID, user.Patch{
		Role:   req.Role,
		Skills: req.Skills,
	})
	if err != nil {
		if errors.Is(err, fluxdesk.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update user"})
		return
	}
	c.JSON(http.StatusOK, u)
}
