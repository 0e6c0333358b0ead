package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/ticket"
	"github.com/fluxdesk/fluxdesk/user"
)

type createTicketRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description" binding:"required"`
}

// handleCreateTicket persists the ticket and responds 201 immediately;
// triage runs asynchronously behind the published event.
func (s *Server) handleCreateTicket(c *gin.Context) {
	var req createTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	u := currentUser(c)
	t := ticket.New(req.Title, req.Description, u.ID)

	if err := s.engine.Stores().CreateTicket(c.Request.Context(), t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create ticket"})
		return
	}

	if err := s.engine.PublishTicketCreated(c.Request.Context(), t); err != nil {
		// The ticket exists; a failed publish only means no automatic
		// triage. Operators see it in the logs.
		s.logger.Error("publish ticket.created failed",
			"ticket_id", t.ID.String(), "error", err)
	}

	c.JSON(http.StatusCreated, t)
}

func (s *Server) handleListTickets(c *gin.Context) {
	u := currentUser(c)

	opts := ticket.ListOpts{
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	if status := ticket.Status(c.Query("status")); status != "" {
		if !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		opts.Status = status
	}

	// Plain users only see tickets they created; moderators and admins
	// see the whole queue.
	if u.Role == user.RoleUser {
		opts.CreatedBy = u.ID
	}

	tickets, err := s.engine.Stores().ListTickets(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list tickets"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (s *Server) handleGetTicket(c *gin.Context) {
	ticketID, err := id.ParseTicketID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}

	t, err := s.engine.Stores().GetTicket(c.Request.Context(), ticketID)
	if err != nil {
		if errors.Is(err, fluxdesk.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load ticket"})
		return
	}

	u := currentUser(c)
	if u.Role == user.RoleUser && !t.CreatedBy.Equal(u.ID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
		return
	}

	c.JSON(http.StatusOK, t)
}

type updateTicketRequest struct {
	Status       *ticket.Status `json:"status"`
	HelpfulNotes *string        `json:"helpful_notes"`
	// AssignedTo accepts a user ID for manual assignment or an empty
	// string to unassign. Nil leaves the assignment untouched.
	AssignedTo *string `json:"assigned_to"`
}

func (s *Server) handleUpdateTicket(c *gin.Context) {
	ticketID, err := id.ParseTicketID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ticket id"})
		return
	}

	var req updateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := ticket.Patch{HelpfulNotes: req.HelpfulNotes}
	if req.Status != nil {
		if !req.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
			return
		}
		patch.Status = req.Status
	}
	if req.AssignedTo != nil {
		if *req.AssignedTo == "" {
			var unassigned *id.ID
			patch.AssignedTo = &unassigned
		} else {
			assigneeID, perr := id.ParseUserID(*req.AssignedTo)
			if perr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid assignee id"})
				return
			}
			if _, uerr := s.engine.Stores().GetUser(c.Request.Context(), assigneeID); uerr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "assignee not found"})
				return
			}
			assignee := &assigneeID
			patch.AssignedTo = &assignee
		}
	}

	t, err := s.engine.Stores().UpdateTicket(c.Request.Context(), ticketID, patch)
	if err != nil {
		if errors.Is(err, fluxdesk.ErrTicketNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "ticket not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update ticket"})
		return
	}
	c.JSON(http.StatusOK, t)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
