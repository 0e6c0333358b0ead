package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/dlq"
	"github.com/fluxdesk/fluxdesk/id"
	"github.com/fluxdesk/fluxdesk/workflow"
)

// handleListRuns lists workflow runs for operational inspection.
func (s *Server) handleListRuns(c *gin.Context) {
	opts := workflow.ListOpts{
		Limit:   queryInt(c, "limit", 50),
		Offset:  queryInt(c, "offset", 0),
		State:   workflow.RunState(c.Query("state")),
		Handler: c.Query("handler"),
	}

	runs, err := s.engine.Runner().Store().ListRuns(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list runs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// handleGetRun returns one run together with its step ledger.
func (s *Server) handleGetRun(c *gin.Context) {
	runID, err := id.ParseRunID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return
	}

	store := s.engine.Runner().Store()
	run, err := store.GetRun(c.Request.Context(), runID)
	if err != nil {
		if errors.Is(err, fluxdesk.ErrRunNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load run"})
		return
	}

	steps, err := store.ListSteps(c.Request.Context(), runID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load step ledger"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"run": run, "steps": steps})
}

func (s *Server) handleListEvents(c *gin.Context) {
	events, err := s.engine.Stores().ListEvents(c.Request.Context(),
		c.Query("name"), queryInt(c, "limit", 50))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list events"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleListDLQ(c *gin.Context) {
	entries, err := s.engine.DLQ().DLQStore().ListDLQ(c.Request.Context(), dlq.ListOpts{
		Limit:   queryInt(c, "limit", 50),
		Offset:  queryInt(c, "offset", 0),
		Handler: c.Query("handler"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list dlq entries"})
		return
	}

	count, err := s.engine.DLQ().DLQStore().CountDLQ(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not count dlq entries"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": count})
}

func (s *Server) handleReplayDLQ(c *gin.Context) {
	entryID, err := id.ParseDLQID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dlq entry id"})
		return
	}

	run, err := s.engine.ReplayDLQ(c.Request.Context(), entryID)
	if err != nil {
		if errors.Is(err, fluxdesk.ErrDLQNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "dlq entry not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not replay dlq entry"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"run": run})
}
