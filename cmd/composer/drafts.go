package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"scv_loans/pkg/loan"
	"scv_loans/pkg/models"
	"scv_loans/pkg/scv"
)

func (g *gateway) createDraft(c *gin.Context) {
	d := loan.NewDraft()
	d.SetMovies(g.movies(c.Request.Context()))

	snapshot := d.Snapshot()
	id, _ := g.sessions.create(d)

	c.JSON(http.StatusCreated, gin.H{
		"id":    id,
		"draft": snapshot,
	})
}

// withSession resolves the :id param and runs fn with the session locked.
func (g *gateway) withSession(c *gin.Context, fn func(s *session)) {
	s, ok := g.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "draft not found"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func (g *gateway) getDraft(c *gin.Context) {
	g.withSession(c, func(s *session) {
		c.JSON(http.StatusOK, s.draft.Snapshot())
	})
}

func (g *gateway) discardDraft(c *gin.Context) {
	if !g.sessions.remove(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"message": "draft not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (g *gateway) resetDraft(c *gin.Context) {
	g.withSession(c, func(s *session) {
		s.draft.Reset()
		c.JSON(http.StatusOK, s.draft.Snapshot())
	})
}

func (g *gateway) updateDraft(c *gin.Context) {
	var request struct {
		Field string `json:"field" binding:"required"`
		Value string `json:"value"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "validation error", "error": err.Error()})
		return
	}
	g.withSession(c, func(s *session) {
		if err := s.draft.Update(loan.Field(request.Field), request.Value); err != nil {
			respondDraftError(c, err)
			return
		}
		c.JSON(http.StatusOK, s.draft.Snapshot())
	})
}

// selectMovie starts a pool request and fetches the tapes without holding the
// session lock. When another selection happened meanwhile the fetched pool is
// dropped and the response reports applied=false.
func (g *gateway) selectMovie(c *gin.Context) {
	var request struct {
		MovieID uint `json:"movieId"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "validation error", "error": err.Error()})
		return
	}
	s, ok := g.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "draft not found"})
		return
	}
	ctx := c.Request.Context()

	s.mu.Lock()
	ticket := s.draft.SelectMovie(request.MovieID)
	knownMovie := request.MovieID == 0 || s.draft.HasMovie(request.MovieID)
	s.mu.Unlock()

	if request.MovieID == 0 {
		s.mu.Lock()
		defer s.mu.Unlock()
		c.JSON(http.StatusOK, gin.H{"applied": false, "draft": s.draft.Snapshot()})
		return
	}

	tapes := loan.FetchAvailable(ctx, g.api, request.MovieID, g.logger)
	// a movie missing from the draft's catalog would be priced with the
	// default tier, so reload the catalog first
	var movies []models.Filme
	if !knownMovie {
		movies = g.movies(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(movies) > 0 {
		s.draft.SetMovies(movies)
	}
	applied := s.draft.ApplyPool(ticket, tapes)
	if !applied {
		g.logger.Debug("discarding stale tape pool", zap.Uint("movieId", request.MovieID))
	}
	c.JSON(http.StatusOK, gin.H{"applied": applied, "draft": s.draft.Snapshot()})
}

func (g *gateway) addItem(c *gin.Context) {
	var request struct {
		TapeID uint `json:"tapeId"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "validation error", "error": err.Error()})
		return
	}
	g.withSession(c, func(s *session) {
		item, err := s.draft.AddItem(request.TapeID)
		if err != nil {
			respondDraftError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"item": item, "draft": s.draft.Snapshot()})
	})
}

func (g *gateway) removeItem(c *gin.Context) {
	tapeID, err := strconv.ParseUint(c.Param("tapeId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid tape id"})
		return
	}
	g.withSession(c, func(s *session) {
		s.draft.RemoveItem(uint(tapeID))
		c.JSON(http.StatusOK, s.draft.Snapshot())
	})
}

// submit sends the draft to the SCV API. On success the draft is reset and
// the stored loan goes to the front of the loan list, or replaces its old
// entry when the draft was editing it.
func (g *gateway) submit(c *gin.Context) {
	g.withSession(c, func(s *session) {
		payload, err := s.draft.SubmitPayload()
		if err != nil {
			respondDraftError(c, err)
			return
		}

		stored, err := g.api.SaveEmprestimo(c.Request.Context(), s.draft.LoanID(), payload)
		if err != nil {
			g.logger.Warn("failed to save loan", zap.Uint("loanId", s.draft.LoanID()), zap.Error(err))
			c.JSON(scv.StatusCode(err), gin.H{"message": scv.ErrorMessage(err, scv.FallbackSave)})
			return
		}

		g.loans.put(stored)
		s.draft.Reset()
		c.JSON(http.StatusOK, gin.H{"loan": stored, "draft": s.draft.Snapshot()})
	})
}

func (g *gateway) editLoan(c *gin.Context) {
	loanID, err := strconv.ParseUint(c.Param("loanId"), 10, 64)
	if err != nil || loanID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "invalid loan id"})
		return
	}
	s, ok := g.sessions.get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "draft not found"})
		return
	}

	stored, found := g.loans.get(uint(loanID))
	if !found {
		stored, err = g.api.Emprestimo(c.Request.Context(), uint(loanID))
		if err != nil {
			c.JSON(scv.StatusCode(err), gin.H{"message": scv.ErrorMessage(err, scv.FallbackLoad)})
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.LoadLoan(stored)
	c.JSON(http.StatusOK, s.draft.Snapshot())
}

func respondDraftError(c *gin.Context, err error) {
	if loan.IsValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
}
