package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/mfi_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/mfi_ledger/internal/core/ports/services"
	"github.com/SscSPs/mfi_ledger/internal/dto"
	"github.com/SscSPs/mfi_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

type journalHandler struct {
	journalService portssvc.JournalSvcFacade
}

// registerJournalRoutes registers the journal entry workflow routes.
func registerJournalRoutes(rg *gin.RouterGroup, journalService portssvc.JournalSvcFacade) {
	h := &journalHandler{journalService: journalService}

	entries := rg.Group("/journal-entries")
	{
		entries.POST("", h.createEntry)
		entries.GET("", h.listEntries)
		entries.GET("/:id", h.getEntry)
		entries.DELETE("/:id", h.abandonEntry)
		entries.POST("/:id/lines", h.addLines)
		entries.POST("/:id/submit", h.submitEntry)
		entries.POST("/:id/approve", h.approveEntry)
		entries.POST("/:id/reject", h.rejectEntry)
		entries.POST("/:id/post", h.postEntry)
		entries.POST("/:id/reverse", h.reverseEntry)
	}
}

// createEntry godoc
// @Summary Create a draft journal entry
// @Description Creates a Draft entry, optionally with its first lines
// @Tags journal-entries
// @Accept  json
// @Produce  json
// @Param   entry body dto.CreateJournalEntryRequest true "Entry details"
// @Success 201 {object} dto.JournalEntryResponse
// @Failure 400 {object} ErrorResponse "Invalid input"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Security BearerAuth
// @Router /journal-entries [post]
func (h *journalHandler) createEntry(c *gin.Context) {
	var req dto.CreateJournalEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	entry, err := h.journalService.CreateDraft(c.Request.Context(), req, userID)
	if err != nil {
		respondError(c, err, "create journal entry")
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Journal entry drafted",
		slog.String("entry_id", entry.EntryID), slog.String("reference", entry.ReferenceNumber))
	c.JSON(http.StatusCreated, dto.ToJournalEntryResponse(entry))
}

// listEntries godoc
// @Summary List journal entries
// @Description Newest first, paged with an opaque token
// @Tags journal-entries
// @Produce  json
// @Param   limit query int false "Page size" default(20)
// @Param   nextToken query string false "Token from the previous page"
// @Param   status query string false "Filter by status"
// @Param   entryType query string false "Filter by entry type"
// @Param   periodID query string false "Filter by period"
// @Success 200 {object} dto.ListJournalEntriesResponse
// @Failure 400 {object} ErrorResponse "Invalid token or filter"
// @Security BearerAuth
// @Router /journal-entries [get]
func (h *journalHandler) listEntries(c *gin.Context) {
	var params dto.ListJournalEntriesParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, err)
		return
	}
	params.Limit = clampLimit(params.Limit, 20, 200)

	entries, nextToken, err := h.journalService.ListEntries(c.Request.Context(), params)
	if err != nil {
		respondError(c, err, "list journal entries")
		return
	}
	c.JSON(http.StatusOK, dto.ToListJournalEntriesResponse(entries, nextToken))
}

// getEntry godoc
// @Summary Get a journal entry with its lines
// @Tags journal-entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 404 {object} ErrorResponse "Entry not found"
// @Security BearerAuth
// @Router /journal-entries/{id} [get]
func (h *journalHandler) getEntry(c *gin.Context) {
	entry, err := h.journalService.GetEntryByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "get journal entry")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// abandonEntry godoc
// @Summary Delete an unposted journal entry
// @Tags journal-entries
// @Param   id path string true "Entry ID"
// @Success 204 "No Content"
// @Failure 404 {object} ErrorResponse "Entry not found"
// @Failure 409 {object} ErrorResponse "Entry is posted"
// @Security BearerAuth
// @Router /journal-entries/{id} [delete]
func (h *journalHandler) abandonEntry(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	if err := h.journalService.AbandonEntry(c.Request.Context(), c.Param("id"), userID); err != nil {
		respondError(c, err, "delete journal entry")
		return
	}
	c.Status(http.StatusNoContent)
}

// addLines godoc
// @Summary Add lines to a draft entry
// @Tags journal-entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   lines body dto.AddJournalLinesRequest true "Lines to append"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 400 {object} ErrorResponse "Invalid line"
// @Failure 409 {object} ErrorResponse "Entry is not editable"
// @Security BearerAuth
// @Router /journal-entries/{id}/lines [post]
func (h *journalHandler) addLines(c *gin.Context) {
	var req dto.AddJournalLinesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	entry, err := h.journalService.AddLines(c.Request.Context(), c.Param("id"), req.Lines, userID)
	if err != nil {
		respondError(c, err, "add journal lines")
		return
	}
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}

// submitEntry godoc
// @Summary Submit a draft for approval
// @Description The entry must be balanced with at least one debit and one credit line
// @Tags journal-entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 400 {object} ErrorResponse "Unbalanced"
// @Failure 409 {object} ErrorResponse "Entry is not a draft"
// @Security BearerAuth
// @Router /journal-entries/{id}/submit [post]
func (h *journalHandler) submitEntry(c *gin.Context) {
	h.transition(c, "submit journal entry", h.journalService.SubmitEntry)
}

// approveEntry godoc
// @Summary Approve a pending entry
// @Tags journal-entries
// @Produce  json
// @Param   id path string true "Entry ID"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 409 {object} ErrorResponse "Entry is not pending"
// @Security BearerAuth
// @Router /journal-entries/{id}/approve [post]
func (h *journalHandler) approveEntry(c *gin.Context) {
	h.transition(c, "approve journal entry", h.journalService.ApproveEntry)
}

// rejectEntry godoc
// @Summary Send a pending entry back to draft
// @Tags journal-entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   body body dto.ReasonRequest true "Rejection reason"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 409 {object} ErrorResponse "Entry is not pending"
// @Security BearerAuth
// @Router /journal-entries/{id}/reject [post]
func (h *journalHandler) rejectEntry(c *gin.Context) {
	var req dto.ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	h.transition(c, "reject journal entry", func(ctx context.Context, entryID, userID string) (*domain.JournalEntry, error) {
		return h.journalService.RejectEntry(ctx, entryID, req.Reason, userID)
	})
}

// postEntry godoc
// @Summary Post an approved entry
// @Description Applies every line to its account balance. The posting date must fall in an open period.
// @Tags journal-entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   body body dto.PostJournalEntryRequest false "Optional posting date"
// @Success 200 {object} dto.JournalEntryResponse
// @Failure 409 {object} ErrorResponse "Entry is not approved, or concurrent modification (retryable)"
// @Failure 422 {object} ErrorResponse "No open period for the posting date"
// @Security BearerAuth
// @Router /journal-entries/{id}/post [post]
func (h *journalHandler) postEntry(c *gin.Context) {
	var req dto.PostJournalEntryRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.transition(c, "post journal entry", func(ctx context.Context, entryID, userID string) (*domain.JournalEntry, error) {
		return h.journalService.PostEntry(ctx, entryID, req.PostingDate, userID)
	})
}

// reverseEntry godoc
// @Summary Reverse a posted entry
// @Description Creates and posts a mirror entry and marks the original Reversed
// @Tags journal-entries
// @Accept  json
// @Produce  json
// @Param   id path string true "Entry ID"
// @Param   body body dto.ReverseJournalEntryRequest false "Optional reversal date"
// @Success 200 {object} dto.JournalEntryResponse "The reversing entry"
// @Failure 409 {object} ErrorResponse "Entry is not posted"
// @Failure 422 {object} ErrorResponse "Reversal period is not open"
// @Security BearerAuth
// @Router /journal-entries/{id}/reverse [post]
func (h *journalHandler) reverseEntry(c *gin.Context) {
	var req dto.ReverseJournalEntryRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.transition(c, "reverse journal entry", func(ctx context.Context, entryID, userID string) (*domain.JournalEntry, error) {
		return h.journalService.ReverseEntry(ctx, entryID, req, userID)
	})
}

func (h *journalHandler) transition(c *gin.Context, action string,
	fn func(ctx context.Context, entryID, userID string) (*domain.JournalEntry, error)) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	entry, err := fn(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		respondError(c, err, action)
		return
	}
	middleware.GetLoggerFromCtx(c.Request.Context()).Info("Journal entry transitioned",
		slog.String("entry_id", entry.EntryID), slog.String("status", string(entry.Status)))
	c.JSON(http.StatusOK, dto.ToJournalEntryResponse(entry))
}
