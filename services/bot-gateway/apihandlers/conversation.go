package apihandlers

import (
	"log/slog"
	"net/http"

	mw "github.com/SpitiusK/SurveyBot-sub011/pkg/apihelpers/middlewares"
	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/engine"
	"github.com/gin-gonic/gin"
)

func (h *HttpEndpoints) AddConversationAPI(rg *gin.RouterGroup) {
	conversation := rg.Group("/conversation")
	conversation.POST("/turn", mw.RequirePayload(), h.handleTurn)
}

// TurnRequest is one inbound respondent message from the chat adapter.
type TurnRequest struct {
	RespondentID string           `json:"respondentId"`
	Turn         engine.TurnInput `json:"turn"`
}

func (h *HttpEndpoints) handleTurn(c *gin.Context) {
	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("handleTurn: failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.RespondentID == "" {
		slog.Warn("handleTurn: missing respondent ID")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing respondent ID"})
		return
	}

	outcome, err := h.conversationEngine.HandleTurn(c.Request.Context(), req.RespondentID, req.Turn)
	if err != nil {
		slog.Error("handleTurn: turn failed",
			slog.String("respondentID", req.RespondentID),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process turn"})
		return
	}

	c.JSON(http.StatusOK, outcome)
}
