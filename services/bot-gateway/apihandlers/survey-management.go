package apihandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/SpitiusK/SurveyBot-sub011/pkg/apihelpers"
	mw "github.com/SpitiusK/SurveyBot-sub011/pkg/apihelpers/middlewares"
	jwthandling "github.com/SpitiusK/SurveyBot-sub011/pkg/jwt-handling"
	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/flow"
	surveyTypes "github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/types"
)

func (h *HttpEndpoints) AddSurveyManagementAPI(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	auth.GET("/renew-token", mw.GetAndValidateOperatorJWT(h.tokenSignKey), h.getRenewToken)

	surveys := rg.Group("/surveys")
	surveys.Use(mw.GetAndValidateOperatorJWT(h.tokenSignKey))
	{
		surveys.GET("", h.getSurveys)
		surveys.POST("", mw.RequirePayload(), h.saveSurvey)
		surveys.GET("/:surveyKey", h.getSurvey)
		surveys.POST("/:surveyKey/activate", h.activateSurvey)
		surveys.POST("/:surveyKey/close", h.closeSurvey)
		surveys.GET("/:surveyKey/responses", h.getSurveyResponses)
	}

	responses := rg.Group("/responses")
	responses.Use(mw.GetAndValidateOperatorJWT(h.tokenSignKey))
	{
		responses.GET("/:responseID/answers", h.getResponseAnswers)
	}
}

func (h *HttpEndpoints) getRenewToken(c *gin.Context) {
	token := c.MustGet("validatedToken").(*jwthandling.OperatorClaims)

	newToken, err := jwthandling.GenerateNewOperatorToken(
		h.tokenExpiresIn,
		token.ID,
		token.IsAdmin,
		token.Payload,
		h.tokenSignKey,
	)
	if err != nil {
		slog.Error("getRenewToken: failed to generate token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": newToken})
}

func (h *HttpEndpoints) getSurveys(c *gin.Context) {
	status := c.DefaultQuery("status", "")

	surveys, err := h.surveyDBConn.GetSurveys(status)
	if err != nil {
		slog.Error("getSurveys: failed to fetch surveys", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch surveys"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"surveys": surveys})
}

// saveSurvey stores a survey definition as a draft. Graph defects are
// tolerated at this stage so operators can save work in progress; they
// are only rejected on activation.
func (h *HttpEndpoints) saveSurvey(c *gin.Context) {
	var survey surveyTypes.Survey
	if err := c.ShouldBindJSON(&survey); err != nil {
		slog.Error("saveSurvey: failed to bind request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if survey.SurveyKey == "" {
		slog.Warn("saveSurvey: missing survey key")
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing survey key"})
		return
	}

	survey.Status = surveyTypes.SURVEY_STATUS_DRAFT

	saved, err := h.surveyDBConn.SaveSurvey(survey)
	if err != nil {
		slog.Error("saveSurvey: failed to save survey",
			slog.String("surveyKey", survey.SurveyKey),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save survey"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"survey": saved})
}

func (h *HttpEndpoints) getSurvey(c *gin.Context) {
	surveyKey := c.Param("surveyKey")

	survey, err := h.surveyDBConn.GetSurveyByKey(surveyKey)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
			return
		}
		slog.Error("getSurvey: failed to fetch survey",
			slog.String("surveyKey", surveyKey),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch survey"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"survey": survey})
}

// activateSurvey runs the graph validator before opening a survey to
// respondents. A detected cycle is reported back with the offending
// question path.
func (h *HttpEndpoints) activateSurvey(c *gin.Context) {
	surveyKey := c.Param("surveyKey")

	survey, err := h.surveyDBConn.GetSurveyByKey(surveyKey)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "survey not found"})
			return
		}
		slog.Error("activateSurvey: failed to fetch survey",
			slog.String("surveyKey", surveyKey),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch survey"})
		return
	}

	if err := flow.Validate(&survey); err != nil {
		var cycleErr *flow.CycleError
		if errors.As(err, &cycleErr) {
			slog.Warn("activateSurvey: survey graph contains a cycle",
				slog.String("surveyKey", surveyKey),
				slog.String("path", cycleErr.Error()))
			c.JSON(http.StatusBadRequest, gin.H{
				"error":     "survey graph contains a cycle",
				"cyclePath": cycleErr.Path,
			})
			return
		}
		slog.Warn("activateSurvey: survey graph rejected",
			slog.String("surveyKey", surveyKey),
			slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.surveyDBConn.UpdateSurveyStatus(surveyKey, surveyTypes.SURVEY_STATUS_ACTIVE); err != nil {
		slog.Error("activateSurvey: failed to update status",
			slog.String("surveyKey", surveyKey),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to activate survey"})
		return
	}

	slog.Info("survey activated", slog.String("surveyKey", surveyKey))
	c.JSON(http.StatusOK, gin.H{"msg": "survey activated"})
}

func (h *HttpEndpoints) closeSurvey(c *gin.Context) {
	surveyKey := c.Param("surveyKey")

	if err := h.surveyDBConn.UpdateSurveyStatus(surveyKey, surveyTypes.SURVEY_STATUS_CLOSED); err != nil {
		slog.Error("closeSurvey: failed to update status",
			slog.String("surveyKey", surveyKey),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to close survey"})
		return
	}

	slog.Info("survey closed", slog.String("surveyKey", surveyKey))
	c.JSON(http.StatusOK, gin.H{"msg": "survey closed"})
}

func (h *HttpEndpoints) getSurveyResponses(c *gin.Context) {
	surveyKey := c.Param("surveyKey")

	query, err := apihelpers.ParsePaginatedQueryFromCtx(c)
	if err != nil {
		slog.Error("getSurveyResponses: failed to parse query", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	responses, err := h.surveyDBConn.GetResponses(surveyKey, query.Page, query.Limit)
	if err != nil {
		slog.Error("getSurveyResponses: failed to fetch responses",
			slog.String("surveyKey", surveyKey),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch responses"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"responses": responses})
}

func (h *HttpEndpoints) getResponseAnswers(c *gin.Context) {
	responseID := c.Param("responseID")

	answers, err := h.surveyDBConn.GetAnswers(responseID)
	if err != nil {
		slog.Error("getResponseAnswers: failed to fetch answers",
			slog.String("responseID", responseID),
			slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch answers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"answers": answers})
}
