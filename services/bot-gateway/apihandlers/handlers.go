package apihandlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"time"

	surveyDB "github.com/SpitiusK/SurveyBot-sub011/pkg/db/surveys"
	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/engine"
	"github.com/gin-gonic/gin"
)

func HealthCheckHandle(c *gin.Context) {
	serviceInfos := make(map[string]interface{})
	infos, err := os.ReadFile("serviceInfos.json")
	if err != nil {
		slog.Debug("Error reading serviceInfos.json", slog.String("error", err.Error()))
	} else {
		err = json.Unmarshal(infos, &serviceInfos)
		if err != nil {
			slog.Debug("Error unmarshalling serviceInfos.json", slog.String("error", err.Error()))
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"serviceInfos": serviceInfos,
	})
}

type HttpEndpoints struct {
	tokenSignKey       string
	tokenExpiresIn     time.Duration
	conversationEngine *engine.Engine
	surveyDBConn       *surveyDB.SurveyDBService
}

func NewHTTPHandler(
	tokenSignKey string,
	tokenExpiresIn time.Duration,
	conversationEngine *engine.Engine,
	surveyDBConn *surveyDB.SurveyDBService,
) *HttpEndpoints {
	return &HttpEndpoints{
		tokenSignKey:       tokenSignKey,
		tokenExpiresIn:     tokenExpiresIn,
		conversationEngine: conversationEngine,
		surveyDBConn:       surveyDBConn,
	}
}
