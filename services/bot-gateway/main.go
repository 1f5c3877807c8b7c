package main

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/SpitiusK/SurveyBot-sub011/pkg/apihelpers"
	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/conversation"
	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/engine"
	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/questions"
	"github.com/SpitiusK/SurveyBot-sub011/services/bot-gateway/apihandlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	sessionStore := conversation.NewStore(
		conf.SessionConfig.InactivityWindow,
		conf.SessionConfig.SweepInterval,
	)
	defer sessionStore.Stop()

	conversationEngine := engine.New(
		sessionStore,
		surveyDBService,
		surveyDBService,
		questions.DefaultRegistry(),
	)

	// Start webserver
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     conf.GinConfig.AllowOrigins,
		AllowMethods:     []string{"POST", "GET", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Content-Length"},
		ExposeHeaders:    []string{"Authorization", "Content-Type", "Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Add handlers
	router.GET("/", apihandlers.HealthCheckHandle)
	v1Root := router.Group("/v1")

	v1APIHandlers := apihandlers.NewHTTPHandler(
		conf.OperatorAuthConfig.JWTSignKey,
		conf.OperatorAuthConfig.TokenExpiresIn,
		conversationEngine,
		surveyDBService,
	)
	v1APIHandlers.AddConversationAPI(v1Root)
	v1APIHandlers.AddSurveyManagementAPI(v1Root)

	if conf.GinConfig.DebugMode {
		apihelpers.WriteRoutesToFile(router, "bot-gateway-routes.txt")
	}

	// Start the server
	slog.Info("Starting Bot Gateway API", slog.String("port", conf.GinConfig.Port))
	if !conf.GinConfig.MTLS.Use {
		err := router.Run(":" + conf.GinConfig.Port)
		if err != nil {
			slog.Error("Exited Bot Gateway API", slog.String("error", err.Error()))
			return
		}
	} else {
		// Create tls config for mutual TLS
		tlsConfig, err := apihelpers.LoadTLSConfig(conf.GinConfig.MTLS.CertificatePaths)
		if err != nil {
			slog.Error("Error loading TLS config.", slog.String("error", err.Error()))
			return
		}

		server := &http.Server{
			Addr:      ":" + conf.GinConfig.Port,
			Handler:   router,
			TLSConfig: tlsConfig,
		}

		err = server.ListenAndServeTLS(conf.GinConfig.MTLS.CertificatePaths.ServerCertPath, conf.GinConfig.MTLS.CertificatePaths.ServerKeyPath)
		if err != nil {
			slog.Error("Exited Bot Gateway API", slog.String("error", err.Error()))
			return
		}
	}
}
