package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/yaml.v2"

	"github.com/SpitiusK/SurveyBot-sub011/pkg/apihelpers"
	"github.com/SpitiusK/SurveyBot-sub011/pkg/db"
	"github.com/SpitiusK/SurveyBot-sub011/pkg/utils"

	surveyDB "github.com/SpitiusK/SurveyBot-sub011/pkg/db/surveys"
)

// Environment variables
const (
	ENV_CONFIG_FILE_PATH = "CONFIG_FILE_PATH"

	// Variables to override "secrets" in the config file
	ENV_SURVEY_DB_USERNAME    = "SURVEY_DB_USERNAME"
	ENV_SURVEY_DB_PASSWORD    = "SURVEY_DB_PASSWORD"
	ENV_OPERATOR_JWT_SIGN_KEY = "OPERATOR_JWT_SIGN_KEY"

	// Optional override for the conversation session inactivity window
	ENV_SESSION_INACTIVITY_WINDOW = "SESSION_INACTIVITY_WINDOW"
)

type BotGatewayConfig struct {
	// Logging configs
	Logging utils.LoggerConfig `json:"logging" yaml:"logging"`

	// Gin configs
	GinConfig struct {
		DebugMode    bool     `json:"debug_mode" yaml:"debug_mode"`
		AllowOrigins []string `json:"allow_origins" yaml:"allow_origins"`
		Port         string   `json:"port" yaml:"port"`

		// Mutual TLS configs
		MTLS struct {
			Use              bool                        `json:"use" yaml:"use"`
			CertificatePaths apihelpers.CertificatePaths `json:"certificate_paths" yaml:"certificate_paths"`
		} `json:"mtls" yaml:"mtls"`
	} `json:"gin_config" yaml:"gin_config"`

	// Operator auth configs
	OperatorAuthConfig struct {
		JWTSignKey     string        `json:"jwt_sign_key" yaml:"jwt_sign_key"`
		TokenExpiresIn time.Duration `json:"token_expires_in" yaml:"token_expires_in"`
	} `json:"operator_auth_config" yaml:"operator_auth_config"`

	// Conversation session configs
	SessionConfig struct {
		InactivityWindow time.Duration `json:"inactivity_window" yaml:"inactivity_window"`
		SweepInterval    time.Duration `json:"sweep_interval" yaml:"sweep_interval"`
	} `json:"session_config" yaml:"session_config"`

	// DB configs
	DBConfigs struct {
		SurveyDB db.DBConfigYaml `json:"survey_db" yaml:"survey_db"`
	} `json:"db_configs" yaml:"db_configs"`
}

var (
	conf            BotGatewayConfig
	surveyDBService *surveyDB.SurveyDBService
)

func init() {
	// Read config from file
	yamlFile, err := os.ReadFile(os.Getenv(ENV_CONFIG_FILE_PATH))
	if err != nil {
		panic(err)
	}

	err = yaml.UnmarshalStrict(yamlFile, &conf)
	if err != nil {
		panic(err)
	}

	// Init logger:
	utils.InitLogger(
		conf.Logging.LogLevel,
		conf.Logging.IncludeSrc,
		conf.Logging.LogToFile,
		conf.Logging.Filename,
		conf.Logging.MaxSize,
		conf.Logging.MaxAge,
		conf.Logging.MaxBackups,
		conf.Logging.CompressOldLogs,
	)

	// Override secrets from environment variables
	secretsOverride()

	if windowVal := os.Getenv(ENV_SESSION_INACTIVITY_WINDOW); windowVal != "" {
		window, err := utils.ParseDurationString(windowVal)
		if err != nil {
			slog.Error("error parsing session inactivity window", slog.String("error", err.Error()), slog.String("value", windowVal))
			panic(err)
		}
		conf.SessionConfig.InactivityWindow = window
	}

	// Init DBs
	initDBs()

	if !conf.GinConfig.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
}

func secretsOverride() {
	if dbUsername := os.Getenv(ENV_SURVEY_DB_USERNAME); dbUsername != "" {
		conf.DBConfigs.SurveyDB.Username = dbUsername
	}

	if dbPassword := os.Getenv(ENV_SURVEY_DB_PASSWORD); dbPassword != "" {
		conf.DBConfigs.SurveyDB.Password = dbPassword
	}

	if operatorJwtSignKey := os.Getenv(ENV_OPERATOR_JWT_SIGN_KEY); operatorJwtSignKey != "" {
		conf.OperatorAuthConfig.JWTSignKey = operatorJwtSignKey
	}
}

func initDBs() {
	var err error
	surveyDBService, err = surveyDB.NewSurveyDBService(db.DBConfigFromYamlObj(conf.DBConfigs.SurveyDB))
	if err != nil {
		slog.Error("Error connecting to Survey DB", slog.String("error", err.Error()))
		return
	}
}
