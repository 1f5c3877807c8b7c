package surveys

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/engine"
	surveyTypes "github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/types"
)

var indexesForSurveysCollection = []mongo.IndexModel{
	{
		Keys: bson.D{
			{Key: "surveyKey", Value: 1},
		},
		Options: options.Index().SetName("surveyKey_1").SetUnique(true),
	},
	{
		Keys: bson.D{
			{Key: "status", Value: 1},
		},
		Options: options.Index().SetName("status_1"),
	},
}

func (dbService *SurveyDBService) createIndexForSurveysCollection() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_, err := dbService.collectionSurveys().Indexes().CreateMany(ctx, indexesForSurveysCollection)
	return err
}

func (dbService *SurveyDBService) SaveSurvey(survey surveyTypes.Survey) (surveyTypes.Survey, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if survey.Status == "" {
		survey.Status = surveyTypes.SURVEY_STATUS_DRAFT
	}

	filter := bson.M{"surveyKey": survey.SurveyKey}
	upsert := true
	after := options.After
	opts := options.FindOneAndReplaceOptions{
		Upsert:         &upsert,
		ReturnDocument: &after,
	}

	var saved surveyTypes.Survey
	err := dbService.collectionSurveys().FindOneAndReplace(ctx, filter, survey, &opts).Decode(&saved)
	return saved, err
}

func (dbService *SurveyDBService) GetSurveyByKey(surveyKey string) (survey surveyTypes.Survey, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"surveyKey": surveyKey}
	err = dbService.collectionSurveys().FindOne(ctx, filter).Decode(&survey)
	return survey, err
}

// GetActiveSurvey implements the engine's survey catalog contract: only
// surveys in active status accept respondents.
func (dbService *SurveyDBService) GetActiveSurvey(surveyKey string) (*surveyTypes.Survey, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"surveyKey": surveyKey,
		"status":    surveyTypes.SURVEY_STATUS_ACTIVE,
	}

	var survey surveyTypes.Survey
	err := dbService.collectionSurveys().FindOne(ctx, filter).Decode(&survey)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, engine.ErrSurveyNotFound
		}
		return nil, err
	}
	return &survey, nil
}

func (dbService *SurveyDBService) UpdateSurveyStatus(surveyKey string, status string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"surveyKey": surveyKey}
	update := bson.M{"$set": bson.M{"status": status}}
	if status == surveyTypes.SURVEY_STATUS_ACTIVE {
		update = bson.M{"$set": bson.M{
			"status":    status,
			"published": time.Now().Unix(),
		}}
	}

	res, err := dbService.collectionSurveys().UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return errors.New("survey not found")
	}
	return nil
}

func (dbService *SurveyDBService) GetSurveys(status string) (surveys []surveyTypes.Survey, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cursor, err := dbService.collectionSurveys().Find(ctx, filter)
	if err != nil {
		return surveys, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &surveys)
	return surveys, err
}
