package surveys

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	surveyTypes "github.com/SpitiusK/SurveyBot-sub011/pkg/surveys/types"
)

func (dbService *SurveyDBService) createIndexForResponsesCollection() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "surveyKey", Value: 1},
				{Key: "respondentID", Value: 1},
				{Key: "status", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "startedAt", Value: 1},
			},
		},
	}
	_, err := dbService.collectionResponses().Indexes().CreateMany(ctx, indexes)
	return err
}

func (dbService *SurveyDBService) createIndexForAnswersCollection() error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "responseID", Value: 1},
				{Key: "questionID", Value: 1},
			},
			Options: options.Index().SetName("responseID_questionID_1").SetUnique(true),
		},
	}
	_, err := dbService.collectionAnswers().Indexes().CreateMany(ctx, indexes)
	return err
}

// CreateResponse opens a new in-progress response record and returns its ID.
func (dbService *SurveyDBService) CreateResponse(surveyKey string, respondentID string) (string, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	response := surveyTypes.SurveyResponse{
		SurveyKey:    surveyKey,
		RespondentID: respondentID,
		Status:       surveyTypes.RESPONSE_STATUS_IN_PROGRESS,
		StartedAt:    time.Now().Unix(),
	}

	res, err := dbService.collectionResponses().InsertOne(ctx, response)
	if err != nil {
		return "", err
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", errors.New("unexpected inserted ID type for response")
	}
	return id.Hex(), nil
}

// SaveAnswer upserts the answer for (responseID, questionID); re-answering
// after back navigation replaces the earlier record.
func (dbService *SurveyDBService) SaveAnswer(responseID string, answer surveyTypes.Answer) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	answer.ResponseID = responseID
	filter := bson.M{
		"responseID": responseID,
		"questionID": answer.QuestionID,
	}
	update := bson.M{"$set": bson.M{
		"position":     answer.Position,
		"value":        answer.Value,
		"resolvedNext": answer.ResolvedNext,
		"updatedAt":    time.Now().Unix(),
	}}
	upsert := true
	_, err := dbService.collectionAnswers().UpdateOne(ctx, filter, update, &options.UpdateOptions{Upsert: &upsert})
	return err
}

func (dbService *SurveyDBService) FinalizeResponse(responseID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(responseID)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": _id}
	update := bson.M{"$set": bson.M{
		"status":      surveyTypes.RESPONSE_STATUS_COMPLETED,
		"submittedAt": time.Now().Unix(),
	}}

	res, err := dbService.collectionResponses().UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if res.MatchedCount < 1 {
		return errors.New("response not found")
	}
	return nil
}

// DiscardResponse deletes a cancelled in-progress response together with its
// answers.
func (dbService *SurveyDBService) DiscardResponse(responseID string) error {
	ctx, cancel := dbService.getContext()
	defer cancel()

	_id, err := primitive.ObjectIDFromHex(responseID)
	if err != nil {
		return err
	}

	if _, err := dbService.collectionAnswers().DeleteMany(ctx, bson.M{"responseID": responseID}); err != nil {
		return err
	}
	_, err = dbService.collectionResponses().DeleteOne(ctx, bson.M{"_id": _id})
	return err
}

func (dbService *SurveyDBService) HasCompletedResponse(surveyKey string, respondentID string) (bool, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"surveyKey":    surveyKey,
		"respondentID": respondentID,
		"status":       surveyTypes.RESPONSE_STATUS_COMPLETED,
	}
	count, err := dbService.collectionResponses().CountDocuments(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (dbService *SurveyDBService) GetResponses(surveyKey string, page int64, limit int64) (responses []surveyTypes.SurveyResponse, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	filter := bson.M{"surveyKey": surveyKey}
	opts := options.Find().
		SetSort(bson.D{{Key: "startedAt", Value: -1}}).
		SetSkip((page - 1) * limit).
		SetLimit(limit)

	cursor, err := dbService.collectionResponses().Find(ctx, filter, opts)
	if err != nil {
		return responses, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &responses)
	return responses, err
}

func (dbService *SurveyDBService) GetAnswers(responseID string) (answers []surveyTypes.Answer, err error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{"responseID": responseID}
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})

	cursor, err := dbService.collectionAnswers().Find(ctx, filter, opts)
	if err != nil {
		return answers, err
	}
	defer cursor.Close(ctx)

	err = cursor.All(ctx, &answers)
	return answers, err
}

// DeleteAbandonedResponses removes in-progress responses older than the
// given cutoff, along with their answers. Used by the cleanup job.
func (dbService *SurveyDBService) DeleteAbandonedResponses(olderThan time.Time) (int64, error) {
	ctx, cancel := dbService.getContext()
	defer cancel()

	filter := bson.M{
		"status":    surveyTypes.RESPONSE_STATUS_IN_PROGRESS,
		"startedAt": bson.M{"$lt": olderThan.Unix()},
	}

	cursor, err := dbService.collectionResponses().Find(ctx, filter)
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	var stale []surveyTypes.SurveyResponse
	if err := cursor.All(ctx, &stale); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]primitive.ObjectID, 0, len(stale))
	hexIDs := make([]string, 0, len(stale))
	for _, r := range stale {
		ids = append(ids, r.ID)
		hexIDs = append(hexIDs, r.ID.Hex())
	}

	if _, err := dbService.collectionAnswers().DeleteMany(ctx, bson.M{"responseID": bson.M{"$in": hexIDs}}); err != nil {
		return 0, err
	}
	res, err := dbService.collectionResponses().DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
