package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mehmaan/mehmaan/internal/apperr"
	"github.com/mehmaan/mehmaan/internal/models"
	"github.com/sirupsen/logrus"
)

// ProfileRepository stores profiles and the username claim items that
// back case-insensitive username uniqueness. A claim item keyed by the
// lowercased username is inserted conditionally; the loser of a race
// for the same name gets conflict_error.
type ProfileRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *logrus.Logger
}

func NewProfileRepository(client *dynamodb.Client, tableName string, logger *logrus.Logger) *ProfileRepository {
	return &ProfileRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

func usernamePK(username string) string {
	return "USERNAME#" + strings.ToLower(username)
}

// Get returns the profile for a user, or nil when none exists yet.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile := &models.Profile{UserID: userID}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: profile.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: profile.GetSK()},
		},
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to get profile from DynamoDB")
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var dbProfile models.Profile
	if err := attributevalue.UnmarshalMap(result.Item, &dbProfile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &dbProfile, nil
}

// Put writes the profile item unconditionally; uniqueness is enforced
// through the username claim, not the profile item.
func (r *ProfileRepository) Put(ctx context.Context, profile *models.Profile) error {
	item, err := attributevalue.MarshalMap(profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	item["PK"] = &types.AttributeValueMemberS{Value: profile.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: profile.GetSK()}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		r.logger.WithError(err).Error("Failed to store profile in DynamoDB")
		return fmt.Errorf("failed to store profile: %w", err)
	}
	return nil
}

// ClaimUsername reserves a username for a user. Reclaiming a name the
// same user already holds succeeds.
func (r *ProfileRepository) ClaimUsername(ctx context.Context, username, userID string) error {
	_, err := r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			"PK":      &types.AttributeValueMemberS{Value: usernamePK(username)},
			"SK":      &types.AttributeValueMemberS{Value: "CLAIM"},
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
		ConditionExpression: aws.String("attribute_not_exists(PK) OR user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return apperr.New(apperr.KindConflict, "this username is already taken")
		}
		r.logger.WithError(err).Error("Failed to claim username in DynamoDB")
		return fmt.Errorf("failed to claim username: %w", err)
	}
	return nil
}

// ReleaseUsername frees a previously held claim. Only the owner's
// claim is deleted, so racing releases cannot drop someone else's name.
func (r *ProfileRepository) ReleaseUsername(ctx context.Context, username, userID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: usernamePK(username)},
			"SK": &types.AttributeValueMemberS{Value: "CLAIM"},
		},
		ConditionExpression: aws.String("user_id = :uid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":uid": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil
		}
		return fmt.Errorf("failed to release username: %w", err)
	}
	return nil
}

// GetUserIDByUsername resolves a username claim, or "" when unclaimed.
func (r *ProfileRepository) GetUserIDByUsername(ctx context.Context, username string) (string, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: usernamePK(username)},
			"SK": &types.AttributeValueMemberS{Value: "CLAIM"},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve username: %w", err)
	}
	if result.Item == nil {
		return "", nil
	}

	var claim struct {
		UserID string `dynamodbav:"user_id"`
	}
	if err := attributevalue.UnmarshalMap(result.Item, &claim); err != nil {
		return "", fmt.Errorf("failed to unmarshal username claim: %w", err)
	}
	return claim.UserID, nil
}
