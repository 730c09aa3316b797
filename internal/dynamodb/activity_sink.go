package dynamodb

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamoTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/flexprice/ledger/internal/config"
	"github.com/flexprice/ledger/internal/domain/activity"
	ierr "github.com/flexprice/ledger/internal/errors"
	"github.com/flexprice/ledger/internal/logger"
)

// putItemAPI is the part of the dynamodb client the sink needs
type putItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// ActivitySink appends audit entries to a DynamoDB table partitioned by subject
type ActivitySink struct {
	db        putItemAPI
	tableName string
	logger    *logger.Logger
}

func NewActivitySink(client *Client, cfg *config.Configuration, logger *logger.Logger) *ActivitySink {
	return newActivitySink(client.DB(), cfg.DynamoDB.ActivityTableName, logger)
}

func newActivitySink(db putItemAPI, tableName string, logger *logger.Logger) *ActivitySink {
	return &ActivitySink{
		db:        db,
		tableName: tableName,
		logger:    logger,
	}
}

type activityItem struct {
	PK          string    `dynamodbav:"pk"` // subject_type#subject_id
	SK          string    `dynamodbav:"sk"` // occurred_at#id
	ID          string    `dynamodbav:"id"`
	ActorID     string    `dynamodbav:"actor_id"`
	Action      string    `dynamodbav:"action"`
	SubjectType string    `dynamodbav:"subject_type"`
	SubjectID   int64     `dynamodbav:"subject_id"`
	Metadata    string    `dynamodbav:"metadata"`
	OccurredAt  time.Time `dynamodbav:"occurred_at"`
}

// Append writes the entry unless an entry with the same key exists
func (s *ActivitySink) Append(ctx context.Context, entry *activity.Entry) error {
	item, err := attributevalue.MarshalMap(&activityItem{
		PK:          entry.SubjectType + "#" + strconv.FormatInt(entry.SubjectID, 10),
		SK:          entry.OccurredAt.UTC().Format(time.RFC3339Nano) + "#" + entry.ID,
		ID:          entry.ID,
		ActorID:     entry.ActorID,
		Action:      entry.Action,
		SubjectType: entry.SubjectType,
		SubjectID:   entry.SubjectID,
		Metadata:    string(entry.Metadata),
		OccurredAt:  entry.OccurredAt,
	})
	if err != nil {
		return ierr.WithError(err).
			WithHint("Failed to marshal activity entry").
			Mark(ierr.ErrSystem)
	}

	_, err = s.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(pk)"),
	})
	if err != nil {
		var exists *dynamoTypes.ConditionalCheckFailedException
		if errors.As(err, &exists) {
			s.logger.WithContext(ctx).Debugw("activity entry already written", "activity_id", entry.ID)
			return nil
		}
		return ierr.WithError(err).
			WithHint("Failed to put activity entry in dynamodb").
			Mark(ierr.ErrDatabase)
	}
	return nil
}
