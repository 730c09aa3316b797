package dynamodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamoTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/flexprice/ledger/internal/domain/activity"
	"github.com/flexprice/ledger/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTable struct {
	inputs []*dynamodb.PutItemInput
	err    error
}

func (f *fakeTable) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.PutItemOutput{}, nil
}

func testEntry() *activity.Entry {
	return &activity.Entry{
		ID:          "act_01JTEST",
		ActorID:     "user_1",
		Action:      "invoice.paid",
		SubjectType: "invoice",
		SubjectID:   42,
		Metadata:    []byte(`{"override":true}`),
		OccurredAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestActivitySinkPutsItem(t *testing.T) {
	table := &fakeTable{}
	sink := newActivitySink(table, "ledger_activity", logger.NewNoopLogger())

	require.NoError(t, sink.Append(context.Background(), testEntry()))
	require.Len(t, table.inputs, 1)

	input := table.inputs[0]
	assert.Equal(t, "ledger_activity", aws.ToString(input.TableName))
	assert.Equal(t, "attribute_not_exists(pk)", aws.ToString(input.ConditionExpression))

	var item activityItem
	require.NoError(t, attributevalue.UnmarshalMap(input.Item, &item))
	assert.Equal(t, "invoice#42", item.PK)
	assert.Equal(t, "2026-03-01T12:00:00Z#act_01JTEST", item.SK)
	assert.Equal(t, `{"override":true}`, item.Metadata)
}

func TestActivitySinkIgnoresDuplicates(t *testing.T) {
	table := &fakeTable{err: &dynamoTypes.ConditionalCheckFailedException{Message: aws.String("exists")}}
	sink := newActivitySink(table, "ledger_activity", logger.NewNoopLogger())

	assert.NoError(t, sink.Append(context.Background(), testEntry()))
}

func TestActivitySinkReturnsOtherErrors(t *testing.T) {
	table := &fakeTable{err: errors.New("throttled")}
	sink := newActivitySink(table, "ledger_activity", logger.NewNoopLogger())

	assert.Error(t, sink.Append(context.Background(), testEntry()))
}
