package telemetry

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"golang.org/x/xerrors"
)

// TraceCounter hands out globally unique turn-trace IDs across concurrently
// running AI workers, via a DynamoDB conditional-update counter.
// Generalized from database.DB.getCounter/counter, which reserved ID blocks
// per entity type (hand/player/game); here there is exactly one sequence,
// "turn-trace".
//
// Grounded on database/counter.go's reserve-a-block-then-hand-out-locally
// shape: each UpdateItem call reserves `reserve` IDs at once, so most
// NextID calls are a local mutex-guarded increment rather than a network
// round trip.
type TraceCounter struct {
	ddb         *dynamodb.DynamoDB
	tableName   string
	reserve     int
	mu          sync.Mutex
	nextID      int
	reservedMax int
}

// NewTraceCounter builds a counter against the "<tablePrefix>-Turn-Counters"
// DynamoDB table, reserving IDs reserve at a time.
func NewTraceCounter(sess *session.Session, tablePrefix string, reserve int) *TraceCounter {
	return &TraceCounter{
		ddb:       dynamodb.New(sess),
		tableName: fmt.Sprintf("%s-Turn-Counters", tablePrefix),
		reserve:   reserve,
	}
}

// NextID returns the next globally unique trace ID, reserving a fresh block
// from DynamoDB whenever the local block is exhausted.
func (c *TraceCounter) NextID() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nextID < c.reservedMax {
		id := c.nextID
		c.nextID++
		return id, nil
	}

	result, err := c.ddb.UpdateItem(&dynamodb.UpdateItemInput{
		ReturnValues:     aws.String("UPDATED_OLD"),
		TableName:        aws.String(c.tableName),
		UpdateExpression: aws.String("SET V = V + :i"),
		Key:              map[string]*dynamodb.AttributeValue{"H": {S: aws.String("T")}},
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":i": {N: aws.String(fmt.Sprintf("%d", c.reserve))},
		},
	})
	if err != nil {
		return 0, xerrors.Errorf("telemetry: %s: %w", formatDDBError(err), err)
	}

	attr, ok := result.Attributes["V"]
	if !ok || attr.N == nil {
		return 0, xerrors.New("telemetry: counter update returned no prior value")
	}

	id, err := strconv.Atoi(*attr.N)
	if err != nil {
		return 0, xerrors.Errorf("telemetry: parsing counter value: %w", err)
	}

	c.nextID = id + 1
	c.reservedMax = id + c.reserve
	return id, nil
}

func formatDDBError(err error) string {
	aerr, ok := err.(awserr.Error)
	if !ok {
		return err.Error()
	}
	switch aerr.Code() {
	case dynamodb.ErrCodeConditionalCheckFailedException,
		dynamodb.ErrCodeProvisionedThroughputExceededException,
		dynamodb.ErrCodeResourceNotFoundException,
		dynamodb.ErrCodeItemCollectionSizeLimitExceededException,
		dynamodb.ErrCodeTransactionConflictException,
		dynamodb.ErrCodeRequestLimitExceeded,
		dynamodb.ErrCodeInternalServerError:
		return aerr.Code() + ": " + aerr.Error()
	default:
		return aerr.Error()
	}
}
