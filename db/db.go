package db

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/jsphweid/pitchcoach/model"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// Store keeps the history of analyzed takes.
type Store interface {
	Save(ctx context.Context, r model.PracticeRecord) error
	// List returns the records for one melody, newest first. An empty name
	// lists everything.
	List(ctx context.Context, melodyName string) ([]model.PracticeRecord, error)
}

// Open returns a DynamoDB store for table, or an in-memory one when table is
// empty.
func Open(table, endpoint, region string) (Store, error) {
	if table == "" {
		logrus.Info("no history table configured, keeping history in memory")
		return NewMemory(), nil
	}

	cfg := &aws.Config{Region: aws.String(region)}
	if endpoint != "" {
		cfg.Endpoint = aws.String(endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not create a DynamoDB session")
	}
	return &Dynamo{client: dynamodb.New(sess), table: table}, nil
}

type Dynamo struct {
	client *dynamodb.DynamoDB
	table  string
}

func (d *Dynamo) Save(ctx context.Context, r model.PracticeRecord) error {
	item, err := toItem(r)
	if err != nil {
		return err
	}
	_, err = d.client.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.table),
		Item:      item,
	})
	return errors.Wrapf(err, "could not save record %s", r.ID)
}

func (d *Dynamo) List(ctx context.Context, melodyName string) ([]model.PracticeRecord, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(d.table)}
	if melodyName != "" {
		input.FilterExpression = aws.String("#m = :m")
		input.ExpressionAttributeNames = map[string]*string{"#m": aws.String("melodyName")}
		input.ExpressionAttributeValues = map[string]*dynamodb.AttributeValue{
			":m": {S: aws.String(melodyName)},
		}
	}

	var items []map[string]*dynamodb.AttributeValue
	err := d.client.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, last bool) bool {
		items = append(items, page.Items...)
		return true
	})
	if err != nil {
		return nil, errors.Wrap(err, "error from DynamoDB")
	}
	return fromItems(items)
}

func toItem(r model.PracticeRecord) (map[string]*dynamodb.AttributeValue, error) {
	item, err := dynamodbattribute.MarshalMap(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal record")
	}
	item["PK"] = &dynamodb.AttributeValue{S: aws.String(r.ID)}
	return item, nil
}

func fromItems(items []map[string]*dynamodb.AttributeValue) ([]model.PracticeRecord, error) {
	var res []model.PracticeRecord
	if err := dynamodbattribute.UnmarshalListOfMaps(items, &res); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal records")
	}
	newestFirst(res)
	return res, nil
}

func newestFirst(records []model.PracticeRecord) {
	slices.SortFunc(records, func(a, b model.PracticeRecord) bool {
		return a.TakenAt.After(b.TakenAt)
	})
}

type Memory struct {
	mu      sync.Mutex
	records []model.PracticeRecord
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Save(_ context.Context, r model.PracticeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, r)
	return nil
}

func (m *Memory) List(_ context.Context, melodyName string) ([]model.PracticeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []model.PracticeRecord
	for _, r := range m.records {
		if melodyName == "" || r.MelodyName == melodyName {
			res = append(res, r)
		}
	}
	newestFirst(res)
	return res, nil
}
