package cache

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const dynamoTimeout = 5 * time.Second

// DynamoKV stores cache blobs in a DynamoDB table keyed by cache_key. Used
// when the storefront runs without a writable filesystem.
type DynamoKV struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoItem is the DynamoDB item structure.
type dynamoItem struct {
	CacheKey  string `dynamodbav:"cache_key"`
	Value     []byte `dynamodbav:"value"`
	UpdatedAt string `dynamodbav:"updated_at"`
}

func NewDynamoKV(client *dynamodb.Client, tableName string) *DynamoKV {
	return &DynamoKV{client: client, tableName: tableName}
}

func (d *DynamoKV) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), dynamoTimeout)
	defer cancel()

	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, false, err
	}
	if out.Item == nil {
		return nil, false, nil
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, false, err
	}
	return item.Value, true, nil
}

func (d *DynamoKV) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), dynamoTimeout)
	defer cancel()

	item, err := attributevalue.MarshalMap(dynamoItem{
		CacheKey:  key,
		Value:     value,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(d.tableName),
		Item:      item,
	})
	return err
}

func (d *DynamoKV) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), dynamoTimeout)
	defer cancel()

	_, err := d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(d.tableName),
		Key: map[string]types.AttributeValue{
			"cache_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	return err
}
