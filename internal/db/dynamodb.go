package db

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spacesedan/mindtrack/internal/models"
)

// DynamoDB caps BatchWriteItem at 25 requests.
const maxBatchSize = 25

// DynamoAPI is the subset of *dynamodb.Client the repository uses.
type DynamoAPI interface {
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// dynamoItem stores created_at as Unix milliseconds so filters and ordering
// keep sub-second precision.
type dynamoItem struct {
	models.TimelineEntry
	CreatedAtMillis int64 `dynamodbav:"created_at"`
}

func toItem(entry models.TimelineEntry) (map[string]types.AttributeValue, error) {
	return attributevalue.MarshalMap(dynamoItem{
		TimelineEntry:   entry,
		CreatedAtMillis: entry.CreatedAt.UnixMilli(),
	})
}

func millis(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.UnixMilli(), 10)}
}

type DynamoRepository struct {
	client  DynamoAPI
	table   string
	backoff time.Duration
}

func NewDynamoRepository(client DynamoAPI, table string) *DynamoRepository {
	if table == "" {
		table = TIMELINE_TABLE_NAME
	}
	return &DynamoRepository{client: client, table: table, backoff: 500 * time.Millisecond}
}

func (r *DynamoRepository) Driver() string { return "dynamodb" }

func (r *DynamoRepository) Save(ctx context.Context, entry models.TimelineEntry) error {
	item, err := toItem(entry)
	if err != nil {
		return fmt.Errorf("[DynamoDB] marshal %s: %w", entry.ID, err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to put entry %s: %w", entry.ID, err)
	}
	return nil
}

func (r *DynamoRepository) SaveBatch(ctx context.Context, entries []models.TimelineEntry) error {
	requests := make([]types.WriteRequest, 0, len(entries))
	for _, entry := range entries {
		item, err := toItem(entry)
		if err != nil {
			return fmt.Errorf("[DynamoDB] marshal %s: %w", entry.ID, err)
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
	}
	return r.batchWrite(ctx, requests)
}

// batchWrite sends requests in chunks of 25 and retries unprocessed items
// three times with a doubling backoff.
func (r *DynamoRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	for i := 0; i < len(requests); i += maxBatchSize {
		select {
		case <-ctx.Done():
			slog.Warn("[DynamoDB] context canceled")
			return ctx.Err()
		default:
		}

		end := min(i+maxBatchSize, len(requests))
		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.table: requests[i:end]},
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Failed to batch write entries: %w", err)
		}

		retryCount := 0
		backoff := r.backoff
		for len(out.UnprocessedItems) > 0 && retryCount < 3 {
			time.Sleep(backoff)
			backoff *= 2

			slog.Warn("[DynamoDB] Retrying unprocessed items...",
				slog.Int("attempt", retryCount+1),
				slog.Int("remaining", len(out.UnprocessedItems[r.table])))

			out, err = r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
				RequestItems: out.UnprocessedItems,
			})
			if err != nil {
				return fmt.Errorf("[DynamoDB] Retry error %w", err)
			}
			retryCount++
		}

		if remaining := len(out.UnprocessedItems[r.table]); remaining > 0 {
			slog.Error("[DynamoDB] Some items were not written even after retries",
				slog.Int("remaining", remaining))
			return fmt.Errorf("[DynamoDB] %d items left unprocessed", remaining)
		}
	}
	return nil
}

func (r *DynamoRepository) scan(ctx context.Context, input *dynamodb.ScanInput) ([]models.TimelineEntry, error) {
	entries := []models.TimelineEntry{}
	paginator := dynamodb.NewScanPaginator(r.client, input)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan for timeline failed: %w", err)
		}
		var page []dynamoItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			slog.Error("[DynamoDB] Unable to unmarshal timeline page", slog.String("error", err.Error()))
			return nil, err
		}
		for _, item := range page {
			entry := item.TimelineEntry
			entry.CreatedAt = time.UnixMilli(item.CreatedAtMillis).UTC()
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (r *DynamoRepository) List(ctx context.Context, since time.Time) ([]models.TimelineEntry, error) {
	input := &dynamodb.ScanInput{TableName: aws.String(r.table)}
	if !since.IsZero() {
		input.FilterExpression = aws.String("created_at >= :since")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":since": millis(since),
		}
	}

	entries, err := r.scan(ctx, input)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

func (r *DynamoRepository) deleteMatching(ctx context.Context, input *dynamodb.ScanInput) (int, error) {
	input.TableName = aws.String(r.table)
	input.ProjectionExpression = aws.String("id")

	entries, err := r.scan(ctx, input)
	if err != nil {
		return 0, err
	}
	requests := make([]types.WriteRequest, 0, len(entries))
	for _, e := range entries {
		requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{
			Key: map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: e.ID}},
		}})
	}
	if err := r.batchWrite(ctx, requests); err != nil {
		return 0, err
	}
	return len(requests), nil
}

func (r *DynamoRepository) Clear(ctx context.Context) (int, error) {
	return r.deleteMatching(ctx, &dynamodb.ScanInput{})
}

func (r *DynamoRepository) Prune(ctx context.Context, before time.Time) (int, error) {
	return r.deleteMatching(ctx, &dynamodb.ScanInput{
		FilterExpression: aws.String("created_at < :before"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":before": millis(before),
		},
	})
}

func (r *DynamoRepository) Close(context.Context) error { return nil }
