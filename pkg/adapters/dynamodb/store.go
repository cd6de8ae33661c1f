package dynamodb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const (
	pkPrefix = "CONV#"
	skState  = "STATE#"
)

// dynamodbAPI is the minimal DynamoDB interface required by Store.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Store implements ports.StateStore on a single DynamoDB table keyed by PK/SK.
// The state is kept as a JSON string attribute; an optional "ttl" attribute
// lets DynamoDB's TTL feature expire idle conversations. DynamoDB deletes
// expired items lazily, so Load and List also treat them as gone.
type Store struct {
	api       dynamodbAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithTTL writes a "ttl" attribute of now+ttl on every save. Zero disables it.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// New creates a Store over an existing client.
func New(api dynamodbAPI, tableName string, opts ...Option) (*Store, error) {
	if api == nil {
		return nil, errors.New("dynamodb: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("dynamodb: table name must not be empty")
	}
	s := &Store{api: api, tableName: tableName, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Open loads the default AWS configuration (env, shared config, instance role)
// and creates a Store. An empty region keeps the configured default.
func Open(ctx context.Context, tableName, region string, opts ...Option) (*Store, error) {
	var loadOpts []func(*config.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("dynamodb: load aws config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), tableName, opts...)
}

func key(conversationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pkPrefix + conversationID},
		"SK": &types.AttributeValueMemberS{Value: skState},
	}
}

// Save replaces the state item.
func (s *Store) Save(ctx context.Context, conversationID string, state *domain.ConversationState) error {
	if conversationID == "" {
		return domain.ErrEmptyConversationID
	}
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("dynamodb: failed to marshal state: %w", err)
	}

	now := time.Now().UTC()
	item := key(conversationID)
	item["conversationId"] = &types.AttributeValueMemberS{Value: conversationID}
	item["state"] = &types.AttributeValueMemberS{Value: string(data)}
	item["updatedAt"] = &types.AttributeValueMemberS{Value: now.Format(time.RFC3339)}
	if s.ttl > 0 {
		item["ttl"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now.Add(s.ttl).Unix())}
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb: Save: %w", err)
	}
	return nil
}

// Load reads the state item with a consistent read.
func (s *Store) Load(ctx context.Context, conversationID string) (*domain.ConversationState, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            key(conversationID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb: Load: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return nil, domain.ErrConversationNotFound
	}
	if expired, err := s.expired(out.Item); err != nil {
		return nil, fmt.Errorf("dynamodb: Load: %w", err)
	} else if expired {
		return nil, domain.ErrConversationNotFound
	}

	raw, err := strAttr(out.Item, "state")
	if err != nil {
		return nil, fmt.Errorf("dynamodb: Load: %w", err)
	}
	var state domain.ConversationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("dynamodb: failed to unmarshal state: %w", err)
	}
	return &state, nil
}

// Delete removes the state item. Missing items are not an error.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.tableName),
		Key:       key(conversationID),
	})
	if err != nil {
		return fmt.Errorf("dynamodb: Delete: %w", err)
	}
	return nil
}

// List scans the table for unexpired state items, following pagination.
func (s *Store) List(ctx context.Context) ([]string, error) {
	ids := []string{}
	var startKey map[string]types.AttributeValue
	for {
		now := strconv.FormatInt(s.now().Unix(), 10)
		out, err := s.api.Scan(ctx, &dynamodb.ScanInput{
			TableName:            aws.String(s.tableName),
			FilterExpression:     aws.String("SK = :sk AND (attribute_not_exists(#ttl) OR #ttl > :now)"),
			ProjectionExpression: aws.String("conversationId, #ttl"),
			ExpressionAttributeNames: map[string]string{
				"#ttl": "ttl",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":sk":  &types.AttributeValueMemberS{Value: skState},
				":now": &types.AttributeValueMemberN{Value: now},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("dynamodb: List: %w", err)
		}
		for _, item := range out.Items {
			// the filter runs server side; this guards replicas and fakes that ignore it
			if expired, err := s.expired(item); err != nil {
				return nil, fmt.Errorf("dynamodb: List: %w", err)
			} else if expired {
				continue
			}
			id, err := strAttr(item, "conversationId")
			if err != nil {
				return nil, fmt.Errorf("dynamodb: List: %w", err)
			}
			ids = append(ids, id)
		}
		if len(out.LastEvaluatedKey) == 0 {
			return ids, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

// expired reports whether the item's "ttl" attribute is in the past.
// Items without one never expire.
func (s *Store) expired(item map[string]types.AttributeValue) (bool, error) {
	v, ok := item["ttl"]
	if !ok {
		return false, nil
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return false, fmt.Errorf("attribute %q is not a number", "ttl")
	}
	expires, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return false, fmt.Errorf("attribute %q: %w", "ttl", err)
	}
	return expires <= s.now().Unix(), nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %q is not a string", key)
	}
	return s.Value, nil
}
