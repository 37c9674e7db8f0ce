package aws

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/minio/crc64nvme"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/orgviz/internal/org"
	"github.com/wolfeidau/orgviz/internal/store"
	"github.com/wolfeidau/orgviz/internal/telemetry"
)

const (
	payloadEncoding = "json+zstd"

	// maxPayloadSize keeps the item under DynamoDB's 400KB item limit with
	// room for the other attributes.
	maxPayloadSize = 380 * 1024
)

// DynamoDBAPI is the subset of the DynamoDB client used by SnapshotStore.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// snapshotRecord is the DynamoDB representation of a snapshot. Nodes are
// stored as a compressed JSON payload to keep large organizations within a
// single item.
type snapshotRecord struct {
	SnapshotID          string `dynamodbav:"snapshot_id"`
	RootID              string `dynamodbav:"root_id"`
	ManagementAccountID string `dynamodbav:"management_account_id"`
	CapturedAt          int64  `dynamodbav:"captured_at"`
	NodeCount           int    `dynamodbav:"node_count"`
	Encoding            string `dynamodbav:"encoding"`
	Payload             []byte `dynamodbav:"payload"`
	Checksum            uint64 `dynamodbav:"checksum"`
}

var _ store.SnapshotStore = (*SnapshotStore)(nil)

// SnapshotStore is a DynamoDB implementation of store.SnapshotStore
type SnapshotStore struct {
	client    DynamoDBAPI
	tableName string
	metrics   *telemetry.Metrics
}

// NewSnapshotStore creates a new DynamoDB snapshot store
func NewSnapshotStore(client DynamoDBAPI, tableName string) *SnapshotStore {
	return &SnapshotStore{
		client:    client,
		tableName: tableName,
		metrics:   telemetry.GetMetrics(),
	}
}

// Save creates a new snapshot item
func (s *SnapshotStore) Save(ctx context.Context, snapshot *store.Snapshot) error {
	payload, err := encodeNodes(snapshot.Nodes)
	if err != nil {
		return err
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("snapshot payload is %d bytes, limit is %d", len(payload), maxPayloadSize)
	}

	record := snapshotRecord{
		SnapshotID:          snapshot.ID.String(),
		RootID:              snapshot.RootID,
		ManagementAccountID: snapshot.ManagementAccountID,
		CapturedAt:          snapshot.CapturedAt.UnixMilli(),
		NodeCount:           len(snapshot.Nodes),
		Encoding:            payloadEncoding,
		Payload:             payload,
		Checksum:            computeCRC64(payload),
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	// Use ConditionExpression to prevent overwrites
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(snapshot_id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return store.ErrSnapshotAlreadyExists
		}
		return wrapAWSError(err, "failed to save snapshot")
	}

	s.metrics.SnapshotsSavedTotal.Add(ctx, 1)
	s.metrics.SnapshotPayloadBytes.Record(ctx, int64(len(payload)))

	log.Debug().
		Str("snapshot_id", record.SnapshotID).
		Int("nodes", record.NodeCount).
		Int("payload_bytes", len(payload)).
		Msg("snapshot saved")

	return nil
}

// Get retrieves a snapshot by ID, verifying the payload checksum
func (s *SnapshotStore) Get(ctx context.Context, id uuid.UUID) (*store.Snapshot, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"snapshot_id": &types.AttributeValueMemberS{Value: id.String()},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, wrapAWSError(err, "failed to get snapshot")
	}

	if result.Item == nil {
		return nil, store.ErrSnapshotNotFound
	}

	var record snapshotRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}

	if record.Encoding != payloadEncoding {
		return nil, fmt.Errorf("%w: unsupported encoding %q", store.ErrSnapshotCorrupt, record.Encoding)
	}
	if sum := computeCRC64(record.Payload); sum != record.Checksum {
		s.metrics.SnapshotChecksumFails.Add(ctx, 1)
		return nil, fmt.Errorf("%w: checksum %x, expected %x", store.ErrSnapshotCorrupt, sum, record.Checksum)
	}

	nodes, err := decodeNodes(record.Payload)
	if err != nil {
		return nil, err
	}
	if len(nodes) != record.NodeCount {
		return nil, fmt.Errorf("%w: %d nodes, expected %d", store.ErrSnapshotCorrupt, len(nodes), record.NodeCount)
	}

	return &store.Snapshot{
		ID:                  id,
		RootID:              record.RootID,
		ManagementAccountID: record.ManagementAccountID,
		CapturedAt:          time.UnixMilli(record.CapturedAt).UTC(),
		Nodes:               nodes,
	}, nil
}

// encodeNodes JSON encodes nodes and compresses the result with zstd.
func encodeNodes(nodes []org.Node) ([]byte, error) {
	var buf bytes.Buffer

	enc, err := zstd.NewWriter(&buf, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to create encoder: %w", err)
	}

	if err := json.NewEncoder(enc).Encode(nodes); err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("failed to encode nodes: %w", err)
	}

	// Close encoder to flush
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to close encoder: %w", err)
	}

	return buf.Bytes(), nil
}

func decodeNodes(payload []byte) ([]org.Node, error) {
	dec, err := zstd.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	defer dec.Close()

	var nodes []org.Node
	if err := json.NewDecoder(dec).Decode(&nodes); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrSnapshotCorrupt, err)
	}

	return nodes, nil
}

// computeCRC64 computes CRC64-NVME checksum
func computeCRC64(data []byte) uint64 {
	h := crc64nvme.New()
	h.Write(data)
	return h.Sum64()
}

// throttleCodes are the DynamoDB error codes that mean the request was
// rejected for exceeding a rate or capacity limit.
var throttleCodes = map[string]struct{}{
	"ThrottlingException":                    {},
	"RequestLimitExceeded":                   {},
	"ProvisionedThroughputExceededException": {},
}

func isThrottle(err error) bool {
	var provisionedErr *types.ProvisionedThroughputExceededException
	if errors.As(err, &provisionedErr) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		_, ok := throttleCodes[apiErr.ErrorCode()]
		return ok
	}

	return false
}

// wrapAWSError wraps AWS SDK errors, identifying throttling errors
func wrapAWSError(err error, msg string) error {
	if err == nil {
		return nil
	}

	if isThrottle(err) {
		return fmt.Errorf("%s: %w: %v", msg, store.ErrThrottled, err)
	}

	return fmt.Errorf("%s: %w", msg, err)
}
