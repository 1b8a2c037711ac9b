package cluster

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/hagay3/baker/config"
	"github.com/hagay3/baker/errors"
	"github.com/hagay3/baker/natsclient"
	"github.com/hagay3/baker/pkg/retry"
	"github.com/hagay3/baker/pkg/timestamp"
)

const memberKeyPrefix = "members."

// memberRecord is the JSON document stored under members.<node>.
// StartedAt is Unix milliseconds, the wire form all bakery records use.
type memberRecord struct {
	NodeID    string `json:"node_id"`
	Name      string `json:"name"`
	StartedAt int64  `json:"started_at"`
}

// NATSProvider confirms membership by registering this node in a JetStream
// KV bucket shared by all bakery nodes. Membership is active once the node's
// own entry is readable back from the bucket. Connection loss after that
// point does not withdraw membership.
type NATSProvider struct {
	url      string
	bucket   string
	nodeName string
	nodeID   string
	logger   *slog.Logger

	mu       sync.Mutex
	onMember func()
	client   *natsclient.Client
	kv       *natsclient.KVStore
	joined   bool
}

// NewNATSProvider creates a membership provider for the given cluster
// configuration. An empty node name gets a generated one.
func NewNATSProvider(cfg config.Cluster, logger *slog.Logger) (*NATSProvider, error) {
	if cfg.URL == "" {
		return nil, errors.WrapInvalid(
			errors.ErrInvalidConfig, "NATSProvider", "NewNATSProvider", "cluster url validation")
	}
	if cfg.Bucket == "" {
		return nil, errors.WrapInvalid(
			errors.ErrInvalidConfig, "NATSProvider", "NewNATSProvider", "cluster bucket validation")
	}
	if logger == nil {
		logger = slog.Default()
	}

	nodeID := uuid.NewString()
	nodeName := cfg.NodeName
	if nodeName == "" {
		nodeName = "node-" + nodeID
	}

	return &NATSProvider{
		url:      cfg.URL,
		bucket:   cfg.Bucket,
		nodeName: nodeName,
		nodeID:   nodeID,
		logger:   logger.With("service", "cluster-membership"),
	}, nil
}

// NodeName returns the name this node registers under.
func (p *NATSProvider) NodeName() string { return p.nodeName }

// RegisterOnMemberUp installs the member-up callback.
func (p *NATSProvider) RegisterOnMemberUp(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.onMember = fn
}

// Join connects to the cluster bucket, registers this node's member entry
// and fires the member-up callback once the entry reads back.
func (p *NATSProvider) Join(ctx context.Context) error {
	client, err := natsclient.NewClient(p.url,
		natsclient.WithName("bakery-cluster-"+p.nodeName),
		natsclient.WithLogger(p.logger),
	)
	if err != nil {
		return errors.Wrap(err, "NATSProvider", "Join", "client construction")
	}

	if err := p.connect(ctx, client); err != nil {
		return err
	}

	bucket, err := p.ensureBucket(ctx, client)
	if err != nil {
		p.closeQuietly(client)
		return err
	}

	kv := client.NewKVStore(bucket)

	if err := p.register(ctx, kv); err != nil {
		p.closeQuietly(client)
		return err
	}

	p.mu.Lock()
	p.client = client
	p.kv = kv
	p.joined = true
	onMember := p.onMember
	p.mu.Unlock()

	p.logger.Info("Cluster membership registered",
		"bucket", p.bucket,
		"node", p.nodeName)

	if onMember != nil {
		onMember()
	}

	return nil
}

// Leave deletes this node's member entry and closes the connection.
func (p *NATSProvider) Leave(timeout time.Duration) error {
	p.mu.Lock()
	client := p.client
	kv := p.kv
	p.client = nil
	p.kv = nil
	p.joined = false
	p.mu.Unlock()

	if client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error

	if kv != nil {
		err := kv.Delete(ctx, memberKey(p.nodeName))
		if err != nil && !natsclient.IsKVNotFoundError(err) {
			errs = append(errs, fmt.Errorf("member deregistration: %w", err))
		}
	}

	if err := client.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("connection close: %w", err))
	}

	if len(errs) > 0 {
		return errors.WrapTransient(
			stderrors.Join(errs...), "NATSProvider", "Leave", "membership withdrawal")
	}

	p.logger.Info("Cluster membership withdrawn", "node", p.nodeName)

	return nil
}

// Joined reports whether this node currently holds a membership entry.
func (p *NATSProvider) Joined() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.joined
}

func (p *NATSProvider) connect(ctx context.Context, client *natsclient.Client) error {
	if err := client.Connect(ctx); err != nil {
		return errors.WrapTransient(err, "NATSProvider", "Join", "cluster connection")
	}

	if err := client.WaitForConnection(ctx); err != nil {
		p.closeQuietly(client)
		return errors.WrapTransient(err, "NATSProvider", "Join", "cluster connection wait")
	}

	return nil
}

// ensureBucket binds the membership bucket, creating it on first use. A
// create that loses the race to another node falls back to the existing
// bucket.
func (p *NATSProvider) ensureBucket(
	ctx context.Context, client *natsclient.Client,
) (jetstream.KeyValue, error) {
	bucket, err := client.GetKeyValueBucket(ctx, p.bucket)
	if err == nil {
		return bucket, nil
	}

	created, createErr := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{
		Bucket:      p.bucket,
		Description: "bakery cluster membership",
		History:     1,
	})
	if createErr == nil {
		return created, nil
	}

	existing, getErr := client.GetKeyValueBucket(ctx, p.bucket)
	if getErr == nil {
		return existing, nil
	}

	return nil, errors.WrapTransient(createErr, "NATSProvider", "Join", "membership bucket setup")
}

// register writes this node's member entry and confirms it reads back under
// this node's id. A readable entry owned by another node means two nodes
// share a name, which is a deployment error.
func (p *NATSProvider) register(ctx context.Context, kv *natsclient.KVStore) error {
	key := memberKey(p.nodeName)
	startedAt := timestamp.Now()

	err := kv.UpdateJSON(ctx, key, func(current map[string]any) error {
		current["node_id"] = p.nodeID
		current["name"] = p.nodeName
		current["started_at"] = startedAt
		return nil
	})
	if err != nil {
		return errors.WrapTransient(err, "NATSProvider", "Join", "membership registration")
	}

	entry, err := retry.DoWithResult(ctx, retry.Persistent(), func() (*natsclient.KVEntry, error) {
		return kv.Get(ctx, key)
	})
	if err != nil {
		return errors.WrapTransient(err, "NATSProvider", "Join", "membership confirmation")
	}

	var stored memberRecord
	if err := json.Unmarshal(entry.Value, &stored); err != nil {
		return errors.WrapInvalid(err, "NATSProvider", "Join", "membership record decode")
	}

	if stored.NodeID != p.nodeID {
		conflict := fmt.Errorf("member entry '%s' owned by node %s", key, stored.NodeID)
		return errors.WrapFatal(conflict, "NATSProvider", "Join", "membership ownership check")
	}

	return nil
}

func (p *NATSProvider) closeQuietly(client *natsclient.Client) {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Close(closeCtx); err != nil {
		p.logger.Warn("Cluster connection cleanup failed", "error", err)
	}
}

func memberKey(nodeName string) string {
	return memberKeyPrefix + nodeName
}
