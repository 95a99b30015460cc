// Package cxdb provides a delivery client that stores messages in cxdb as
// SystemMessage items, one cxdb context per log.
package cxdb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/strongdm/ai-cxdb-crashlog/pkg/crashlog"
	cxdbclient "github.com/strongdm/ai-cxdb/clients/go"
	cxdtypes "github.com/strongdm/ai-cxdb/clients/go/types"
)

// maxTitleRunes bounds the SystemMessage title, ellipsis included.
const maxTitleRunes = 100

// truncateTitle cuts s to at most limit runes, ending in "..." when cut.
func truncateTitle(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	keep := limit - 3
	for i := range s {
		if keep == 0 {
			return s[:i] + "..."
		}
		keep--
	}
	return s
}

// CXDBClient is the minimal interface for cxdb client operations.
// The real *cxdb.Client satisfies this interface.
type CXDBClient interface {
	CreateContext(ctx context.Context, baseTurnID uint64) (*cxdbclient.ContextHead, error)
	AppendTurn(ctx context.Context, req *cxdbclient.AppendRequest) (*cxdbclient.AppendResult, error)
}

// Option configures the cxdb client.
type Option func(*config)

type config struct {
	labels    []string
	clientTag string
}

// WithLabels sets labels for newly created log contexts.
func WithLabels(labels []string) Option {
	return func(c *config) {
		c.labels = labels
	}
}

// WithClientTag sets the client tag for newly created log contexts.
func WithClientTag(tag string) Option {
	return func(c *config) {
		c.clientTag = tag
	}
}

// cxdbDelivery writes messages to cxdb.
type cxdbDelivery struct {
	client    CXDBClient
	labels    []string
	clientTag string

	mu       sync.Mutex
	contexts map[string]uint64 // logID -> cxdb context ID
}

// New creates a delivery client that writes to cxdb.
func New(client CXDBClient, opts ...Option) crashlog.DeliveryClient {
	cfg := &config{
		labels:    []string{"error", "crashlog"},
		clientTag: "crashlog",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return &cxdbDelivery{
		client:    client,
		labels:    cfg.labels,
		clientTag: cfg.clientTag,
		contexts:  make(map[string]uint64),
	}
}

// Send appends msg to the context of logID.
func (d *cxdbDelivery) Send(ctx context.Context, logID string, msg *crashlog.TelemetryMessage) error {
	title := msg.Title
	if msg.Type != "" {
		title = msg.Type + ": " + title
	}
	title = truncateTitle(title, maxTitleRunes)

	content, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	return d.append(ctx, logID, msg.ID, msg.Timestamp.UnixMilli(), &cxdtypes.SystemMessage{
		Kind:    cxdtypes.SystemKindError,
		Title:   title,
		Content: string(content),
	})
}

// RegisterInstallation appends the installation descriptor to the context of logID.
func (d *cxdbDelivery) RegisterInstallation(ctx context.Context, logID string, inst *crashlog.Installation) error {
	content, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("encode installation: %w", err)
	}
	return d.append(ctx, logID, "", time.Now().UnixMilli(), &cxdtypes.SystemMessage{
		Title:   "installation: " + inst.Name,
		Content: string(content),
	})
}

func (d *cxdbDelivery) append(ctx context.Context, logID, itemID string, timestamp int64, system *cxdtypes.SystemMessage) error {
	contextID, isNew, err := d.contextFor(ctx, logID)
	if err != nil {
		return err
	}

	item := &cxdtypes.ConversationItem{
		ItemType:  cxdtypes.ItemTypeSystem,
		Status:    cxdtypes.ItemStatusComplete,
		Timestamp: timestamp,
		ID:        itemID,
		System:    system,
	}

	// cxdb expects context metadata on the first turn.
	if isNew {
		item.ContextMetadata = &cxdtypes.ContextMetadata{
			Labels:    append(append([]string(nil), d.labels...), "log:"+logID),
			ClientTag: d.clientTag,
		}
	}

	// Encode to msgpack using the official cxdb encoder.
	payload, err := cxdbclient.EncodeMsgpack(item)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	req := &cxdbclient.AppendRequest{
		ContextID:      contextID,
		ParentTurnID:   0,
		TypeID:         cxdtypes.TypeIDConversationItem,
		TypeVersion:    cxdtypes.TypeVersionConversationItem,
		Payload:        payload,
		IdempotencyKey: itemID,
	}

	if _, err := d.client.AppendTurn(ctx, req); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

// contextFor returns the cxdb context for logID, creating it on first use.
func (d *cxdbDelivery) contextFor(ctx context.Context, logID string) (uint64, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if id, ok := d.contexts[logID]; ok {
		return id, false, nil
	}
	head, err := d.client.CreateContext(ctx, 0)
	if err != nil {
		return 0, false, fmt.Errorf("create log context: %w", err)
	}
	d.contexts[logID] = head.ContextID
	return head.ContextID, true, nil
}

// Close is a no-op; the caller owns the cxdb connection.
func (d *cxdbDelivery) Close() error {
	return nil
}
