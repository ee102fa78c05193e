package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

const (
	// StorageKey holds the "last seen" watermark in RFC 3339 with nanoseconds.
	StorageKey      = "admin_leads_last_seen"
	DefaultInterval = 30 * time.Minute
)

type DigestFetcher interface {
	FetchDigest(ctx context.Context, since *time.Time) (*entity.Digest, error)
}

// Notifier polls the digest endpoint with the locally stored watermark.
// Acknowledging only moves the watermark on this device.
type Notifier struct {
	Fetcher  DigestFetcher
	Store    Store
	Interval time.Duration
	Logger   *zap.Logger
	Now      func() time.Time

	// OnDigest, when set, receives every successful poll.
	OnDigest func(*entity.Digest)

	mu   sync.Mutex
	last *entity.Digest
}

func NewNotifier(fetcher DigestFetcher, store Store, logger *zap.Logger) *Notifier {
	return &Notifier{
		Fetcher:  fetcher,
		Store:    store,
		Interval: DefaultInterval,
		Logger:   logger,
		Now:      time.Now,
	}
}

// Watermark returns nil when nothing was acknowledged yet. A corrupt value is
// treated the same way so the operator sees everything instead of nothing.
func (n *Notifier) Watermark() (*time.Time, error) {
	raw, ok, err := n.Store.Get(StorageKey)
	if err != nil || !ok || raw == "" {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		n.Logger.Warn("ignoring unreadable watermark", zap.String("value", raw), zap.Error(err))
		return nil, nil
	}
	return &t, nil
}

func (n *Notifier) Refresh(ctx context.Context) (*entity.Digest, error) {
	since, err := n.Watermark()
	if err != nil {
		return nil, err
	}

	digest, err := n.Fetcher.FetchDigest(ctx, since)
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.last = digest
	n.mu.Unlock()

	if n.OnDigest != nil {
		n.OnDigest(digest)
	}
	return digest, nil
}

// MarkAsRead stores now as the new watermark and clears the cached count.
func (n *Notifier) MarkAsRead() error {
	if err := n.Store.Set(StorageKey, n.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}

	n.mu.Lock()
	n.last = &entity.Digest{RecentLeads: []entity.LeadSummary{}}
	n.mu.Unlock()
	return nil
}

// Count is the number of unseen leads from the latest poll.
func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.last == nil {
		return 0
	}
	return n.last.Count
}

// Run polls immediately and then every Interval until ctx is cancelled.
// Poll failures are logged and retried on the next tick.
func (n *Notifier) Run(ctx context.Context) {
	n.Logger.Info("notification poller started", zap.Duration("interval", n.Interval))

	ticker := time.NewTicker(n.Interval)
	defer ticker.Stop()

	n.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			n.Logger.Info("notification poller stopped")
			return
		case <-ticker.C:
			n.poll(ctx)
		}
	}
}

func (n *Notifier) poll(ctx context.Context) {
	digest, err := n.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			n.Logger.Error("notification poll failed", zap.Error(err))
		}
		return
	}
	if digest.Count > 0 {
		n.Logger.Info("new leads since last seen", zap.Int("count", digest.Count))
	}
}
