package board

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sorrisoclinic/dental-crm/internal/entity"
)

var (
	ErrLeadNotFound   = errors.New("lead not on board")
	ErrNoActiveDrag   = errors.New("no drag in progress")
	ErrUnknownTarget  = errors.New("drop target does not resolve to a column")
	ErrRefetchMissing = errors.New("refetch policy requires a refetcher")
)

// Phase of a lead's most recent drag.
type Phase string

const (
	PhaseIdle        Phase = "idle"
	PhaseDragging    Phase = "dragging"
	PhaseDropped     Phase = "dropped"
	PhaseReconciling Phase = "reconciling"
	PhaseSettled     Phase = "settled"
	PhaseReverted    Phase = "reverted"
)

// Reconciliation tracks whether the server accepted the optimistic status.
type Reconciliation string

const (
	ReconNone      Reconciliation = ""
	ReconPending   Reconciliation = "pending"
	ReconConfirmed Reconciliation = "confirmed"
	ReconFailed    Reconciliation = "failed"
)

type FailurePolicy int

const (
	// RevertOnFailure puts the lead back in its last confirmed column.
	RevertOnFailure FailurePolicy = iota
	// RefetchOnFailure reloads the whole board from the server.
	RefetchOnFailure
)

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, leadID string, status entity.Status) error
}

type Refetcher interface {
	ListLeads(ctx context.Context) ([]entity.Lead, error)
}

// DropTarget is either an empty column or a lead already inside a column.
type DropTarget struct {
	ColumnID string
	LeadID   string
}

type Column struct {
	ID     string
	Status entity.Status
	Title  string
	Leads  []entity.Lead
}

// LeadState is a snapshot of one card and its reconciliation.
type LeadState struct {
	Lead           entity.Lead
	Confirmed      entity.Status
	Phase          Phase
	Reconciliation Reconciliation
	Err            error
}

type card struct {
	lead      entity.Lead
	confirmed entity.Status
	phase     Phase
	recon     Reconciliation
	err       error
	seq       uint64

	// seq of the newest request the server accepted
	confirmedSeq uint64
}

type Controller struct {
	updater   StatusUpdater
	refetcher Refetcher
	labels    *entity.Labels
	policy    FailurePolicy
	timeout   time.Duration
	logger    *zap.Logger

	mu     sync.Mutex
	order  []string
	cards  map[string]*card
	active string

	wg sync.WaitGroup
}

type Option func(*Controller)

func WithFailurePolicy(policy FailurePolicy, refetcher Refetcher) Option {
	return func(c *Controller) {
		c.policy = policy
		c.refetcher = refetcher
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Controller) { c.timeout = d }
}

func WithLabels(labels *entity.Labels) Option {
	return func(c *Controller) { c.labels = labels }
}

func NewController(leads []entity.Lead, updater StatusUpdater, logger *zap.Logger, opts ...Option) (*Controller, error) {
	c := &Controller{
		updater: updater,
		labels:  entity.DefaultLabels(),
		policy:  RevertOnFailure,
		timeout: 10 * time.Second,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.policy == RefetchOnFailure && c.refetcher == nil {
		return nil, ErrRefetchMissing
	}

	c.load(leads)
	return c, nil
}

func (c *Controller) load(leads []entity.Lead) {
	c.order = make([]string, 0, len(leads))
	c.cards = make(map[string]*card, len(leads))
	for _, l := range leads {
		c.order = append(c.order, l.ID)
		c.cards[l.ID] = &card{lead: l, confirmed: l.Status, phase: PhaseIdle}
	}
}

// Columns returns the four status columns in pipeline order.
func (c *Controller) Columns() []Column {
	c.mu.Lock()
	defer c.mu.Unlock()

	cols := make([]Column, 0, len(entity.Statuses))
	for _, s := range entity.Statuses {
		col := Column{ID: string(s), Status: s, Title: c.labels.Column(s), Leads: []entity.Lead{}}
		for _, id := range c.order {
			if cd := c.cards[id]; cd.lead.Status == s {
				col.Leads = append(col.Leads, cd.lead)
			}
		}
		cols = append(cols, col)
	}
	return cols
}

func (c *Controller) State(leadID string) (LeadState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cd, ok := c.cards[leadID]
	if !ok {
		return LeadState{}, false
	}
	return LeadState{
		Lead:           cd.lead,
		Confirmed:      cd.confirmed,
		Phase:          cd.phase,
		Reconciliation: cd.recon,
		Err:            cd.err,
	}, true
}

// DragStart marks the lead as being dragged. No request is made yet.
func (c *Controller) DragStart(leadID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cd, ok := c.cards[leadID]
	if !ok {
		return ErrLeadNotFound
	}
	c.resetActive()
	c.active = leadID
	cd.phase = PhaseDragging
	return nil
}

// DragCancel abandons the current drag without touching the lead.
func (c *Controller) DragCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetActive()
}

// resetActive must be called with mu held.
func (c *Controller) resetActive() {
	if c.active == "" {
		return
	}
	if cd, ok := c.cards[c.active]; ok && cd.phase == PhaseDragging {
		cd.phase = PhaseIdle
	}
	c.active = ""
}

// Drop ends the active drag. When the destination column differs from the
// lead's current status the board is updated immediately and the status
// request runs in the background; the returned bool reports whether a
// request was issued. ctx values are kept but its cancellation is not.
func (c *Controller) Drop(ctx context.Context, target DropTarget) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active == "" {
		return false, ErrNoActiveDrag
	}
	leadID := c.active
	cd := c.cards[leadID]
	c.active = ""

	dest, ok := c.resolve(target)
	if !ok {
		cd.phase = PhaseIdle
		return false, ErrUnknownTarget
	}

	cd.phase = PhaseDropped
	if dest == cd.lead.Status {
		cd.phase = PhaseIdle
		return false, nil
	}

	cd.lead.Status = dest
	cd.phase = PhaseReconciling
	cd.recon = ReconPending
	cd.err = nil
	cd.seq++
	seq := cd.seq

	c.wg.Add(1)
	go c.reconcile(context.WithoutCancel(ctx), leadID, dest, seq)
	return true, nil
}

// resolve must be called with mu held.
func (c *Controller) resolve(target DropTarget) (entity.Status, bool) {
	if target.ColumnID != "" {
		s := entity.Status(target.ColumnID)
		return s, s.Valid()
	}
	if target.LeadID != "" {
		if other, ok := c.cards[target.LeadID]; ok {
			return other.lead.Status, true
		}
	}
	return "", false
}

func (c *Controller) reconcile(ctx context.Context, leadID string, dest entity.Status, seq uint64) {
	defer c.wg.Done()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	err := c.updater.UpdateStatus(reqCtx, leadID, dest)
	cancel()

	if err == nil {
		c.confirm(leadID, dest, seq)
		return
	}

	c.logger.Warn("board status update failed",
		zap.String("lead_id", leadID),
		zap.String("status", string(dest)),
		zap.Error(err),
	)

	if c.policy == RefetchOnFailure && c.markFailed(leadID, seq, err, false) {
		c.refetch(ctx, leadID, seq)
		return
	}
	c.markFailed(leadID, seq, err, true)
}

func (c *Controller) confirm(leadID string, dest entity.Status, seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cd, ok := c.cards[leadID]
	if !ok {
		return
	}
	// The server holds dest even when a newer drop superseded this request.
	if seq > cd.confirmedSeq {
		cd.confirmed = dest
		cd.confirmedSeq = seq
	}
	if cd.seq != seq {
		return
	}
	cd.recon = ReconConfirmed
	cd.phase = PhaseSettled
}

// markFailed records the failure for the request identified by seq and,
// when revert is set, puts the lead back in its confirmed column. It
// reports false when a newer drop has superseded the request.
func (c *Controller) markFailed(leadID string, seq uint64, err error, revert bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	cd, ok := c.cards[leadID]
	if !ok || cd.seq != seq {
		return false
	}
	cd.recon = ReconFailed
	cd.err = err
	if revert {
		cd.lead.Status = cd.confirmed
		cd.phase = PhaseReverted
	}
	return true
}

func (c *Controller) refetch(ctx context.Context, leadID string, seq uint64) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	leads, err := c.refetcher.ListLeads(reqCtx)
	cancel()
	if err != nil {
		c.logger.Warn("board refetch failed, reverting", zap.String("lead_id", leadID), zap.Error(err))
		c.markFailed(leadID, seq, err, true)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.merge(leads)
	if cd, ok := c.cards[leadID]; ok && cd.seq == seq {
		cd.phase = PhaseReverted
	}
}

// merge must be called with mu held. Cards with a request still in flight
// keep their optimistic status; only their confirmed status is refreshed.
func (c *Controller) merge(leads []entity.Lead) {
	prev := c.cards
	c.load(leads)
	for id, fresh := range c.cards {
		old, ok := prev[id]
		if !ok {
			continue
		}
		fresh.seq = old.seq
		fresh.confirmedSeq = old.confirmedSeq
		fresh.recon = old.recon
		fresh.err = old.err
		fresh.phase = old.phase
		if old.recon == ReconPending {
			fresh.lead.Status = old.lead.Status
		}
	}
	if _, ok := c.cards[c.active]; !ok {
		c.active = ""
	}
}

// Reload replaces the board with a fresh server listing.
func (c *Controller) Reload(leads []entity.Lead) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.merge(leads)
}

// Wait blocks until every in-flight status request has reconciled.
func (c *Controller) Wait() {
	c.wg.Wait()
}
