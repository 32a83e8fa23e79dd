package pos

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nakanohidekatsu/pos-terminal/internal/catalog"
	"github.com/nakanohidekatsu/pos-terminal/internal/domain"
	"github.com/nakanohidekatsu/pos-terminal/internal/register"
	"github.com/nakanohidekatsu/pos-terminal/internal/scanner"
)

// datetimeFormat is the server-side timestamp format for header records.
const datetimeFormat = "2006-01-02 15:04:05"

// scanLookupTimeout bounds the automatic lookup fired by a scan decode.
const scanLookupTimeout = 10 * time.Second

// Catalog resolves product codes.
type Catalog interface {
	Lookup(ctx context.Context, code string) (domain.Product, error)
}

// Recorder submits completed carts.
type Recorder interface {
	Record(ctx context.Context, header register.Header, lines []domain.CartLine) (string, error)
}

// Identity is the fixed operator/store/terminal triple stamped on every
// transaction header.
type Identity struct {
	EmpCD   string
	StoreCD string
	PosNo   string
}

// Notice is a user-visible condition shown on the product panel.
type Notice string

const (
	NoticeNone          Notice = ""
	NoticeNotRegistered Notice = "not registered in master data"
	NoticeCommError     Notice = "communication error"
)

// Receipt is the completion presentation held until the operator
// acknowledges it with a reset.
type Receipt struct {
	TrdID       string
	TotalExTax  int64
	TotalIncTax int64
	Lines       int
	CompletedAt time.Time
}

// View is an immutable snapshot of the session for presentation.
type View struct {
	Phase      domain.Phase
	Code       string
	Product    *domain.Product
	Notice     Notice
	Cart       domain.Cart
	Scanning   bool
	Purchasing bool
	Receipt    *Receipt
}

// Session is the transaction workflow controller for one register
// terminal: one current code, at most one resolved product, one cart.
// All state is in-process and dies with the session.
type Session struct {
	catalog  Catalog
	recorder Recorder
	scanner  scanner.Scanner
	identity Identity
	logger   *zap.Logger
	now      func() time.Time

	mu         sync.Mutex
	phase      domain.Phase
	code       string
	product    *domain.Product
	notice     Notice
	cart       domain.Cart
	receipt    *Receipt
	lookupGen  uint64
	purchasing bool
	scanning   bool
}

func NewSession(cat Catalog, rec Recorder, scn scanner.Scanner, identity Identity, logger *zap.Logger) *Session {
	return &Session{
		catalog:  cat,
		recorder: rec,
		scanner:  scn,
		identity: identity,
		logger:   logger,
		now:      time.Now,
		phase:    domain.PhaseIdle,
	}
}

// SetCode records the code the operator supplied by scan or manual entry.
func (s *Session) SetCode(code string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.purchasing {
		return s.view(), ErrBusy
	}
	if code == "" {
		return s.view(), ErrEmptyCode
	}
	if err := s.transition(domain.PhaseCodeEntered); err != nil {
		return s.view(), err
	}
	s.code = code
	return s.view(), nil
}

// Lookup resolves the current code against the catalog. An empty code is
// a guard condition: no request is issued. A lookup that was superseded
// by a newer one (or by a reset or purchase) discards its result instead
// of clobbering newer state.
func (s *Session) Lookup(ctx context.Context) (View, error) {
	s.mu.Lock()
	if s.purchasing {
		defer s.mu.Unlock()
		return s.view(), ErrBusy
	}
	code := s.code
	if code == "" {
		defer s.mu.Unlock()
		return s.view(), ErrEmptyCode
	}
	if err := s.transition(domain.PhaseCodeEntered); err != nil {
		defer s.mu.Unlock()
		return s.view(), err
	}
	s.lookupGen++
	gen := s.lookupGen
	s.mu.Unlock()

	product, err := s.catalog.Lookup(ctx, code)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.lookupGen {
		s.logger.Debug("stale lookup discarded", zap.String("code", code))
		return s.view(), nil
	}

	switch {
	case err == nil:
		if errT := s.transition(domain.PhaseProductResolved); errT != nil {
			return s.view(), nil
		}
		s.product = &product
		s.notice = NoticeNone
		s.logger.Info("product resolved",
			zap.String("code", code),
			zap.String("prd_id", product.ID),
			zap.String("name", product.Name))

	case errors.Is(err, catalog.ErrNotFound):
		if errT := s.transition(domain.PhaseProductUnresolved); errT != nil {
			return s.view(), nil
		}
		s.product = nil
		s.notice = NoticeNotRegistered
		s.logger.Info("product not registered", zap.String("code", code))

	default:
		if errT := s.transition(domain.PhaseProductUnresolved); errT != nil {
			return s.view(), nil
		}
		s.product = nil
		s.notice = NoticeCommError
		s.logger.Warn("catalog lookup failed", zap.String("code", code), zap.Error(err))
	}

	return s.view(), nil
}

// AddToCart appends one line snapshotting the resolved product. The
// product stays current, so scanning the same item again produces
// another distinct line.
func (s *Session) AddToCart() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.purchasing {
		return s.view(), ErrBusy
	}
	if s.product == nil {
		return s.view(), ErrNoProduct
	}

	line := s.cart.Add(*s.product)
	s.logger.Info("line added",
		zap.Int("dtl_id", line.Seq),
		zap.String("prd_id", line.ProductID),
		zap.Int64("total_ex_tax", s.cart.TotalExTax),
		zap.Int64("total_inc_tax", s.cart.TotalIncTax))

	return s.view(), nil
}

// Purchase records the cart as one transaction: the header first, which
// must yield a transaction id, then every line in cart order. On any
// failure the cart is left intact so the operator can retry.
func (s *Session) Purchase(ctx context.Context) (View, error) {
	s.mu.Lock()
	if s.purchasing {
		defer s.mu.Unlock()
		return s.view(), ErrBusy
	}
	if s.cart.IsEmpty() {
		defer s.mu.Unlock()
		return s.view(), ErrEmptyCart
	}
	if !domain.CanTransitionTo(s.phase, domain.PhasePurchaseCompleted) {
		defer s.mu.Unlock()
		return s.view(), fmt.Errorf("cannot purchase in phase %s", s.phase)
	}

	s.purchasing = true
	snap := s.cart.Snapshot()
	header := register.Header{
		DateTime:    s.now().Format(datetimeFormat),
		EmpCD:       s.identity.EmpCD,
		StoreCD:     s.identity.StoreCD,
		PosNo:       s.identity.PosNo,
		TotalAmt:    snap.TotalExTax,
		TotalExTax:  snap.TotalExTax,
		TotalIncTax: snap.TotalIncTax,
	}
	s.mu.Unlock()

	trdID, err := s.recorder.Record(ctx, header, snap.Lines)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.purchasing = false

	if err != nil {
		s.logger.Error("purchase failed", zap.Error(err))
		return s.view(), fmt.Errorf("record transaction: %w", err)
	}

	s.lookupGen++ // an in-flight lookup must not resurface after completion
	s.receipt = &Receipt{
		TrdID:       trdID,
		TotalExTax:  snap.TotalExTax,
		TotalIncTax: snap.TotalIncTax,
		Lines:       len(snap.Lines),
		CompletedAt: s.now(),
	}
	if err := s.transition(domain.PhasePurchaseCompleted); err != nil {
		return s.view(), err
	}

	s.logger.Info("purchase completed",
		zap.String("trd_id", trdID),
		zap.Int("lines", len(snap.Lines)),
		zap.Int64("total_ex_tax", snap.TotalExTax),
		zap.Int64("total_inc_tax", snap.TotalIncTax))

	return s.view(), nil
}

// Reset clears the whole session back to its initial state. Invoked when
// the operator acknowledges the completion presentation, or abandons the
// transaction.
func (s *Session) Reset() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.purchasing {
		return s.view(), ErrBusy
	}

	s.cart.Clear()
	s.product = nil
	s.code = ""
	s.notice = NoticeNone
	s.receipt = nil
	s.lookupGen++ // in-flight lookups become stale
	if err := s.transition(domain.PhaseIdle); err != nil {
		return s.view(), err
	}

	s.logger.Info("session reset")
	return s.view(), nil
}

// BeginScan starts a scan session. The decoded code is recorded and
// looked up automatically, as if the operator had typed it and pressed
// the lookup action.
func (s *Session) BeginScan(ctx context.Context) error {
	s.mu.Lock()
	if s.purchasing {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.scanning {
		s.mu.Unlock()
		return scanner.ErrAlreadyScanning
	}
	s.scanning = true
	s.mu.Unlock()

	err := s.scanner.Start(ctx, scanner.Callbacks{
		OnDecode: s.handleDecode,
		OnError:  s.handleScanError,
	})
	if err != nil {
		s.mu.Lock()
		s.scanning = false
		s.mu.Unlock()
		return err
	}
	return nil
}

// CancelScan stops the active scan session. Allowed at any time,
// including while a purchase is in flight.
func (s *Session) CancelScan() error {
	err := s.scanner.Stop()

	s.mu.Lock()
	s.scanning = false
	s.mu.Unlock()
	return err
}

func (s *Session) handleDecode(code string) {
	s.mu.Lock()
	s.scanning = false
	s.mu.Unlock()

	if _, err := s.SetCode(code); err != nil {
		s.logger.Warn("decoded code rejected", zap.String("code", code), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), scanLookupTimeout)
	defer cancel()
	if _, err := s.Lookup(ctx); err != nil {
		s.logger.Warn("scan lookup failed", zap.String("code", code), zap.Error(err))
	}
}

func (s *Session) handleScanError(err error) {
	s.mu.Lock()
	s.scanning = false
	s.mu.Unlock()

	if !errors.Is(err, context.Canceled) {
		s.logger.Warn("scan session failed", zap.Error(err))
	}
}

// CurrentView returns a snapshot of the session state.
func (s *Session) CurrentView() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// view must be called with the lock held.
func (s *Session) view() View {
	v := View{
		Phase:      s.phase,
		Code:       s.code,
		Notice:     s.notice,
		Cart:       s.cart.Snapshot(),
		Scanning:   s.scanning,
		Purchasing: s.purchasing,
	}
	if s.product != nil {
		p := *s.product
		v.Product = &p
	}
	if s.receipt != nil {
		r := *s.receipt
		v.Receipt = &r
	}
	return v
}

func (s *Session) transition(to domain.Phase) error {
	if !domain.CanTransitionTo(s.phase, to) {
		return fmt.Errorf("illegal transition from %s to %s", s.phase, to)
	}
	if s.phase != to {
		s.logger.Debug("phase transition",
			zap.String("from", s.phase.String()),
			zap.String("to", to.String()))
	}
	s.phase = to
	return nil
}
