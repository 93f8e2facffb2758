package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smallstore/pos/internal/core/domain"
	"github.com/smallstore/pos/internal/port"
)

type SessionState string

const (
	SessionStateAuthenticating SessionState = "authenticating"
	SessionStateBuilding       SessionState = "building"
	SessionStateFinalized      SessionState = "finalized"
	SessionStateClosed         SessionState = "closed"
)

var (
	ErrLoginFailed = errors.New("login failed")
	ErrNotAllowed  = errors.New("command not allowed in current session state")
)

// Session drives one cashier's checkout flow through an explicit state
// machine: Authenticating -> Building -> Finalized -> Closed. Not safe for
// concurrent use; one cashier owns one session.
type Session struct {
	auth     port.Authenticator
	carts    *CartService
	checkout *CheckoutService
	catalog  *CatalogService
	logger   *zap.Logger

	state       SessionState
	displayName string
	cart        *domain.Cart
	finalized   []domain.LineItem
}

func NewSession(
	auth port.Authenticator,
	carts *CartService,
	checkout *CheckoutService,
	catalog *CatalogService,
	logger *zap.Logger,
) *Session {
	return &Session{
		auth:     auth,
		carts:    carts,
		checkout: checkout,
		catalog:  catalog,
		logger:   logger,
		state:    SessionStateAuthenticating,
	}
}

func (s *Session) State() SessionState { return s.state }

func (s *Session) DisplayName() string { return s.displayName }

// CartID is empty until login succeeds.
func (s *Session) CartID() string {
	if s.cart == nil {
		return ""
	}
	return s.cart.ID
}

// Login gates the session on an on-demand credential check. A rejected pair
// leaves the session in Authenticating so the caller may retry.
func (s *Session) Login(ctx context.Context, username, password string) error {
	if s.state != SessionStateAuthenticating {
		return ErrNotAllowed
	}

	name, ok, err := s.auth.Authenticate(ctx, username, password)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if !ok {
		s.logger.Info("login rejected", zap.String("username", username))
		return ErrLoginFailed
	}

	s.displayName = name
	s.cart = domain.NewCart(uuid.NewString(), 1)
	s.state = SessionStateBuilding
	s.logger.Info("login successful",
		zap.String("user", name),
		zap.String("cart_id", s.cart.ID),
	)
	return nil
}

func (s *Session) Add(ctx context.Context, itemName string, quantity int) (domain.LineItem, error) {
	if s.state != SessionStateBuilding {
		return domain.LineItem{}, ErrNotAllowed
	}
	return s.carts.AddLine(ctx, s.cart, itemName, quantity)
}

func (s *Session) PriceCheck(ctx context.Context, name string) (*domain.ItemSnapshot, error) {
	if s.state != SessionStateBuilding && s.state != SessionStateFinalized {
		return nil, ErrNotAllowed
	}
	return s.catalog.PriceCheck(ctx, name)
}

// Finalize freezes the cart and returns its lines alongside a display total.
// The display total uses fresh prices but is not authoritative; the commit
// recomputes it under transaction isolation.
func (s *Session) Finalize(ctx context.Context) ([]domain.LineItem, int, error) {
	if s.state != SessionStateBuilding {
		return nil, 0, ErrNotAllowed
	}
	if s.cart.Len() == 0 {
		return nil, 0, domain.ErrEmptyCart
	}

	lines, err := s.cart.Finalize()
	if err != nil {
		return nil, 0, err
	}
	s.finalized = lines
	s.state = SessionStateFinalized

	total, err := s.checkout.ComputeTotal(ctx, lines)
	if err != nil {
		return lines, 0, fmt.Errorf("display total: %w", err)
	}
	return lines, total, nil
}

// Pay runs the checkout transaction. On a definite abort the session stays
// in Finalized so payment may be retried once the problem is corrected; an
// ErrUnknownOutcome must be resolved via Reconcile before anything is
// reported to the cashier.
func (s *Session) Pay(ctx context.Context) (*domain.CommitResult, error) {
	if s.state != SessionStateFinalized {
		return nil, ErrNotAllowed
	}

	result, err := s.checkout.Commit(ctx, s.cart.ID, s.finalized)
	if err != nil {
		return nil, err
	}

	s.state = SessionStateClosed
	return result, nil
}

// Reconcile reads sale history for this session's cart to resolve an
// ambiguous payment outcome.
func (s *Session) Reconcile(ctx context.Context) (*domain.CommitResult, error) {
	if s.cart == nil {
		return nil, ErrNotAllowed
	}
	return s.checkout.Reconcile(ctx, s.cart.ID)
}

// Cancel abandons the session. Before Pay this has zero store side effects.
func (s *Session) Cancel() {
	if s.state == SessionStateClosed {
		return
	}
	s.state = SessionStateClosed
	if s.cart != nil {
		s.logger.Info("session cancelled", zap.String("cart_id", s.cart.ID))
	}
}
