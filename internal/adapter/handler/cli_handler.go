package handler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/smallstore/pos/internal/core/domain"
	"github.com/smallstore/pos/internal/core/service"
)

const maxLoginAttempts = 3

// CLIHandler maps the cashier's command stream onto a Session. Commands:
// add <item> <quantity>, price <item>, finalize, pay, cancel.
type CLIHandler struct {
	session *service.Session
	in      *bufio.Scanner
	out     io.Writer
}

func NewCLIHandler(session *service.Session, in io.Reader, out io.Writer) *CLIHandler {
	return &CLIHandler{
		session: session,
		in:      bufio.NewScanner(in),
		out:     out,
	}
}

func (h *CLIHandler) Run(ctx context.Context) error {
	if err := h.loginLoop(ctx); err != nil {
		return err
	}
	return h.commandLoop(ctx)
}

func (h *CLIHandler) loginLoop(ctx context.Context) error {
	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		h.printf("Name: ")
		username, ok := h.readLine()
		if !ok {
			return errors.New("input closed during login")
		}
		h.printf("Password: ")
		password, ok := h.readLine()
		if !ok {
			return errors.New("input closed during login")
		}

		err := h.session.Login(ctx, username, password)
		if err == nil {
			h.printf("Welcome %s! A shopping cart has been made for you.\n", h.session.DisplayName())
			return nil
		}
		if errors.Is(err, service.ErrLoginFailed) {
			h.printf("Login failed.\n")
			continue
		}
		return err
	}
	return errors.New("too many failed login attempts")
}

func (h *CLIHandler) commandLoop(ctx context.Context) error {
	h.printf("Commands: add <item> <quantity> | price <item> | finalize | pay | cancel\n")
	for {
		h.printf("> ")
		line, ok := h.readLine()
		if !ok {
			h.session.Cancel()
			return h.in.Err()
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "add":
			h.handleAdd(ctx, fields)
		case "price":
			h.handlePrice(ctx, fields)
		case "finalize":
			h.handleFinalize(ctx)
		case "pay":
			done, err := h.handlePay(ctx)
			if err != nil || done {
				return err
			}
		case "cancel":
			h.session.Cancel()
			h.printf("Session cancelled. Nothing was charged.\n")
			return nil
		default:
			h.printf("Unknown command %q.\n", fields[0])
		}
	}
}

func (h *CLIHandler) handleAdd(ctx context.Context, fields []string) {
	if len(fields) < 3 {
		h.printf("Usage: add <item> <quantity>\n")
		return
	}
	qty, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		h.printf("Quantity must be a number.\n")
		return
	}
	name := strings.Join(fields[1:len(fields)-1], " ")

	line, err := h.session.Add(ctx, name, qty)
	if err != nil {
		h.printFailure(err)
		return
	}
	h.printf("Added %d x %s to your cart (line %d).\n", line.Quantity, line.ItemName, line.Seq)
}

func (h *CLIHandler) handlePrice(ctx context.Context, fields []string) {
	if len(fields) < 2 {
		h.printf("Usage: price <item>\n")
		return
	}
	name := strings.Join(fields[1:], " ")

	snap, err := h.session.PriceCheck(ctx, name)
	if err != nil {
		h.printFailure(err)
		return
	}
	h.printf("%s: $%d each, %d in stock.\n", snap.Name, snap.UnitPrice, snap.Stock)
}

func (h *CLIHandler) handleFinalize(ctx context.Context) {
	lines, total, err := h.session.Finalize(ctx)
	if err != nil {
		if lines == nil {
			h.printFailure(err)
			return
		}
		// Cart is frozen but display pricing failed; pay still works.
		h.printf("Cart finalized with %d lines; display total unavailable: %v\n", len(lines), err)
		return
	}

	h.printf("Receipt preview:\n")
	for _, l := range lines {
		h.printf("  %d  %s x%d\n", l.Seq, l.ItemName, l.Quantity)
	}
	h.printf("Total: $%d\n", total)
	h.printf("Type pay to finalize your purchase.\n")
}

func (h *CLIHandler) handlePay(ctx context.Context) (bool, error) {
	result, err := h.session.Pay(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownOutcome) || errors.Is(err, domain.ErrDuplicateCommit) {
			return h.reconcile(ctx)
		}
		h.printFailure(err)
		// Definite abort: session stays finalized so pay can be retried.
		return false, nil
	}

	h.printReceipt(result)
	return true, nil
}

// reconcile resolves an ambiguous payment by reading sale history. The
// session ends either way; a blind retry is never offered.
func (h *CLIHandler) reconcile(ctx context.Context) (bool, error) {
	result, err := h.session.Reconcile(ctx)
	if err != nil {
		h.printf("Payment outcome unknown and reconciliation failed. Do NOT retry; check the sale history for cart %s.\n", h.session.CartID())
		return true, err
	}
	if result == nil {
		h.printf("Payment did not go through; no stock was taken. Please start a new checkout.\n")
		h.session.Cancel()
		return true, nil
	}
	h.printf("Payment had already gone through:\n")
	h.printReceipt(result)
	return true, nil
}

func (h *CLIHandler) printReceipt(r *domain.CommitResult) {
	h.printf("Receipt %s\n", r.CommitID)
	for _, l := range r.Lines {
		h.printf("  %d  %s x%d @ $%d = $%d\n", l.Seq, l.ItemName, l.Quantity, l.UnitPrice, l.Subtotal)
	}
	h.printf("Total: $%d\n", r.Total)
	h.printf("Recorded at %s\n", r.SoldAt.Format(time.RFC3339))
	h.printf("Thanks for using the application!\n")
}

func (h *CLIHandler) printFailure(err error) {
	var insufficient *domain.InsufficientStockError
	var unknown *domain.UnknownItemError
	switch {
	case errors.As(err, &insufficient):
		h.printf("Sorry, we only have %d of %s in stock.\n", insufficient.Available, insufficient.ItemName)
	case errors.As(err, &unknown):
		h.printf("We do not have any %s in stock.\n", unknown.ItemName)
	case errors.Is(err, domain.ErrInvalidQuantity):
		h.printf("Quantity must be a positive number.\n")
	case errors.Is(err, domain.ErrEmptyCart):
		h.printf("Your cart is empty.\n")
	case errors.Is(err, domain.ErrAborted):
		h.printf("Checkout conflicted with another purchase. Please retry.\n")
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.printf("The store database is unavailable. Please try again later.\n")
	case errors.Is(err, service.ErrNotAllowed):
		h.printf("That command is not available right now.\n")
	default:
		h.printf("Error: %v\n", err)
	}
}

func (h *CLIHandler) readLine() (string, bool) {
	if !h.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(h.in.Text()), true
}

func (h *CLIHandler) printf(format string, args ...any) {
	fmt.Fprintf(h.out, format, args...)
}
