package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"comics-store/internal/mailer"
	"comics-store/internal/model"
	"comics-store/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ticketService implements TicketService.
type ticketService struct {
	ticketRepo repository.TicketRepository
	userRepo   repository.UserRepository
	dispatcher mailer.Dispatcher
	siteURL    string
	logger     zerolog.Logger
}

// NewTicketService creates a new ticket service. siteURL is the public base
// used in the QR verification links.
func NewTicketService(
	ticketRepo repository.TicketRepository,
	userRepo repository.UserRepository,
	dispatcher mailer.Dispatcher,
	siteURL string,
	logger zerolog.Logger,
) TicketService {
	return &ticketService{
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		dispatcher: dispatcher,
		siteURL:    strings.TrimRight(siteURL, "/"),
		logger:     logger.With().Str("service", "ticket").Logger(),
	}
}

// CheckIn marks an unused ticket used. The conditional update decides and
// records the check-in in one statement, so of two concurrent scans exactly
// one sees valid=true; the loser reports the winner's check-in time.
func (s *ticketService) CheckIn(ctx context.Context, code uuid.UUID) (*model.CheckInResult, error) {
	won, err := s.ticketRepo.MarkUsed(ctx, code, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	ticket, err := s.ticketRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if ticket == nil {
		return nil, model.ErrTicketNotFound
	}

	result := &model.CheckInResult{
		Valid: won,
		Event: ticket.EventTitle,
		Code:  ticket.Code,
	}
	if ticket.UsedAt != nil {
		result.UsedAt = *ticket.UsedAt
	}

	s.logger.Info().
		Str("code", code.String()).
		Bool("valid", won).
		Msg("ticket scanned")

	return result, nil
}

// ListByOrder retrieves the tickets issued for an order.
func (s *ticketService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.IssuedTicket, error) {
	return s.ticketRepo.ListByOrder(ctx, orderID)
}

// DeliverForOrder hands the order's tickets to the mail worker: one message,
// one QR attachment per ticket. The recipient comes from the shipping
// address, falling back to the account email. Without either, delivery is
// skipped; the tickets stay retrievable by order.
func (s *ticketService) DeliverForOrder(ctx context.Context, order *model.Order) error {
	recipient := ""
	if order.ShippingAddress != nil {
		recipient = order.ShippingAddress.Email
	}
	if recipient == "" && order.UserID != nil {
		email, err := s.userRepo.GetEmail(ctx, *order.UserID)
		if err != nil {
			return err
		}
		recipient = email
	}
	if recipient == "" {
		s.logger.Debug().Str("order_id", order.ID.String()).Msg("no recipient for ticket delivery")
		return nil
	}

	tickets, err := s.ticketRepo.ListByOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	if len(tickets) == 0 {
		return nil
	}

	msg := &mailer.TicketMessage{
		OrderID:   order.ID.String(),
		Recipient: recipient,
		Subject:   "Your tickets",
		Body:      ticketBody(tickets),
	}

	for _, t := range tickets {
		verifyURL := fmt.Sprintf("%s/api/tickets/verify/%s", s.siteURL, t.Code)
		png, err := mailer.QRPNG(verifyURL, 256)
		if err != nil {
			return fmt.Errorf("failed to render ticket QR: %w", err)
		}
		msg.Attachments = append(msg.Attachments, mailer.Attachment{
			Filename:    fmt.Sprintf("ticket-%s.png", t.Code),
			ContentType: "image/png",
			Data:        png,
		})
	}

	return s.dispatcher.DispatchTickets(ctx, msg)
}

// ticketBody lists the admitted events, one line per ticket.
func ticketBody(tickets []model.IssuedTicket) string {
	var b strings.Builder
	b.WriteString("Your tickets:\n")
	for _, t := range tickets {
		fmt.Fprintf(&b, "- %s (%s)\n", t.EventTitle, t.Code)
	}
	b.WriteString("\nShow the attached QR codes at entry.\n")
	return b.String()
}
