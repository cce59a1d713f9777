package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"storefront-service/models"
)

var (
	ErrInvalidMessage = errors.New("a recipient and a non-empty message are required")
	// ErrRefetch means the write went through but the list could not be
	// reloaded afterwards. The returned panel is empty but usable.
	ErrRefetch = errors.New("messages could not be reloaded")
)

type API interface {
	ListMessages(ctx context.Context) ([]models.Message, error)
	SendMessage(ctx context.Context, req models.SendMessageRequest) error
	DeleteMessage(ctx context.Context, id string) error
}

// Panel is the messaging page: the counterpart list and the open thread.
type Panel struct {
	Me           string
	Active       string
	ActiveName   string
	Counterparts []Counterpart
	Conversation []models.Message
}

type Service struct {
	api      API
	validate *validator.Validate
	logger   *zap.Logger
}

func NewService(api API, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, validate: validator.New(), logger: logger}
}

// Panel fetches the user's messages once and derives both views. With no
// explicit counterpart the most recent one is opened.
func (s *Service) Panel(ctx context.Context, me, with string) (*Panel, error) {
	msgs, err := s.api.ListMessages(ctx)
	if err != nil {
		return &Panel{Me: me, Active: with, Counterparts: []Counterpart{}, Conversation: []models.Message{}}, err
	}
	return BuildPanel(msgs, me, with), nil
}

func BuildPanel(msgs []models.Message, me, with string) *Panel {
	p := &Panel{Me: me, Counterparts: Counterparts(msgs, me)}
	p.Active = with
	if p.Active == "" && len(p.Counterparts) > 0 {
		p.Active = p.Counterparts[0].ID
	}
	for _, cp := range p.Counterparts {
		if cp.ID == p.Active {
			p.ActiveName = cp.Label()
		}
	}
	p.Conversation = Conversation(msgs, me, p.Active)
	return p
}

// Send posts the message and then refetches the whole list.
func (s *Service) Send(ctx context.Context, me string, req models.SendMessageRequest) (*Panel, error) {
	req.To = strings.TrimSpace(req.To)
	req.Message = strings.TrimSpace(req.Message)
	if err := s.validate.Struct(req); err != nil {
		return nil, ErrInvalidMessage
	}
	if err := s.api.SendMessage(ctx, req); err != nil {
		return nil, err
	}
	return s.refetch(ctx, me, req.To)
}

// Delete removes one message and then refetches the whole list.
func (s *Service) Delete(ctx context.Context, me, id, with string) (*Panel, error) {
	if err := s.api.DeleteMessage(ctx, id); err != nil {
		return nil, err
	}
	return s.refetch(ctx, me, with)
}

func (s *Service) refetch(ctx context.Context, me, with string) (*Panel, error) {
	p, err := s.Panel(ctx, me, with)
	if err != nil {
		return p, fmt.Errorf("%w: %w", ErrRefetch, err)
	}
	return p, nil
}
