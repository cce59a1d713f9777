package tradein

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-service/models"
)

const SubmittedEvent = "tradein.submitted"

var (
	ErrUnknownCategory    = errors.New("choose a category")
	ErrUnknownProductType = errors.New("choose a product type")
	ErrNoReplacement      = errors.New("choose a replacement product")
)

// MissingFieldsError lists the labels of required fields left blank, in
// table order.
type MissingFieldsError struct {
	Labels []string
}

func (e *MissingFieldsError) Error() string {
	return "Missing required fields: " + strings.Join(e.Labels, ", ")
}

// Step is the wizard position implied by how much of the form is filled in.
type Step string

const (
	StepCategory    Step = "category"
	StepProductType Step = "product_type"
	StepDetails     Step = "details"
)

type API interface {
	ListProducts(ctx context.Context, params url.Values) (*models.ProductPage, error)
	CreateTradeIn(ctx context.Context, req models.TradeInRequest) error
}

type Publisher interface {
	Publish(ctx context.Context, topicArn string, message []byte) error
}

type Service struct {
	api       API
	table     *Table
	publisher Publisher
	topicArn  string
	logger    *zap.Logger
}

func NewService(api API, table *Table, publisher Publisher, topicArn string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, table: table, publisher: publisher, topicArn: topicArn, logger: logger}
}

func (s *Service) Table() *Table {
	return s.table
}

// MissingFields returns the labels of pt's required fields that are blank
// in specs.
func MissingFields(pt *ProductType, specs map[string]string) []string {
	var missing []string
	for _, f := range pt.Fields {
		if f.Required && strings.TrimSpace(specs[f.Key]) == "" {
			missing = append(missing, f.Label)
		}
	}
	return missing
}

// Validate checks the request stage by stage: category, product type,
// specification fields, replacement. The first failing stage is reported.
func (s *Service) Validate(req models.TradeInRequest) error {
	cat, ok := s.table.Category(req.Category)
	if !ok {
		return ErrUnknownCategory
	}
	pt, ok := cat.ProductType(req.ProductType)
	if !ok {
		return ErrUnknownProductType
	}
	if missing := MissingFields(pt, req.Specs); len(missing) > 0 {
		return &MissingFieldsError{Labels: missing}
	}
	if strings.TrimSpace(req.ReplacementProduct) == "" {
		return ErrNoReplacement
	}
	return nil
}

// StepFor is the furthest step the request can be shown at.
func (s *Service) StepFor(req models.TradeInRequest) Step {
	cat, ok := s.table.Category(req.Category)
	if !ok {
		return StepCategory
	}
	if _, ok := cat.ProductType(req.ProductType); !ok {
		return StepProductType
	}
	return StepDetails
}

// Replacements are the products of the chosen category offered in
// exchange. A failed fetch offers nothing.
func (s *Service) Replacements(ctx context.Context, category string) []models.Product {
	cat, ok := s.table.Category(category)
	if !ok {
		return []models.Product{}
	}
	page, err := s.api.ListProducts(ctx, url.Values{"limit": {"100"}})
	if err != nil {
		s.logger.Warn("Replacement products unavailable", zap.String("category", category), zap.Error(err))
		return []models.Product{}
	}
	return FilterByCategory(page.Products, cat)
}

// FilterByCategory keeps products whose category id or name matches the
// trade-in category key or label.
func FilterByCategory(products []models.Product, cat *Category) []models.Product {
	out := []models.Product{}
	for _, p := range products {
		if strings.EqualFold(p.Category, cat.Key) ||
			strings.EqualFold(p.CategoryName, cat.Key) ||
			strings.EqualFold(p.CategoryName, cat.Label) {
			out = append(out, p)
		}
	}
	return out
}

type submittedEvent struct {
	EventID            string    `json:"event_id"`
	Event              string    `json:"event"`
	UserID             string    `json:"user_id"`
	Category           string    `json:"category"`
	ProductType        string    `json:"product_type"`
	ReplacementProduct string    `json:"replacement_product"`
	Timestamp          time.Time `json:"timestamp"`
}

// Submit validates and posts the request. The specs sent are limited to
// the product type's fields.
func (s *Service) Submit(ctx context.Context, userID string, req models.TradeInRequest) error {
	if err := s.Validate(req); err != nil {
		return err
	}
	cat, _ := s.table.Category(req.Category)
	pt, _ := cat.ProductType(req.ProductType)

	specs := make(map[string]string, len(pt.Fields))
	for _, f := range pt.Fields {
		if v := strings.TrimSpace(req.Specs[f.Key]); v != "" {
			specs[f.Key] = v
		}
	}
	req.Specs = specs

	if err := s.api.CreateTradeIn(ctx, req); err != nil {
		return err
	}
	s.publish(ctx, userID, req)
	return nil
}

func (s *Service) publish(ctx context.Context, userID string, req models.TradeInRequest) {
	if s.publisher == nil || s.topicArn == "" {
		return
	}
	body, err := json.Marshal(submittedEvent{
		EventID:            uuid.NewString(),
		Event:              SubmittedEvent,
		UserID:             userID,
		Category:           req.Category,
		ProductType:        req.ProductType,
		ReplacementProduct: req.ReplacementProduct,
		Timestamp:          time.Now().UTC(),
	})
	if err != nil {
		s.logger.Error("Failed to encode trade-in event", zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, s.topicArn, body); err != nil {
		s.logger.Warn("Failed to publish trade-in event", zap.String("user_id", userID), zap.Error(fmt.Errorf("%s: %w", SubmittedEvent, err)))
	}
}
