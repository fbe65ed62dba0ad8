package service

import (
	"context"
	"fmt"
	"strings"

	"firestrike/internal/config"
	"firestrike/internal/model"
)

type ContactService struct {
	contacts ContactRepository
	pager    pager
}

func NewContactService(contacts ContactRepository, cfg *config.Config) *ContactService {
	return &ContactService{contacts: contacts, pager: newPager(cfg)}
}

type ContactRequest struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Submit 公开的联系表单
func (s *ContactService) Submit(ctx context.Context, req ContactRequest) (*model.ContactSubmission, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	message := strings.TrimSpace(req.Message)
	if name == "" || message == "" {
		return nil, fmt.Errorf("%w: name 和 message 不能为空", ErrInvalidInput)
	}

	c := &model.ContactSubmission{
		Name:    name,
		Email:   email,
		Subject: strings.TrimSpace(req.Subject),
		Message: message,
	}
	if err := s.contacts.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *ContactService) List(ctx context.Context, page, size int) ([]*model.ContactSubmission, int64, error) {
	return s.contacts.List(ctx, s.pager.page(page, size))
}
