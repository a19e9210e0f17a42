package contact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Submit stores a message from clientID. Fields are trimmed and must all be
// non-empty.
func (s *Service) Submit(ctx context.Context, clientID, name, email, subject, body string) (Message, error) {
	m := Message{
		ID:        uuid.New(),
		ClientID:  clientID,
		Name:      strings.TrimSpace(name),
		Email:     strings.TrimSpace(email),
		Subject:   strings.TrimSpace(subject),
		Message:   strings.TrimSpace(body),
		CreatedAt: s.now().UTC(),
	}
	if m.Name == "" || m.Email == "" || m.Subject == "" || m.Message == "" {
		return Message{}, ErrIncomplete
	}

	if err := s.repo.Save(ctx, m); err != nil {
		return Message{}, fmt.Errorf("save contact message: %w", err)
	}
	s.logger.Info("contact message received",
		zap.String("message_id", m.ID.String()),
		zap.String("client_id", clientID),
		zap.String("subject", m.Subject),
	)
	return m, nil
}

func (s *Service) Info() Info {
	return info
}
