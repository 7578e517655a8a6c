// Package services содержит бизнес-логику для управления участниками
// подписок и их долями.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
)

// MemberRepository определяет методы для работы с участниками в хранилище.
type MemberRepository interface {
	// FindMemberByName ищет участника по имени, (nil, nil) если не найден.
	FindMemberByName(ctx context.Context, name, username string) (*models.Member, error)
	// CreateMember сохраняет нового участника и возвращает его ID.
	CreateMember(ctx context.Context, name, username string) (int, error)
	// ListMembers возвращает всех участников пользователя.
	ListMembers(ctx context.Context, username string) ([]*models.Member, error)
	// CreateSubscriptionMember создаёт связь подписки и участника.
	CreateSubscriptionMember(ctx context.Context, subscriptionID, memberID int, share float64) (int, error)
}

// SubscriptionReader проверяет существование подписки перед
// присоединением участника.
type SubscriptionReader interface {
	ReadEntry(ctx context.Context, id int, username string) (*models.Subscription, error)
}

// MemberService реализует бизнес-логику работы с участниками.
type MemberService struct {
	repo          MemberRepository
	subscriptions SubscriptionReader
	log           *slog.Logger
}

// NewMemberService создает новый экземпляр MemberService.
func NewMemberService(repo MemberRepository, subscriptions SubscriptionReader, log *slog.Logger) *MemberService {
	return &MemberService{
		repo:          repo,
		subscriptions: subscriptions,
		log:           log,
	}
}

// AddMember присоединяет участника к подписке пользователя. Участник
// ищется по имени и создаётся, если отсутствует. Повторный вызов с тем
// же именем создаёт вторую связь с той же подпиской.
func (s *MemberService) AddMember(ctx context.Context, subscriptionID int, username string, req models.DummyAddMember) (*models.SubscriptionMember, error) {
	const op = "services.AddMember"

	if _, err := s.subscriptions.ReadEntry(ctx, subscriptionID, username); err != nil {
		return nil, err
	}

	member, err := s.repo.FindMemberByName(ctx, req.Name, username)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if member == nil {
		memberID, err := s.repo.CreateMember(ctx, req.Name, username)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		member = &models.Member{ID: memberID, Name: req.Name, Username: username}
		s.log.Info("created new member", slog.Int("id", memberID))
	}

	linkID, err := s.repo.CreateSubscriptionMember(ctx, subscriptionID, member.ID, req.Share)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("member joined subscription",
		slog.Int("subscription_id", subscriptionID),
		slog.Int("member_id", member.ID))

	return &models.SubscriptionMember{
		ID:             linkID,
		SubscriptionID: subscriptionID,
		MemberID:       member.ID,
		MemberName:     member.Name,
		Share:          req.Share,
	}, nil
}

// ListMembers возвращает всех участников пользователя.
func (s *MemberService) ListMembers(ctx context.Context, username string) ([]*models.Member, error) {
	return s.repo.ListMembers(ctx, username)
}
