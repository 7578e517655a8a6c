package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/subscription-splitter/internal/models"
	"github.com/magabrotheeeer/subscription-splitter/internal/storage/repository"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) FindMemberByName(ctx context.Context, name, username string) (*models.Member, error) {
	args := m.Called(ctx, name, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Member), args.Error(1)
}

func (m *RepoMock) CreateMember(ctx context.Context, name, username string) (int, error) {
	args := m.Called(ctx, name, username)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) ListMembers(ctx context.Context, username string) ([]*models.Member, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Member), args.Error(1)
}

func (m *RepoMock) CreateSubscriptionMember(ctx context.Context, subscriptionID, memberID int, share float64) (int, error) {
	args := m.Called(ctx, subscriptionID, memberID, share)
	return args.Int(0), args.Error(1)
}

type SubscriptionReaderMock struct {
	mock.Mock
}

func (m *SubscriptionReaderMock) ReadEntry(ctx context.Context, id int, username string) (*models.Subscription, error) {
	args := m.Called(ctx, id, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Subscription), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMemberService_AddMember_ExistingMember(t *testing.T) {
	repo := new(RepoMock)
	subs := new(SubscriptionReaderMock)
	svc := NewMemberService(repo, subs, discardLogger())

	subs.On("ReadEntry", mock.Anything, 5, "testuser").
		Return(&models.Subscription{ID: 5}, nil)
	repo.On("FindMemberByName", mock.Anything, "alice", "testuser").
		Return(&models.Member{ID: 7, Name: "alice", Username: "testuser"}, nil)
	repo.On("CreateSubscriptionMember", mock.Anything, 5, 7, 25.0).Return(11, nil)

	got, err := svc.AddMember(context.Background(), 5, "testuser", models.DummyAddMember{
		Name:  "alice",
		Share: 25,
	})
	require.NoError(t, err)
	assert.Equal(t, 11, got.ID)
	assert.Equal(t, 7, got.MemberID)
	assert.Equal(t, "alice", got.MemberName)
	repo.AssertNotCalled(t, "CreateMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestMemberService_AddMember_CreatesMissingMember(t *testing.T) {
	repo := new(RepoMock)
	subs := new(SubscriptionReaderMock)
	svc := NewMemberService(repo, subs, discardLogger())

	subs.On("ReadEntry", mock.Anything, 5, "testuser").
		Return(&models.Subscription{ID: 5}, nil)
	repo.On("FindMemberByName", mock.Anything, "bob", "testuser").Return(nil, nil)
	repo.On("CreateMember", mock.Anything, "bob", "testuser").Return(8, nil)
	repo.On("CreateSubscriptionMember", mock.Anything, 5, 8, 50.0).Return(12, nil)

	got, err := svc.AddMember(context.Background(), 5, "testuser", models.DummyAddMember{
		Name:  "bob",
		Share: 50,
	})
	require.NoError(t, err)
	assert.Equal(t, 8, got.MemberID)
	repo.AssertExpectations(t)
}

func TestMemberService_AddMember_SubscriptionNotFound(t *testing.T) {
	repo := new(RepoMock)
	subs := new(SubscriptionReaderMock)
	svc := NewMemberService(repo, subs, discardLogger())

	subs.On("ReadEntry", mock.Anything, 99, "testuser").
		Return(nil, repository.ErrSubscriptionNotFound)

	_, err := svc.AddMember(context.Background(), 99, "testuser", models.DummyAddMember{
		Name:  "bob",
		Share: 50,
	})
	require.ErrorIs(t, err, repository.ErrSubscriptionNotFound)
	repo.AssertNotCalled(t, "FindMemberByName", mock.Anything, mock.Anything, mock.Anything)
}

func TestMemberService_AddMember_NotIdempotent(t *testing.T) {
	repo := new(RepoMock)
	subs := new(SubscriptionReaderMock)
	svc := NewMemberService(repo, subs, discardLogger())

	subs.On("ReadEntry", mock.Anything, 5, "testuser").
		Return(&models.Subscription{ID: 5}, nil)
	repo.On("FindMemberByName", mock.Anything, "alice", "testuser").
		Return(&models.Member{ID: 7, Name: "alice", Username: "testuser"}, nil)
	repo.On("CreateSubscriptionMember", mock.Anything, 5, 7, 25.0).Return(11, nil).Once()
	repo.On("CreateSubscriptionMember", mock.Anything, 5, 7, 25.0).Return(12, nil).Once()

	first, err := svc.AddMember(context.Background(), 5, "testuser", models.DummyAddMember{Name: "alice", Share: 25})
	require.NoError(t, err)
	second, err := svc.AddMember(context.Background(), 5, "testuser", models.DummyAddMember{Name: "alice", Share: 25})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestMemberService_ListMembers(t *testing.T) {
	repo := new(RepoMock)
	subs := new(SubscriptionReaderMock)
	svc := NewMemberService(repo, subs, discardLogger())

	expected := []*models.Member{
		{ID: 7, Name: "alice", Username: "testuser"},
		{ID: 8, Name: "bob", Username: "testuser"},
	}
	repo.On("ListMembers", mock.Anything, "testuser").Return(expected, nil)

	got, err := svc.ListMembers(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Equal(t, expected, got)
}
