// Package service implements the circle rotation pipeline: initializing a
// circle's recurring contributions, detecting ended payout cycles, and
// settling pooled funds to the next member in rotation.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/passion-dev-group/guardian/internal/clock"
	"github.com/passion-dev-group/guardian/internal/config"
	"github.com/passion-dev-group/guardian/internal/integrations/plaid"
	"github.com/passion-dev-group/guardian/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Fatal precondition and authorization errors. The HTTP layer maps these
// onto status codes; everything else is a 500.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotCircleAdmin      = errors.New("caller is not an admin of this circle")
	ErrNotSiteAdmin        = errors.New("caller is not a site administrator")
	ErrCircleNotPending    = errors.New("circle is already active or completed")
	ErrNoAuthorizedMembers = errors.New("no members have authorized ACH debits")
	ErrNoEnrollments       = errors.New("no member could be enrolled")
)

// Store is the persistence surface the service needs, implemented by
// repository.Repository.
type Store interface {
	CreateUser(user *models.User) error
	FindUserByEmail(email string) (*models.User, error)
	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)

	GetCircle(ctx context.Context, id string) (*models.Circle, error)
	ActivateCircle(ctx context.Context, id string, startedAt time.Time) error
	SetCircleTestClock(ctx context.Context, id, clockID string) error

	GetMember(ctx context.Context, circleID, userID string) (*models.CircleMember, error)
	ListMembers(ctx context.Context, circleID string) ([]models.CircleMember, error)
	ListRotationMembers(ctx context.Context, circleID string) ([]models.CircleMember, error)
	ListAuthorizedMembers(ctx context.Context, circleID string) ([]models.AuthorizedMember, error)
	ListDueCandidates(ctx context.Context) ([]models.DueCandidate, error)
	ApplyRotation(ctx context.Context, circleID string, updates []models.RotationUpdate) error

	UpsertRecurringContribution(ctx context.Context, rc *models.RecurringContribution) error
	GetRecurringContribution(ctx context.Context, id string) (*models.RecurringContribution, error)
	ListActiveContributions(ctx context.Context, circleID string) ([]models.RecurringContribution, error)
	DeactivateContribution(ctx context.Context, id string) error

	CreateTransaction(ctx context.Context, t *models.CircleTransaction) error
	SumCompletedContributions(ctx context.Context, circleID string) (decimal.Decimal, error)
	ListCycleContributionTransferIDs(ctx context.Context, circleID string) ([]string, error)
	GetActiveBankAccount(ctx context.Context, userID string) (*models.LinkedBankAccount, error)
}

// TransferClient is the payments-vendor surface the service needs,
// implemented by plaid.Client.
type TransferClient interface {
	CreateRecurringTransfer(ctx context.Context, req plaid.RecurringTransferRequest) (*plaid.RecurringTransfer, error)
	GetRecurringTransfer(ctx context.Context, id string) (*plaid.RecurringTransfer, error)
	CancelRecurringTransfer(ctx context.Context, id string) error
	CreateTestClock(ctx context.Context, virtualTime time.Time) (*plaid.TestClock, error)
	AdvanceTestClock(ctx context.Context, id string, to time.Time) error
	DistributeLedger(ctx context.Context, req plaid.DistributeRequest) (*plaid.Distribution, error)
}

// ClockResolver yields the clock governing one circle's schedule.
type ClockResolver interface {
	ForCircle(ctx context.Context, circle *models.Circle) clock.Clock
}

// Publisher emits domain events. May be nil when no brokers are configured.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Mailer sends member notifications. May be nil.
type Mailer interface {
	SendEnrollmentConfirmation(to, name, circleName string, amount decimal.Decimal, firstDebit time.Time) error
	SendPayoutNotification(to, name, circleName string, amount decimal.Decimal) error
	SendManualReviewAlert(to, circleName string, amount decimal.Decimal) error
}

// Service handles business logic
type Service struct {
	store     Store
	transfers TransferClient
	clocks    ClockResolver
	publisher Publisher
	mailer    Mailer
	log       *logrus.Logger
	config    *config.Config
}

// NewService initializes a new service
func NewService(store Store, transfers TransferClient, clocks ClockResolver, publisher Publisher, mailer Mailer, log *logrus.Logger, cfg *config.Config) *Service {
	return &Service{
		store:     store,
		transfers: transfers,
		clocks:    clocks,
		publisher: publisher,
		mailer:    mailer,
		log:       log,
		config:    cfg,
	}
}

// idempotencyKey derives a deterministic vendor idempotency key from stable
// entity identifiers, so a retried operation repeats the same key instead of
// minting a new one.
func idempotencyKey(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, ":"))).String()
}

func (s *Service) publish(ctx context.Context, key string, event any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, key, event); err != nil {
		s.log.Warnf("Failed to publish event for %s: %v", key, err)
	}
}
