package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/passion-dev-group/guardian/internal/clock"
	"github.com/passion-dev-group/guardian/internal/config"
	"github.com/passion-dev-group/guardian/internal/integrations/plaid"
	"github.com/passion-dev-group/guardian/internal/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// memStore is an in-memory Store for service tests.
type memStore struct {
	mu            sync.Mutex
	users         map[string]*models.User
	profiles      map[string]*models.Profile
	circles       map[string]*models.Circle
	members       []*models.CircleMember
	authorized    map[string]bool
	accounts      map[string]*models.LinkedBankAccount
	contributions map[string]*models.RecurringContribution
	transactions  []*models.CircleTransaction
	seq           int
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[string]*models.User),
		profiles:      make(map[string]*models.Profile),
		circles:       make(map[string]*models.Circle),
		authorized:    make(map[string]bool),
		accounts:      make(map[string]*models.LinkedBankAccount),
		contributions: make(map[string]*models.RecurringContribution),
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *memStore) CreateUser(user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Email]; exists {
		return fmt.Errorf("email taken")
	}
	user.ID = m.nextID("user")
	m.users[user.Email] = user
	return nil
}

func (m *memStore) FindUserByEmail(email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[email]
	if !ok {
		return nil, fmt.Errorf("user not found")
	}
	return user, nil
}

func (m *memStore) CreateProfile(ctx context.Context, p *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.UserID] = p
	return nil
}

func (m *memStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, fmt.Errorf("profile not found")
	}
	return p, nil
}

func (m *memStore) GetCircle(ctx context.Context, id string) (*models.Circle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.circles[id]
	if !ok {
		return nil, fmt.Errorf("circle not found")
	}
	copied := *c
	return &copied, nil
}

func (m *memStore) ActivateCircle(ctx context.Context, id string, startedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.circles[id]
	if !ok {
		return fmt.Errorf("circle not found")
	}
	c.Status = models.CircleStatusActive
	c.StartedAt = &startedAt
	return nil
}

func (m *memStore) SetCircleTestClock(ctx context.Context, id, clockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.circles[id]
	if !ok {
		return fmt.Errorf("circle not found")
	}
	c.TestClockID = clockID
	return nil
}

func (m *memStore) GetMember(ctx context.Context, circleID, userID string) (*models.CircleMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mem := range m.members {
		if mem.CircleID == circleID && mem.UserID == userID {
			copied := *mem
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("member not found")
}

func (m *memStore) ListMembers(ctx context.Context, circleID string) ([]models.CircleMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CircleMember
	for _, mem := range m.members {
		if mem.CircleID == circleID {
			out = append(out, *mem)
		}
	}
	return out, nil
}

func (m *memStore) ListRotationMembers(ctx context.Context, circleID string) ([]models.CircleMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.CircleMember
	for _, mem := range m.members {
		if mem.CircleID == circleID && mem.PayoutPosition != nil {
			out = append(out, *mem)
		}
	}
	return out, nil
}

func (m *memStore) ListAuthorizedMembers(ctx context.Context, circleID string) ([]models.AuthorizedMember, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuthorizedMember
	for _, mem := range m.members {
		if mem.CircleID != circleID || !m.authorized[mem.CircleID+":"+mem.UserID] {
			continue
		}
		am := models.AuthorizedMember{Member: *mem}
		if acct, ok := m.accounts[mem.UserID]; ok {
			copied := *acct
			am.BankAccount = &copied
		}
		if p, ok := m.profiles[mem.UserID]; ok {
			am.Profile = *p
		}
		out = append(out, am)
	}
	return out, nil
}

func (m *memStore) ListDueCandidates(ctx context.Context) ([]models.DueCandidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.DueCandidate
	for _, mem := range m.members {
		c, ok := m.circles[mem.CircleID]
		if !ok || c.Status != models.CircleStatusActive {
			continue
		}
		if mem.PayoutPosition == nil || *mem.PayoutPosition != 1 || mem.NextPayoutDate == nil {
			continue
		}
		out = append(out, models.DueCandidate{Circle: *c, Member: *mem})
	}
	return out, nil
}

func (m *memStore) ApplyRotation(ctx context.Context, circleID string, updates []models.RotationUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range updates {
		found := false
		for _, mem := range m.members {
			if mem.ID == u.MemberID && mem.CircleID == circleID {
				pos := u.Position
				mem.PayoutPosition = &pos
				mem.NextPayoutDate = u.NextPayoutDate
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("member %s not found", u.MemberID)
		}
	}
	return nil
}

func (m *memStore) UpsertRecurringContribution(ctx context.Context, rc *models.RecurringContribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.contributions {
		if existing.CircleID == rc.CircleID && existing.UserID == rc.UserID {
			rc.ID = existing.ID
			rc.Active = true
			m.contributions[rc.ID] = rc
			return nil
		}
	}
	rc.ID = m.nextID("rc")
	rc.Active = true
	m.contributions[rc.ID] = rc
	return nil
}

func (m *memStore) GetRecurringContribution(ctx context.Context, id string) (*models.RecurringContribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rc, ok := m.contributions[id]
	if !ok {
		return nil, fmt.Errorf("recurring contribution not found")
	}
	copied := *rc
	return &copied, nil
}

func (m *memStore) ListActiveContributions(ctx context.Context, circleID string) ([]models.RecurringContribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.RecurringContribution
	for _, rc := range m.contributions {
		if rc.Active && (circleID == "" || rc.CircleID == circleID) {
			out = append(out, *rc)
		}
	}
	return out, nil
}

func (m *memStore) DeactivateContribution(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rc, ok := m.contributions[id]
	if !ok {
		return fmt.Errorf("recurring contribution not found")
	}
	rc.Active = false
	return nil
}

func (m *memStore) CreateTransaction(ctx context.Context, t *models.CircleTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = m.nextID("tx")
	t.CreatedAt = time.Now()
	m.transactions = append(m.transactions, t)
	return nil
}

// cycleTransactions returns a circle's transactions recorded after its last
// payout, mirroring the SQL cycle window.
func (m *memStore) cycleTransactions(circleID string) []*models.CircleTransaction {
	lastPayout := -1
	for i, t := range m.transactions {
		if t.CircleID == circleID && t.Type == models.TransactionTypePayout {
			lastPayout = i
		}
	}
	var out []*models.CircleTransaction
	for i, t := range m.transactions {
		if i > lastPayout && t.CircleID == circleID {
			out = append(out, t)
		}
	}
	return out
}

func (m *memStore) SumCompletedContributions(ctx context.Context, circleID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, t := range m.cycleTransactions(circleID) {
		if t.Type == models.TransactionTypeContribution && t.Status == models.TransactionStatusCompleted {
			sum = sum.Add(t.Amount)
		}
	}
	return sum, nil
}

func (m *memStore) ListCycleContributionTransferIDs(ctx context.Context, circleID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for _, t := range m.cycleTransactions(circleID) {
		if t.Type != models.TransactionTypeContribution || t.Status != models.TransactionStatusCompleted {
			continue
		}
		if id, ok := t.Metadata["transfer_id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memStore) GetActiveBankAccount(ctx context.Context, userID string) (*models.LinkedBankAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("no active bank account")
	}
	copied := *acct
	return &copied, nil
}

// fakeTransfers is an in-memory TransferClient for service tests.
type fakeTransfers struct {
	mu            sync.Mutex
	recurring     []plaid.RecurringTransferRequest
	failTokens    map[string]bool
	cancelled     []string
	clocksCreated int
	advancedTo    []time.Time
	distributions []plaid.DistributeRequest
	distributeErr error
}

func newFakeTransfers() *fakeTransfers {
	return &fakeTransfers{failTokens: make(map[string]bool)}
}

func (f *fakeTransfers) CreateRecurringTransfer(ctx context.Context, req plaid.RecurringTransferRequest) (*plaid.RecurringTransfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTokens[req.AccessToken] {
		return nil, fmt.Errorf("vendor rejected recurring transfer")
	}
	f.recurring = append(f.recurring, req)
	return &plaid.RecurringTransfer{
		RecurringTransferID: fmt.Sprintf("rt-%d", len(f.recurring)),
		Status:              "active",
	}, nil
}

func (f *fakeTransfers) GetRecurringTransfer(ctx context.Context, id string) (*plaid.RecurringTransfer, error) {
	return &plaid.RecurringTransfer{RecurringTransferID: id, Status: "active"}, nil
}

func (f *fakeTransfers) CancelRecurringTransfer(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, id)
	return nil
}

func (f *fakeTransfers) CreateTestClock(ctx context.Context, virtualTime time.Time) (*plaid.TestClock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clocksCreated++
	return &plaid.TestClock{TestClockID: fmt.Sprintf("tc-%d", f.clocksCreated), VirtualTime: virtualTime}, nil
}

func (f *fakeTransfers) AdvanceTestClock(ctx context.Context, id string, to time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advancedTo = append(f.advancedTo, to)
	return nil
}

func (f *fakeTransfers) DistributeLedger(ctx context.Context, req plaid.DistributeRequest) (*plaid.Distribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.distributeErr != nil {
		return nil, f.distributeErr
	}
	f.distributions = append(f.distributions, req)
	return &plaid.Distribution{TransferID: fmt.Sprintf("dist-%d", len(f.distributions)), Status: "pending"}, nil
}

// fixedClocks resolves every circle to the same frozen instant.
type fixedClocks struct {
	now time.Time
}

func (f fixedClocks) ForCircle(ctx context.Context, circle *models.Circle) clock.Clock {
	return clock.Fixed{Time: f.now}
}

func newTestService(store Store, transfers TransferClient, now time.Time) *Service {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg := &config.Config{JWTSecret: "test-secret", Environment: "sandbox"}
	return NewService(store, transfers, fixedClocks{now: now}, nil, nil, log, cfg)
}

// seedCircle creates a circle plus its members in the fake store.
func seedCircle(store *memStore, status models.CircleStatus, frequency models.Frequency, amount string) *models.Circle {
	c := &models.Circle{
		ID:                 store.nextID("circle"),
		Name:               "Rainy Day Fund",
		ContributionAmount: decimal.RequireFromString(amount),
		Frequency:          frequency,
		Status:             status,
		CreatedBy:          "user-admin",
		CreatedAt:          time.Now(),
	}
	store.circles[c.ID] = c
	return c
}

type memberOpts struct {
	admin      bool
	authorized bool
	account    bool
}

func seedMember(store *memStore, circle *models.Circle, userID string, opts memberOpts) *models.CircleMember {
	m := &models.CircleMember{
		ID:       store.nextID("member"),
		CircleID: circle.ID,
		UserID:   userID,
		IsAdmin:  opts.admin,
		JoinedAt: time.Now().Add(time.Duration(len(store.members)) * time.Second),
	}
	store.members = append(store.members, m)
	store.profiles[userID] = &models.Profile{UserID: userID, Email: userID + "@example.com", DisplayName: userID}
	if opts.authorized {
		store.authorized[circle.ID+":"+userID] = true
	}
	if opts.account {
		store.accounts[userID] = &models.LinkedBankAccount{
			ID:             store.nextID("acct"),
			UserID:         userID,
			PlaidAccountID: "plaid-" + userID,
			AccessToken:    "token-" + userID,
			Active:         true,
		}
	}
	return m
}

// seedContribution records a completed contribution ledger entry.
func seedContribution(store *memStore, circle *models.Circle, userID, transferID, amount string) {
	store.transactions = append(store.transactions, &models.CircleTransaction{
		ID:       store.nextID("tx"),
		CircleID: circle.ID,
		UserID:   userID,
		Amount:   decimal.RequireFromString(amount),
		Type:     models.TransactionTypeContribution,
		Status:   models.TransactionStatusCompleted,
		Metadata: map[string]any{"transfer_id": transferID},
	})
}
