package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/magabrotheeeer/parking-manager/internal/models"
)

// fakeRepo хранилище в памяти с той же семантикой уникальности, что и PostgreSQL.
type fakeRepo struct {
	mu        sync.Mutex
	seq       int
	sites     map[string]*models.Site
	users     map[string]*models.User
	contracts map[string]*models.Contract
	alerts    map[string]*models.ContractAlert
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sites:     map[string]*models.Site{},
		users:     map[string]*models.User{},
		contracts: map[string]*models.Contract{},
		alerts:    map[string]*models.ContractAlert{},
	}
}

func (r *fakeRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *fakeRepo) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *fakeRepo) GetSite(_ context.Context, id string) (*models.Site, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sites[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeRepo) CreateUser(_ context.Context, user models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, models.ErrConflict
		}
	}
	user.ID = r.nextID("user")
	r.users[user.ID] = &user
	cp := user
	return &cp, nil
}

func (r *fakeRepo) CreateContract(_ context.Context, c models.Contract) (*models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = r.nextID("contract")
	r.contracts[c.ID] = &c
	cp := c
	return &cp, nil
}

func (r *fakeRepo) GetContract(_ context.Context, id string) (*models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contracts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeRepo) UpdateContractRenewal(_ context.Context, c models.Contract) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.contracts[c.ID]
	if !ok {
		return models.ErrNotFound
	}
	stored.EndDate = c.EndDate
	stored.Status = c.Status
	stored.MonthlyFee = c.MonthlyFee
	stored.LastPaymentDate = c.LastPaymentDate
	stored.NextPaymentDate = c.NextPaymentDate
	return nil
}

func (r *fakeRepo) UpdateContractStatus(_ context.Context, id string, status models.ContractStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contracts[id]
	if !ok {
		return models.ErrNotFound
	}
	c.Status = status
	return nil
}

func (r *fakeRepo) ListContractEndDates(_ context.Context) ([]models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Contract
	for _, c := range r.contracts {
		out = append(out, models.Contract{ID: c.ID, EndDate: c.EndDate})
	}
	return out, nil
}

func (r *fakeRepo) ListContracts(_ context.Context) ([]*models.Contract, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Contract
	for _, c := range r.contracts {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return out, nil
}

func (r *fakeRepo) ResolvePendingAlerts(_ context.Context, contractID string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, a := range r.alerts {
		if a.ContractID == contractID && a.Status == models.AlertPending {
			a.Status = models.AlertResolved
			at := now
			a.ResolvedAt = &at
			a.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *fakeRepo) UpsertAlert(_ context.Context, alert models.ContractAlert) (*models.ContractAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.alerts {
		if a.ContractID == alert.ContractID && a.AlertType == alert.AlertType {
			a.Status = models.AlertPending
			a.Message = alert.Message
			a.UpdatedAt = alert.UpdatedAt
			a.ResolvedAt = nil
			cp := *a
			return &cp, nil
		}
	}
	alert.ID = r.nextID("alert")
	alert.Status = models.AlertPending
	alert.CreatedAt = alert.UpdatedAt
	r.alerts[alert.ID] = &alert
	cp := alert
	return &cp, nil
}

func (r *fakeRepo) ListPendingAlerts(_ context.Context) ([]*models.ContractAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ContractAlert
	for _, a := range r.alerts {
		if a.Status == models.AlertPending {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeRepo) ListContractPendingAlerts(_ context.Context, contractID string) ([]*models.ContractAlert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.ContractAlert
	for _, a := range r.alerts {
		if a.ContractID == contractID && a.Status == models.AlertPending {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// alertsOf возвращает все уведомления контракта независимо от статуса.
func (r *fakeRepo) alertsOf(contractID string) []models.ContractAlert {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ContractAlert
	for _, a := range r.alerts {
		if a.ContractID == contractID {
			out = append(out, *a)
		}
	}
	return out
}
