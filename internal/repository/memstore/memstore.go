// Package memstore is an in-memory repository.Store for tests. It mimics the
// Postgres error surface the services classify: pgx.ErrNoRows for missing
// rows and *pgconn.PgError for constraint violations.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/northgate/helpdesk/internal/domain"
	"github.com/northgate/helpdesk/internal/repository"
)

type state struct {
	users    map[int64]domain.User
	assets   map[int64]domain.Asset
	tickets  map[int64]domain.Ticket
	messages []domain.TicketMessage
	faqs     map[int64]domain.FAQ
	nextID   int64
}

func (s *state) clone() *state {
	c := &state{
		users:    make(map[int64]domain.User, len(s.users)),
		assets:   make(map[int64]domain.Asset, len(s.assets)),
		tickets:  make(map[int64]domain.Ticket, len(s.tickets)),
		messages: append([]domain.TicketMessage(nil), s.messages...),
		faqs:     make(map[int64]domain.FAQ, len(s.faqs)),
		nextID:   s.nextID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.assets {
		c.assets[k] = v
	}
	for k, v := range s.tickets {
		c.tickets[k] = v
	}
	for k, v := range s.faqs {
		c.faqs[k] = v
	}
	return c
}

// Store is a goroutine-safe in-memory store. Transactions are serialized and
// roll back by restoring a snapshot.
type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	data     *state
	failures map[string]error

	// Now stamps created_at and updated_at columns.
	Now func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		data: &state{
			users:   map[int64]domain.User{},
			assets:  map[int64]domain.Asset{},
			tickets: map[int64]domain.Ticket{},
			faqs:    map[int64]domain.FAQ{},
		},
		failures: map[string]error{},
		Now:      time.Now,
	}
}

// Fail makes every later call of op return err. Ops are named
// "<table>.<method>", e.g. "messages.create" or "tickets.lock".
func (s *Store) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = err
}

// Repos returns repositories outside any transaction.
func (s *Store) Repos() repository.Repositories {
	return repository.Repositories{
		Users:    &users{s},
		Assets:   &assets{s},
		Tickets:  &tickets{s},
		Messages: &messages{s},
		FAQs:     &faqs{s},
	}
}

// InTx runs fn and restores the pre-call state when it returns an error or
// panics.
func (s *Store) InTx(_ context.Context, fn func(repository.Repositories) error) (err error) {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	defer func() {
		p := recover()
		s.mu.Lock()
		if err != nil || p != nil {
			s.data = snapshot
		}
		s.mu.Unlock()
		if p != nil {
			panic(p)
		}
	}()

	return fn(s.Repos())
}

// SeedUser inserts u directly and returns its id.
func (s *Store) SeedUser(u domain.User) int64 {
	_ = s.Repos().Users.Create(context.Background(), &u)
	return u.ID
}

// SeedAsset inserts a directly and returns its id.
func (s *Store) SeedAsset(a domain.Asset) int64 {
	_ = s.Repos().Assets.Create(context.Background(), &a)
	return a.ID
}

// Messages returns every stored message for ticketID in storage order.
func (s *Store) Messages(ticketID int64) []domain.TicketMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.TicketMessage
	for _, m := range s.data.messages {
		if m.TicketID == ticketID {
			out = append(out, m)
		}
	}
	return out
}

// Ticket returns the stored row for id.
func (s *Store) Ticket(id int64) (domain.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.data.tickets[id]
	return t, ok
}

func (s *Store) begin(op string) error {
	s.mu.Lock()
	if err := s.failures[op]; err != nil {
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) id() int64 {
	s.data.nextID++
	return s.data.nextID
}

func fkViolation(constraint string) error {
	return &pgconn.PgError{Code: "23503", ConstraintName: constraint, Message: "foreign key violation"}
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value"}
}

type users struct{ s *Store }

func (r *users) Create(_ context.Context, u *domain.User) error {
	if err := r.s.begin("users.create"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	for _, existing := range r.s.data.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return uniqueViolation("usuarios_email_key")
		}
	}
	u.ID = r.s.id()
	u.CreatedAt = r.s.Now()
	r.s.data.users[u.ID] = *u
	return nil
}

func (r *users) GetByID(_ context.Context, id int64) (*domain.User, error) {
	if err := r.s.begin("users.get"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &u, nil
}

func (r *users) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	if err := r.s.begin("users.get_by_email"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	for _, u := range r.s.data.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *users) UpdatePassword(_ context.Context, id int64, hash string) error {
	if err := r.s.begin("users.update_password"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	u, ok := r.s.data.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	r.s.data.users[id] = u
	return nil
}

type assets struct{ s *Store }

func (r *assets) Create(_ context.Context, a *domain.Asset) error {
	if err := r.s.begin("assets.create"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	a.ID = r.s.id()
	a.CreatedAt = r.s.Now()
	r.s.data.assets[a.ID] = *a
	return nil
}

func (r *assets) GetByID(_ context.Context, id int64) (*domain.Asset, error) {
	if err := r.s.begin("assets.get"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	a, ok := r.s.data.assets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &a, nil
}

func (r *assets) List(_ context.Context) ([]domain.Asset, error) {
	if err := r.s.begin("assets.list"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []domain.Asset{}
	for _, a := range r.s.data.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *assets) Delete(_ context.Context, id int64) error {
	if err := r.s.begin("assets.delete"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.assets[id]; !ok {
		return pgx.ErrNoRows
	}
	for _, t := range r.s.data.tickets {
		if t.AssetID != nil && *t.AssetID == id {
			return fkViolation("tickets_activo_id_fkey")
		}
	}
	delete(r.s.data.assets, id)
	return nil
}

type tickets struct{ s *Store }

// resolve fills the joined columns. Callers hold s.mu.
func (r *tickets) resolve(t domain.Ticket) domain.Ticket {
	t.AssetName = nil
	if t.AssetID != nil {
		if a, ok := r.s.data.assets[*t.AssetID]; ok {
			name := a.Name
			t.AssetName = &name
		}
	}
	if u, ok := r.s.data.users[t.CreatorID]; ok {
		t.CreatorName = u.Name
	}
	return t
}

func (r *tickets) Create(_ context.Context, t *domain.Ticket) error {
	if err := r.s.begin("tickets.create"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if t.AssetID != nil {
		if _, ok := r.s.data.assets[*t.AssetID]; !ok {
			return fkViolation("tickets_activo_id_fkey")
		}
	}
	if _, ok := r.s.data.users[t.CreatorID]; !ok {
		return fkViolation("tickets_usuario_id_fkey")
	}
	t.ID = r.s.id()
	t.UpdatedAt = t.CreatedAt
	r.s.data.tickets[t.ID] = *t
	return nil
}

func (r *tickets) get(op string, id int64) (*domain.Ticket, error) {
	if err := r.s.begin(op); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	t, ok := r.s.data.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	t = r.resolve(t)
	return &t, nil
}

func (r *tickets) GetByID(_ context.Context, id int64) (*domain.Ticket, error) {
	return r.get("tickets.get", id)
}

func (r *tickets) LockByID(_ context.Context, id int64) (*domain.Ticket, error) {
	return r.get("tickets.lock", id)
}

func (r *tickets) update(op string, id int64, mutate func(*domain.Ticket)) error {
	if err := r.s.begin(op); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	t, ok := r.s.data.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	mutate(&t)
	t.UpdatedAt = r.s.Now()
	r.s.data.tickets[id] = t
	return nil
}

func (r *tickets) UpdateStatus(_ context.Context, id int64, status domain.TicketStatus) error {
	return r.update("tickets.update_status", id, func(t *domain.Ticket) { t.Status = status })
}

func (r *tickets) UpdateRating(_ context.Context, id int64, rating int) error {
	return r.update("tickets.update_rating", id, func(t *domain.Ticket) { t.Rating = &rating })
}

func (r *tickets) Delete(_ context.Context, id int64) error {
	if err := r.s.begin("tickets.delete"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	delete(r.s.data.tickets, id)
	kept := r.s.data.messages[:0:0]
	for _, m := range r.s.data.messages {
		if m.TicketID != id {
			kept = append(kept, m)
		}
	}
	r.s.data.messages = kept
	return nil
}

func (r *tickets) List(_ context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if err := r.s.begin("tickets.list"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()

	out := []domain.Ticket{}
	for _, t := range r.s.data.tickets {
		if filter.CreatorID != nil && t.CreatorID != *filter.CreatorID {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, t.Status) {
			continue
		}
		out = append(out, r.resolve(t))
	}
	sort.Slice(out, func(i, j int) bool {
		ci, cj := out[i].Status == domain.TicketStatusClosed, out[j].Status == domain.TicketStatusClosed
		if ci != cj {
			return !ci
		}
		if !out[i].Deadline.Equal(out[j].Deadline) {
			return out[i].Deadline.Before(out[j].Deadline)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *tickets) ListForExport(_ context.Context) ([]domain.Ticket, error) {
	if err := r.s.begin("tickets.export"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []domain.Ticket{}
	for _, t := range r.s.data.tickets {
		out = append(out, r.resolve(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func containsStatus(list []domain.TicketStatus, s domain.TicketStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type messages struct{ s *Store }

func (r *messages) Create(_ context.Context, m *domain.TicketMessage) error {
	if err := r.s.begin("messages.create"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.tickets[m.TicketID]; !ok {
		return fkViolation("mensajes_ticket_id_fkey")
	}
	m.ID = r.s.id()
	m.CreatedAt = r.s.Now()
	r.s.data.messages = append(r.s.data.messages, *m)
	return nil
}

func (r *messages) ListByTicket(_ context.Context, ticketID int64) ([]domain.TicketMessage, error) {
	if err := r.s.begin("messages.list"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []domain.TicketMessage{}
	for _, m := range r.s.data.messages {
		if m.TicketID != ticketID {
			continue
		}
		m.AuthorName = domain.SystemAuthorName
		if m.AuthorID != nil {
			if u, ok := r.s.data.users[*m.AuthorID]; ok {
				m.AuthorName = u.Name
			}
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

type faqs struct{ s *Store }

func (r *faqs) Create(_ context.Context, f *domain.FAQ) error {
	if err := r.s.begin("faqs.create"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.users[f.AuthorID]; !ok {
		return fkViolation("faqs_autor_id_fkey")
	}
	f.ID = r.s.id()
	f.CreatedAt = r.s.Now()
	f.UpdatedAt = f.CreatedAt
	r.s.data.faqs[f.ID] = *f
	return nil
}

func (r *faqs) withAuthor(f domain.FAQ) domain.FAQ {
	if u, ok := r.s.data.users[f.AuthorID]; ok {
		f.AuthorName = u.Name
	}
	return f
}

func (r *faqs) GetByID(_ context.Context, id int64) (*domain.FAQ, error) {
	if err := r.s.begin("faqs.get"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	f, ok := r.s.data.faqs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	f = r.withAuthor(f)
	return &f, nil
}

func (r *faqs) List(_ context.Context, category string) ([]domain.FAQ, error) {
	if err := r.s.begin("faqs.list"); err != nil {
		return nil, err
	}
	defer r.s.mu.Unlock()
	out := []domain.FAQ{}
	for _, f := range r.s.data.faqs {
		if category != "" && f.Category != category {
			continue
		}
		out = append(out, r.withAuthor(f))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Title < out[j].Title
	})
	return out, nil
}

func (r *faqs) Delete(_ context.Context, id int64) error {
	if err := r.s.begin("faqs.delete"); err != nil {
		return err
	}
	defer r.s.mu.Unlock()
	if _, ok := r.s.data.faqs[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.s.data.faqs, id)
	return nil
}
