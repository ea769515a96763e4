// Package memstore is an in-memory stand-in for the Postgres repositories,
// used by tests. Transactions snapshot every table and restore it when the
// callback fails.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"jawara/internal/utils"
	"jawara/pkg/types"
)

type txKey struct{}

type tables struct {
	users         map[string]types.User
	warga         map[string]types.Warga
	keluarga      map[string]types.Keluarga
	rumah         map[string]types.Rumah
	verifications map[string]types.VerificationRequest
	items         map[string]types.MarketPlaceItem
}

func (t tables) clone() tables {
	return tables{
		users:         cloneMap(t.users),
		warga:         cloneMap(t.warga),
		keluarga:      cloneMap(t.keluarga),
		rumah:         cloneMap(t.rumah),
		verifications: cloneMap(t.verifications),
		items:         cloneMap(t.items),
	}
}

func cloneMap[V any](m map[string]V) map[string]V {
	out := make(map[string]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	seq  int64
	// order records insertion order so equal timestamps still list newest first.
	order map[string]int64
	tables
}

func New() *Store {
	return &Store{
		order: make(map[string]int64),
		tables: tables{
			users:         make(map[string]types.User),
			warga:         make(map[string]types.Warga),
			keluarga:      make(map[string]types.Keluarga),
			rumah:         make(map[string]types.Rumah),
			verifications: make(map[string]types.VerificationRequest),
			items:         make(map[string]types.MarketPlaceItem),
		},
	}
}

// Do runs fn as one transaction. Transactions are serialized.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.tables.clone()
	s.mu.RUnlock()

	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.mu.Lock()
		s.tables = snapshot
		s.mu.Unlock()
		return err
	}

	return nil
}

// Lock is a no-op: Do already serializes transactions.
func (s *Store) Lock(ctx context.Context, keys ...string) error {
	return nil
}

func (s *Store) stamp(key string) {
	s.seq++
	s.order[key] = s.seq
}

func (s *Store) newestFirst(keys []string, created func(string) time.Time) {
	sort.SliceStable(keys, func(i, j int) bool {
		ci, cj := created(keys[i]), created(keys[j])
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return s.order[keys[i]] > s.order[keys[j]]
	})
}

// Users

func (s *Store) User(ctx context.Context, userID string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, types.ErrUserNotFound
	}
	return &user, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*types.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range s.users {
		if strings.ToLower(user.Email) == email {
			u := user
			return &u, nil
		}
	}
	return nil, types.ErrUserNotFound
}

func (s *Store) Create(ctx context.Context, user *types.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == "" {
		user.ID = utils.NanoID()
	}
	if user.Role == "" {
		user.Role = types.RoleWarga
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.CreatedAt = time.Now()

	for _, existing := range s.users {
		if existing.Email == user.Email || existing.ID == user.ID {
			return types.ErrDuplicate
		}
	}

	s.users[user.ID] = *user
	return nil
}

// Warga

func (s *Store) AllWarga(ctx context.Context) ([]*types.Warga, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.warga))
	for k := range s.warga {
		keys = append(keys, k)
	}
	s.newestFirst(keys, func(k string) time.Time { return s.warga[k].CreatedAt })

	out := make([]*types.Warga, 0, len(keys))
	for _, k := range keys {
		out = append(out, s.withKeluarga(s.warga[k]))
	}
	return out, nil
}

func (s *Store) WargaByNIK(ctx context.Context, nik string) (*types.Warga, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.warga[nik]
	if !ok {
		return nil, types.ErrWargaNotFound
	}
	return s.withKeluarga(w), nil
}

func (s *Store) WargaByUserID(ctx context.Context, userID string) (*types.Warga, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, w := range s.warga {
		if w.OwnedBy(userID) {
			return s.withKeluarga(w), nil
		}
	}
	return nil, types.ErrWargaNotFound
}

func (s *Store) withKeluarga(w types.Warga) *types.Warga {
	w.NamaKeluarga = nil
	if w.KeluargaID != nil {
		if k, ok := s.keluarga[*w.KeluargaID]; ok {
			name := k.NamaKeluarga
			w.NamaKeluarga = &name
		}
	}
	return &w
}

func (s *Store) CreateWarga(ctx context.Context, warga *types.Warga) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.insertWarga(warga)
}

func (s *Store) insertWarga(warga *types.Warga) error {
	if _, ok := s.warga[warga.NIK]; ok {
		return types.ErrDuplicate
	}
	if s.userTaken(warga.UserID, "") {
		return types.ErrDuplicate
	}
	if !s.keluargaExists(warga.KeluargaID) {
		return types.ErrUnknownKeluarga
	}

	now := time.Now()
	warga.CreatedAt = now
	warga.UpdatedAt = now

	stored := *warga
	stored.NamaKeluarga = nil
	s.warga[warga.NIK] = stored
	s.stamp("warga:" + warga.NIK)
	return nil
}

// userTaken mirrors the unique index on warga.user_id.
func (s *Store) userTaken(userID *string, exceptNIK string) bool {
	if userID == nil {
		return false
	}
	for nik, w := range s.warga {
		if nik != exceptNIK && w.OwnedBy(*userID) {
			return true
		}
	}
	return false
}

// keluargaExists mirrors the foreign key from warga.keluarga_id.
func (s *Store) keluargaExists(id *string) bool {
	if id == nil {
		return true
	}
	_, ok := s.keluarga[*id]
	return ok
}

func (s *Store) UpdateWarga(ctx context.Context, nik string, warga *types.Warga) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.warga[nik]
	if !ok {
		return types.ErrWargaNotFound
	}
	if s.userTaken(warga.UserID, nik) {
		return types.ErrDuplicate
	}
	if !s.keluargaExists(warga.KeluargaID) {
		return types.ErrUnknownKeluarga
	}

	warga.NIK = nik
	warga.CreatedAt = existing.CreatedAt
	warga.UpdatedAt = time.Now()

	stored := *warga
	stored.NamaKeluarga = nil
	s.warga[nik] = stored
	return nil
}

func (s *Store) UpdateWargaStatus(ctx context.Context, nik string, status types.WargaStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.warga[nik]
	if !ok {
		return types.ErrWargaNotFound
	}
	w.SetStatus(status)
	w.UpdatedAt = time.Now()
	s.warga[nik] = w
	return nil
}

func (s *Store) ReplaceWarga(ctx context.Context, oldNIK string, warga *types.Warga) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.warga[oldNIK]; !ok {
		return types.ErrWargaNotFound
	}

	old := s.warga[oldNIK]
	delete(s.warga, oldNIK)
	if err := s.insertWarga(warga); err != nil {
		s.warga[oldNIK] = old
		return err
	}

	for id, k := range s.keluarga {
		if k.KepalaKeluargaID != nil && *k.KepalaKeluargaID == oldNIK {
			nik := warga.NIK
			k.KepalaKeluargaID = &nik
			s.keluarga[id] = k
		}
	}
	return nil
}

func (s *Store) DeleteWarga(ctx context.Context, nik string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.warga[nik]; !ok {
		return types.ErrWargaNotFound
	}
	delete(s.warga, nik)

	for id, k := range s.keluarga {
		if k.KepalaKeluargaID != nil && *k.KepalaKeluargaID == nik {
			k.KepalaKeluargaID = nil
			s.keluarga[id] = k
		}
	}
	return nil
}

// Verification requests

func (s *Store) CreateRequest(ctx context.Context, req *types.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if req.ID == "" {
		req.ID = utils.NanoID()
	}
	if req.Status == "" {
		req.Status = types.VerificationStatusPending
	}
	req.CreatedAt = time.Now()

	if req.IsPending() {
		for _, existing := range s.verifications {
			if existing.UserID == req.UserID && existing.IsPending() {
				return types.ErrPendingVerificationExist
			}
		}
	}

	s.verifications[req.ID] = *req
	s.stamp("verification:" + req.ID)
	return nil
}

func (s *Store) Request(ctx context.Context, id string) (*types.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req, ok := s.verifications[id]
	if !ok {
		return nil, types.ErrVerificationNotFound
	}
	return &req, nil
}

func (s *Store) PendingByUserID(ctx context.Context, userID string) (*types.VerificationRequest, error) {
	requests := s.requests(func(r types.VerificationRequest) bool {
		return r.UserID == userID && r.IsPending()
	})
	if len(requests) == 0 {
		return nil, nil
	}
	return requests[0], nil
}

func (s *Store) AllRequests(ctx context.Context) ([]*types.VerificationRequest, error) {
	return s.requests(func(types.VerificationRequest) bool { return true }), nil
}

func (s *Store) PendingRequests(ctx context.Context) ([]*types.VerificationRequest, error) {
	return s.requests(func(r types.VerificationRequest) bool { return r.IsPending() }), nil
}

func (s *Store) RequestsByUserID(ctx context.Context, userID string) ([]*types.VerificationRequest, error) {
	return s.requests(func(r types.VerificationRequest) bool { return r.UserID == userID }), nil
}

func (s *Store) requests(keep func(types.VerificationRequest) bool) []*types.VerificationRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.verifications))
	for id, r := range s.verifications {
		if keep(r) {
			keys = append(keys, id)
		}
	}
	s.newestFirst(keys, func(id string) time.Time { return s.verifications[id].CreatedAt })

	out := make([]*types.VerificationRequest, 0, len(keys))
	for _, id := range keys {
		r := s.verifications[id]
		out = append(out, &r)
	}
	return out
}

func (s *Store) ResolveRequest(ctx context.Context, req *types.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.verifications[req.ID]
	if !ok || !existing.IsPending() {
		return types.ErrAlreadyProcessed
	}

	existing.Status = req.Status
	existing.VerifiedBy = req.VerifiedBy
	existing.VerifiedAt = req.VerifiedAt
	s.verifications[req.ID] = existing
	return nil
}

// Keluarga

func (s *Store) AllKeluarga(ctx context.Context) ([]*types.Keluarga, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.keluarga))
	for k := range s.keluarga {
		keys = append(keys, k)
	}
	s.newestFirst(keys, func(k string) time.Time { return s.keluarga[k].CreatedAt })

	out := make([]*types.Keluarga, 0, len(keys))
	for _, k := range keys {
		v := s.keluarga[k]
		out = append(out, &v)
	}
	return out, nil
}

func (s *Store) Keluarga(ctx context.Context, id string) (*types.Keluarga, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	k, ok := s.keluarga[id]
	if !ok {
		return nil, types.ErrKeluargaNotFound
	}
	return &k, nil
}

func (s *Store) CreateKeluarga(ctx context.Context, keluarga *types.Keluarga) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if keluarga.ID == "" {
		keluarga.ID = utils.NanoID()
	}
	now := time.Now()
	keluarga.CreatedAt = now
	keluarga.UpdatedAt = now

	s.keluarga[keluarga.ID] = *keluarga
	s.stamp("keluarga:" + keluarga.ID)
	return nil
}

func (s *Store) UpdateKeluarga(ctx context.Context, id string, keluarga *types.Keluarga) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.keluarga[id]
	if !ok {
		return types.ErrKeluargaNotFound
	}
	keluarga.ID = id
	keluarga.CreatedAt = existing.CreatedAt
	keluarga.UpdatedAt = time.Now()
	s.keluarga[id] = *keluarga
	return nil
}

func (s *Store) DeleteKeluarga(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.keluarga[id]; !ok {
		return types.ErrKeluargaNotFound
	}
	delete(s.keluarga, id)

	for nik, w := range s.warga {
		if w.KeluargaID != nil && *w.KeluargaID == id {
			w.KeluargaID = nil
			s.warga[nik] = w
		}
	}
	return nil
}

// Rumah

func (s *Store) AllRumah(ctx context.Context) ([]*types.Rumah, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.rumah))
	for k := range s.rumah {
		keys = append(keys, k)
	}
	s.newestFirst(keys, func(k string) time.Time { return s.rumah[k].CreatedAt })

	out := make([]*types.Rumah, 0, len(keys))
	for _, k := range keys {
		v := s.rumah[k]
		out = append(out, &v)
	}
	return out, nil
}

func (s *Store) Rumah(ctx context.Context, id string) (*types.Rumah, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rumah[id]
	if !ok {
		return nil, types.ErrRumahNotFound
	}
	return &r, nil
}

func (s *Store) CreateRumah(ctx context.Context, rumah *types.Rumah) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rumah.ID == "" {
		rumah.ID = utils.NanoID()
	}
	now := time.Now()
	rumah.CreatedAt = now
	rumah.UpdatedAt = now

	s.rumah[rumah.ID] = *rumah
	s.stamp("rumah:" + rumah.ID)
	return nil
}

func (s *Store) UpdateRumah(ctx context.Context, id string, rumah *types.Rumah) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rumah[id]
	if !ok {
		return types.ErrRumahNotFound
	}
	rumah.ID = id
	rumah.CreatedAt = existing.CreatedAt
	rumah.UpdatedAt = time.Now()
	s.rumah[id] = *rumah
	return nil
}

func (s *Store) DeleteRumah(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rumah[id]; !ok {
		return types.ErrRumahNotFound
	}
	delete(s.rumah, id)
	return nil
}

// Marketplace

func (s *Store) AllItems(ctx context.Context) ([]*types.MarketPlaceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	s.newestFirst(keys, func(k string) time.Time { return s.items[k].CreatedAt })

	out := make([]*types.MarketPlaceItem, 0, len(keys))
	for _, k := range keys {
		v := s.items[k]
		out = append(out, &v)
	}
	return out, nil
}

func (s *Store) Item(ctx context.Context, id string) (*types.MarketPlaceItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, types.ErrMarketPlaceItemNotFound
	}
	return &item, nil
}

func (s *Store) CreateItem(ctx context.Context, item *types.MarketPlaceItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if item.ID == "" {
		item.ID = utils.NanoID()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	s.items[item.ID] = *item
	s.stamp("item:" + item.ID)
	return nil
}

func (s *Store) UpdateItem(ctx context.Context, id string, item *types.MarketPlaceItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[id]
	if !ok {
		return types.ErrMarketPlaceItemNotFound
	}
	item.ID = id
	item.CreatedAt = existing.CreatedAt
	item.UpdatedAt = time.Now()
	s.items[id] = *item
	return nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return types.ErrMarketPlaceItemNotFound
	}
	delete(s.items, id)
	return nil
}
