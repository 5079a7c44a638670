package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"quickjob/internal/domain/application"
	"quickjob/internal/domain/city"
	"quickjob/internal/domain/position"
	"quickjob/internal/repository"
)

type fakeCityRepo struct {
	cities map[int64]city.City
	err    error
}

func (f *fakeCityRepo) FindByID(_ context.Context, id int64) (city.City, error) {
	if f.err != nil {
		return city.City{}, f.err
	}
	c, ok := f.cities[id]
	if !ok {
		return city.City{}, repository.ErrCityNotFound
	}
	return c, nil
}

type fakePositionRepo struct {
	positions []position.Position
	cities    map[int64][]city.City
	tags      map[int64][]position.Tag
	err       error

	listCalls int
}

func (f *fakePositionRepo) active(search string) []position.Position {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := []position.Position{}
	for _, p := range f.positions {
		if p.IsActive && strings.Contains(strings.ToLower(p.Title), needle) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Title > out[j].Title })
	return out
}

func (f *fakePositionRepo) CountActive(_ context.Context, search string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.active(search)), nil
}

func (f *fakePositionRepo) ListActive(_ context.Context, search string, limit, offset int) ([]position.Position, error) {
	f.listCalls++
	if f.err != nil {
		return nil, f.err
	}
	all := f.active(search)
	if offset >= len(all) {
		return []position.Position{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (f *fakePositionRepo) FindActiveByID(_ context.Context, id int64) (position.Position, error) {
	if f.err != nil {
		return position.Position{}, f.err
	}
	for _, p := range f.positions {
		if p.ID == id && p.IsActive {
			return p, nil
		}
	}
	return position.Position{}, repository.ErrPositionNotFound
}

func (f *fakePositionRepo) FindActiveBySlug(_ context.Context, slug string) (position.Position, error) {
	if f.err != nil {
		return position.Position{}, f.err
	}
	for _, p := range f.positions {
		if p.Slug == slug && p.IsActive {
			return p, nil
		}
	}
	return position.Position{}, repository.ErrPositionNotFound
}

func (f *fakePositionRepo) ListCities(_ context.Context, id int64) ([]city.City, error) {
	return append([]city.City{}, f.cities[id]...), f.err
}

func (f *fakePositionRepo) ListCitiesBySlug(ctx context.Context, slug string) ([]city.City, error) {
	for _, p := range f.positions {
		if p.Slug == slug {
			return f.ListCities(ctx, p.ID)
		}
	}
	return []city.City{}, f.err
}

func (f *fakePositionRepo) IsOpenInCity(_ context.Context, positionID, cityID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, c := range f.cities[positionID] {
		if c.ID == cityID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePositionRepo) ListTags(_ context.Context, id int64) ([]position.Tag, error) {
	return append([]position.Tag{}, f.tags[id]...), f.err
}

// fakeApplicationRepo keeps committed rows and buffers a transaction's rows
// until Commit, so tests can assert on atomicity.
type fakeApplicationRepo struct {
	mu    sync.Mutex
	apps  []application.Application
	files []application.File

	existsErr     error
	insertErr     error
	insertFileErr error
	commitErr     error
	// skipExists makes ExistsForCandidate report false, simulating a
	// concurrent submission that passed the check first.
	skipExists bool

	nextID     int64
	rollbacks  int
	beginCalls int
}

func (f *fakeApplicationRepo) ExistsForCandidate(_ context.Context, email string, cityID, positionID int64) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	if f.skipExists {
		return false, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasLocked(email, cityID, positionID), nil
}

func (f *fakeApplicationRepo) hasLocked(email string, cityID, positionID int64) bool {
	for _, a := range f.apps {
		if a.Email == email && a.CityID == cityID && a.PositionID == positionID {
			return true
		}
	}
	return false
}

func (f *fakeApplicationRepo) Begin(context.Context) (repository.ApplicationTx, error) {
	f.mu.Lock()
	f.beginCalls++
	f.mu.Unlock()
	return &fakeApplicationTx{repo: f}, nil
}

func (f *fakeApplicationRepo) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.apps), len(f.files)
}

type fakeApplicationTx struct {
	repo  *fakeApplicationRepo
	apps  []application.Application
	files []application.File
	done  bool
}

func (t *fakeApplicationTx) Insert(_ context.Context, app application.Application) (int64, error) {
	if t.repo.insertErr != nil {
		return 0, t.repo.insertErr
	}
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	if t.repo.hasLocked(app.Email, app.CityID, app.PositionID) {
		return 0, repository.ErrDuplicateApplication
	}
	t.repo.nextID++
	app.ID = t.repo.nextID
	t.apps = append(t.apps, app)
	return app.ID, nil
}

func (t *fakeApplicationTx) InsertFile(_ context.Context, f application.File) (int64, error) {
	if t.repo.insertFileErr != nil {
		return 0, t.repo.insertFileErr
	}
	f.ID = int64(len(t.files) + 1)
	t.files = append(t.files, f)
	return f.ID, nil
}

func (t *fakeApplicationTx) Commit(context.Context) error {
	if t.done {
		return errors.New("tx closed")
	}
	if t.repo.commitErr != nil {
		return t.repo.commitErr
	}
	t.done = true
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	t.repo.apps = append(t.repo.apps, t.apps...)
	t.repo.files = append(t.repo.files, t.files...)
	return nil
}

func (t *fakeApplicationTx) Rollback(context.Context) error {
	if t.done {
		return errors.New("tx closed")
	}
	t.done = true
	t.repo.mu.Lock()
	t.repo.rollbacks++
	t.repo.mu.Unlock()
	return nil
}

type fakeFileStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	failOn  string
	removed []string
}

func newFakeFileStore() *fakeFileStore {
	return &fakeFileStore{files: map[string][]byte{}}
}

func (s *fakeFileStore) Save(_ context.Context, name string, r io.Reader) error {
	if s.failOn != "" && name == s.failOn {
		return errors.New("disk full")
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = b
	return nil
}

func (s *fakeFileStore) Remove(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, name)
	s.removed = append(s.removed, name)
	return nil
}

func (s *fakeFileStore) has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[name]
	return ok
}

type notification struct {
	position string
	cityID   int64
}

type fakeNotifier struct {
	got []notification
}

func (n *fakeNotifier) NotifyApplicationReceived(position string, cityID int64) {
	n.got = append(n.got, notification{position: position, cityID: cityID})
}

type fakeObserver struct {
	outcomes    []string
	storedFiles int
	cacheHits   int
	cacheMisses int
}

func (o *fakeObserver) ObserveSubmission(outcome string) { o.outcomes = append(o.outcomes, outcome) }
func (o *fakeObserver) AddStoredFiles(n int)             { o.storedFiles += n }
func (o *fakeObserver) ObserveCacheLookup(hit bool) {
	if hit {
		o.cacheHits++
		return
	}
	o.cacheMisses++
}

type mapCache struct {
	mu    sync.Mutex
	items map[string][]byte
	locks map[string]bool
}

func newMapCache() *mapCache {
	return &mapCache{items: map[string][]byte{}, locks: map[string]bool{}}
}

func (c *mapCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.mu.Lock()
	b, ok := c.items[key]
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *mapCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = b
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	delete(c.locks, key)
	return nil
}

func (c *mapCache) SetIfNotExists(_ context.Context, key, _ string, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.locks[key] {
		return false, nil
	}
	c.locks[key] = true
	return true, nil
}

func attachment(name, content string) Attachment {
	return Attachment{
		Filename:    name,
		Size:        int64(len(content)),
		ContentType: "application/pdf",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewBufferString(content)), nil
		},
	}
}
