package application

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/oksasatya/videotube/internal/domain/entity"
	repo "github.com/oksasatya/videotube/internal/domain/repository"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[string]*entity.User
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*entity.User{}} }

func clone(u *entity.User) *entity.User {
	c := *u
	c.WatchHistory = append([]string{}, u.WatchHistory...)
	if u.RefreshTokenHash != nil {
		h := *u.RefreshTokenHash
		c.RefreshTokenHash = &h
	}
	return &c
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if other.Username == u.Username || other.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	u.WatchHistory = []string{}
	m.byID[u.ID] = clone(u)
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return clone(u), nil
}

func (m *memUsers) GetByIDs(_ context.Context, ids []string) (map[string]*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]*entity.User{}
	for _, id := range ids {
		if u, ok := m.byID[id]; ok {
			out[id] = clone(u)
		}
	}
	return out, nil
}

func (m *memUsers) find(match func(*entity.User) bool) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if match(u) {
			return clone(u), nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (*entity.User, error) {
	return m.find(func(u *entity.User) bool { return u.Username == username })
}

func (m *memUsers) GetByUsernameOrEmail(_ context.Context, username, email string) (*entity.User, error) {
	if username != "" {
		if u, err := m.find(func(u *entity.User) bool { return u.Username == username }); err == nil {
			return u, nil
		}
	}
	return m.find(func(u *entity.User) bool { return email != "" && u.Email == email })
}

func (m *memUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	_, err := m.find(func(u *entity.User) bool { return u.Username == username || u.Email == email })
	return err == nil, nil
}

func (m *memUsers) EmailTakenByOther(_ context.Context, email, userID string) (bool, error) {
	_, err := m.find(func(u *entity.User) bool { return u.Email == email && u.ID != userID })
	return err == nil, nil
}

func (m *memUsers) update(id string, fn func(u *entity.User)) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	fn(u)
	u.UpdatedAt = time.Now()
	return clone(u), nil
}

func (m *memUsers) SetRefreshToken(_ context.Context, id, hash string) error {
	_, err := m.update(id, func(u *entity.User) { u.RefreshTokenHash = &hash })
	return err
}

func (m *memUsers) ClearRefreshToken(_ context.Context, id string) error {
	_, err := m.update(id, func(u *entity.User) { u.RefreshTokenHash = nil })
	return err
}

func (m *memUsers) SwapRefreshToken(_ context.Context, id, presented, next string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok || !u.HasRefreshToken(presented) {
		return false, nil
	}
	u.RefreshTokenHash = &next
	return true, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	_, err := m.update(id, func(u *entity.User) { u.PasswordHash = hash })
	return err
}

func (m *memUsers) UpdateAccount(_ context.Context, id, fullName, email string) (*entity.User, error) {
	return m.update(id, func(u *entity.User) { u.FullName, u.Email = fullName, email })
}

func (m *memUsers) UpdateAvatar(_ context.Context, id, url string) (*entity.User, error) {
	return m.update(id, func(u *entity.User) { u.AvatarURL = url })
}

func (m *memUsers) UpdateCoverImage(_ context.Context, id, url string) (*entity.User, error) {
	return m.update(id, func(u *entity.User) { u.CoverImageURL = url })
}

func (m *memUsers) AppendWatchHistory(_ context.Context, id, videoID string) error {
	_, err := m.update(id, func(u *entity.User) { u.WatchHistory = append(u.WatchHistory, videoID) })
	return err
}

// raw returns the stored record without copying, for assertions.
func (m *memUsers) raw(id string) *entity.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

type edge struct{ subscriber, channel string }

type memSubs struct {
	mu    sync.Mutex
	edges map[edge]bool
}

func newMemSubs() *memSubs { return &memSubs{edges: map[edge]bool{}} }

func edgeKey(subscriberID, channelID string) edge { return edge{subscriberID, channelID} }

func (m *memSubs) count(match func(sub, ch string) bool) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for e := range m.edges {
		if match(e.subscriber, e.channel) {
			n++
		}
	}
	return n
}

func (m *memSubs) CountSubscribers(_ context.Context, channelID string) (int64, error) {
	return m.count(func(_, ch string) bool { return ch == channelID }), nil
}

func (m *memSubs) CountSubscribedTo(_ context.Context, subscriberID string) (int64, error) {
	return m.count(func(sub, _ string) bool { return sub == subscriberID }), nil
}

func (m *memSubs) Exists(_ context.Context, subscriberID, channelID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.edges[edgeKey(subscriberID, channelID)], nil
}

func (m *memSubs) Subscribe(_ context.Context, subscriberID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges[edgeKey(subscriberID, channelID)] = true
	return nil
}

func (m *memSubs) Unsubscribe(_ context.Context, subscriberID, channelID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.edges, edgeKey(subscriberID, channelID))
	return nil
}

type memVideos struct {
	byID map[string]*entity.Video
}

func newMemVideos() *memVideos { return &memVideos{byID: map[string]*entity.Video{}} }

func (m *memVideos) add(ownerID, title string) *entity.Video {
	v := &entity.Video{ID: uuid.NewString(), Title: title, OwnerID: ownerID, IsPublished: true}
	m.byID[v.ID] = v
	return v
}

func (m *memVideos) GetByID(_ context.Context, id string) (*entity.Video, error) {
	v, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return v, nil
}

func (m *memVideos) GetByIDs(_ context.Context, ids []string) (map[string]*entity.Video, error) {
	out := map[string]*entity.Video{}
	for _, id := range ids {
		if v, ok := m.byID[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type mockUploader struct{ mock.Mock }

func (m *mockUploader) Upload(ctx context.Context, localPath string) (string, error) {
	args := m.Called(ctx, localPath)
	return args.String(0), args.Error(1)
}

type mockQueue struct{ mock.Mock }

func (m *mockQueue) PublishJSON(ctx context.Context, body any) error {
	return m.Called(ctx, body).Error(0)
}

type fakeIndex struct {
	indexed []string
	err     error
}

func (f *fakeIndex) IndexChannel(_ context.Context, u *entity.User) error {
	f.indexed = append(f.indexed, u.ID)
	return f.err
}
