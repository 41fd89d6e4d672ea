package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/localsolutions/board-api/internal/core/domain"
	"github.com/localsolutions/board-api/internal/infra/security"
	"github.com/localsolutions/board-api/internal/repository"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]domain.User
	// lookupErr forces LookupIdentity to fail, simulating a backend outage.
	lookupErr error
}

func newTestUserRepo(users ...domain.User) *testUserRepo {
	repo := &testUserRepo{users: make(map[int64]domain.User)}
	for _, user := range users {
		if user.ID > repo.nextID {
			repo.nextID = user.ID
		}
		repo.users[user.ID] = user
	}
	return repo
}

func (r *testUserRepo) Create(_ context.Context, user domain.User) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return 0, repository.ErrConflict
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = user
	return user.ID, nil
}

func (r *testUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		copy := user
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *testUserRepo) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if match(user) {
			copy := user
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *testUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *testUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *testUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	_, err := r.find(func(u domain.User) bool { return u.Username == username })
	return err == nil, nil
}

func (r *testUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, err := r.find(func(u domain.User) bool { return u.Email == email })
	return err == nil, nil
}

func (r *testUserRepo) ExistsByMobileNumber(_ context.Context, mobile string) (bool, error) {
	_, err := r.find(func(u domain.User) bool { return u.MobileNumber == mobile })
	return err == nil, nil
}

func (r *testUserRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users), nil
}

func (r *testUserRepo) LookupIdentity(_ context.Context, username string) (*domain.Identity, error) {
	if r.lookupErr != nil {
		return nil, r.lookupErr
	}
	user, err := r.find(func(u domain.User) bool { return u.Username == username })
	if err != nil {
		return nil, err
	}
	identity := user.Identity()
	return &identity, nil
}

func (r *testUserRepo) CountByRole(_ context.Context, role domain.Role) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, user := range r.users {
		if user.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *testUserRepo) sorted(match func(domain.User) bool) []domain.User {
	var out []domain.User
	for _, user := range r.users {
		if match(user) {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *testUserRepo) List(_ context.Context, page domain.PageRequest) ([]domain.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(domain.User) bool { return true })
	start := int(page.Offset())
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Normalize().Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (r *testUserRepo) Find(_ context.Context, q domain.UserQuery) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(u domain.User) bool {
		return (q.Role == "" || u.Role == q.Role) &&
			(q.Pincode == "" || u.Pincode == q.Pincode) &&
			(q.BusinessCategory == "" || strings.EqualFold(u.BusinessCategory, q.BusinessCategory))
	}), nil
}

func (r *testUserRepo) UpdateProfile(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.users[user.ID]
	if !ok {
		return repository.ErrNotFound
	}
	current.FullName = user.FullName
	current.MobileNumber = user.MobileNumber
	current.Pincode = user.Pincode
	current.ShopName = user.ShopName
	current.BusinessCategory = user.BusinessCategory
	current.ServiceArea = user.ServiceArea
	current.OffersOnDemandProducts = user.OffersOnDemandProducts
	r.users[user.ID] = current
	return nil
}

func (r *testUserRepo) UpdateRole(_ context.Context, id int64, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Role = role
	r.users[id] = user
	return nil
}

func (r *testUserRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *testUserRepo) remove(id int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type testPostRepo struct {
	mu     sync.Mutex
	nextID int64
	posts  map[int64]domain.Post
}

func newTestPostRepo(posts ...domain.Post) *testPostRepo {
	repo := &testPostRepo{posts: make(map[int64]domain.Post)}
	for _, post := range posts {
		if post.ID > repo.nextID {
			repo.nextID = post.ID
		}
		repo.posts[post.ID] = post
	}
	return repo
}

func (r *testPostRepo) List(_ context.Context, filter domain.PostFilter) ([]domain.Post, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []domain.Post
	for _, post := range r.posts {
		if filter.UserID != 0 && post.UserID != filter.UserID {
			continue
		}
		if filter.Category != "" && post.Category != filter.Category {
			continue
		}
		if filter.Status != "" && post.Status != filter.Status {
			continue
		}
		matched = append(matched, post)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	total := len(matched)
	start := int(filter.Offset())
	if start > total {
		start = total
	}
	end := start + filter.Normalize().Size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r *testPostRepo) GetByID(_ context.Context, id int64) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post, ok := r.posts[id]; ok {
		copy := post
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *testPostRepo) Create(_ context.Context, post domain.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	post.ID = r.nextID
	r.posts[post.ID] = post
	return post.ID, nil
}

func (r *testPostRepo) Update(_ context.Context, post domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[post.ID]; !ok {
		return repository.ErrNotFound
	}
	r.posts[post.ID] = post
	return nil
}

func (r *testPostRepo) UpdateStatus(_ context.Context, id int64, status domain.PostStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return repository.ErrNotFound
	}
	post.Status = status
	r.posts[id] = post
	return nil
}

func (r *testPostRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *testPostRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.posts), nil
}

func (r *testPostRepo) CountByStatus(_ context.Context, status domain.PostStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, post := range r.posts {
		if post.Status == status {
			n++
		}
	}
	return n, nil
}

// testLikeRepo keeps likes as a set and mirrors the count onto the post repo,
// the way the SQL select derives it.
type testLikeRepo struct {
	mu    sync.Mutex
	posts *testPostRepo
	likes map[[2]int64]struct{}
}

func newTestLikeRepo(posts *testPostRepo) *testLikeRepo {
	return &testLikeRepo{posts: posts, likes: make(map[[2]int64]struct{})}
}

func (r *testLikeRepo) Like(_ context.Context, postID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{postID, userID}
	if _, ok := r.likes[key]; ok {
		return false, nil
	}
	r.likes[key] = struct{}{}
	r.adjust(postID, 1)
	return true, nil
}

func (r *testLikeRepo) Unlike(_ context.Context, postID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := [2]int64{postID, userID}
	if _, ok := r.likes[key]; !ok {
		return false, nil
	}
	delete(r.likes, key)
	r.adjust(postID, -1)
	return true, nil
}

func (r *testLikeRepo) HasLiked(_ context.Context, postID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.likes[[2]int64{postID, userID}]
	return ok, nil
}

func (r *testLikeRepo) adjust(postID int64, delta int) {
	r.posts.mu.Lock()
	defer r.posts.mu.Unlock()
	post := r.posts.posts[postID]
	post.LikeCount += delta
	r.posts.posts[postID] = post
}

type testCommentRepo struct {
	mu       sync.Mutex
	nextID   int64
	comments map[int64]domain.Comment
}

func newTestCommentRepo(comments ...domain.Comment) *testCommentRepo {
	repo := &testCommentRepo{comments: make(map[int64]domain.Comment)}
	for _, comment := range comments {
		if comment.ID > repo.nextID {
			repo.nextID = comment.ID
		}
		repo.comments[comment.ID] = comment
	}
	return repo
}

func (r *testCommentRepo) ListByPost(_ context.Context, postID int64) ([]domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Comment
	for _, comment := range r.comments {
		if comment.PostID == postID {
			out = append(out, comment)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *testCommentRepo) GetByID(_ context.Context, id int64) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if comment, ok := r.comments[id]; ok {
		copy := comment
		return &copy, nil
	}
	return nil, repository.ErrNotFound
}

func (r *testCommentRepo) Create(_ context.Context, comment domain.Comment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	comment.ID = r.nextID
	r.comments[comment.ID] = comment
	return comment.ID, nil
}

func (r *testCommentRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.comments, id)
	return nil
}

func (r *testCommentRepo) Count(context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.comments), nil
}

// plainHasher stores passwords with a fixed prefix so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "plain$" + password, nil
}

func (plainHasher) Verify(password, encoded string) (bool, error) {
	if !strings.HasPrefix(encoded, "plain$") {
		return false, errors.New("unknown hash format")
	}
	return encoded == "plain$"+password, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.TokenRevokedEvent
	err    error
}

func (p *recordingPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

type recordingObserver struct {
	mu          sync.Mutex
	decisions   []string
	revocations []string
}

func (o *recordingObserver) ObserveAuthDecision(outcome, reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.decisions = append(o.decisions, outcome+":"+reason)
}

func (o *recordingObserver) ObserveRevocation(origin string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.revocations = append(o.revocations, origin)
}

type failingRevocationStore struct{}

func (failingRevocationStore) Revoke(context.Context, string, time.Time) error {
	return errors.New("store unavailable")
}

func (failingRevocationStore) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("store unavailable")
}

func (failingRevocationStore) Sweep(context.Context, time.Time) (int, error) {
	return 0, errors.New("store unavailable")
}

// fakeClock is a settable clock shared by the codec and the session service.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCodec(t *testing.T, clock *fakeClock, ttl time.Duration) *security.TokenCodec {
	t.Helper()
	codec, err := security.NewTokenCodec(security.TokenCodecOptions{
		Secret: testSecret,
		Issuer: "board-api",
		TTL:    ttl,
		Now:    clock.Now,
	})
	if err != nil {
		t.Fatalf("new token codec: %v", err)
	}
	return codec
}

func testAlice() domain.User {
	return domain.User{
		ID:           1,
		Username:     "alice",
		PasswordHash: "plain$secret1",
		FullName:     "Alice Example",
		Email:        "alice@example.com",
		MobileNumber: "9990001111",
		Pincode:      "560001",
		Role:         domain.RoleCustomer,
	}
}
