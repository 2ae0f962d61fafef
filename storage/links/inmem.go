package linkrepos

import (
	"sort"
	"strings"
	"sync"

	"github.com/aulamovil/backend/core"
)

// inMemRepository is a map-backed LinkRepository for tests.
type inMemRepository struct {
	mu    sync.Mutex
	links map[string]core.Link
}

var _ core.LinkRepository = (*inMemRepository)(nil)

func NewInMemRepository() *inMemRepository {
	return &inMemRepository{links: make(map[string]core.Link)}
}

func (repo *inMemRepository) GetLink(googleEmail string) (core.Link, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	link, ok := repo.links[strings.ToLower(googleEmail)]
	if !ok {
		return core.Link{}, core.ErrLinkNotFound
	}
	return link, nil
}

func (repo *inMemRepository) SaveLink(link core.Link) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.links[strings.ToLower(link.GoogleEmail)] = link
	return nil
}

func (repo *inMemRepository) AllLinks() ([]core.Link, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	all := make([]core.Link, 0, len(repo.links))
	for _, link := range repo.links {
		all = append(all, link)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].GoogleEmail < all[j].GoogleEmail })
	return all, nil
}

func (repo *inMemRepository) DeleteLink(googleEmail string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.links[strings.ToLower(googleEmail)]; !ok {
		return core.ErrLinkNotFound
	}
	delete(repo.links, strings.ToLower(googleEmail))
	return nil
}
