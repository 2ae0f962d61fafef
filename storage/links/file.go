package linkrepos

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/aulamovil/backend/core"
)

// fileRepository keeps the links in one flat JSON file, keyed by the
// lowercased Google email. The file is the only state this system
// persists; a mutex serializes the read-modify-write cycle across
// concurrent requests.
type fileRepository struct {
	path string
	mu   sync.Mutex
}

var _ core.LinkRepository = (*fileRepository)(nil)

func NewFileRepository(path string) *fileRepository {
	return &fileRepository{path: path}
}

func (repo *fileRepository) GetLink(googleEmail string) (core.Link, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	links, err := repo.load()
	if err != nil {
		return core.Link{}, err
	}
	link, ok := links[key(googleEmail)]
	if !ok {
		return core.Link{}, core.ErrLinkNotFound
	}
	return link, nil
}

func (repo *fileRepository) SaveLink(link core.Link) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	links, err := repo.load()
	if err != nil {
		return err
	}
	links[key(link.GoogleEmail)] = link
	return repo.store(links)
}

func (repo *fileRepository) AllLinks() ([]core.Link, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	links, err := repo.load()
	if err != nil {
		return nil, err
	}
	all := make([]core.Link, 0, len(links))
	for _, link := range links {
		all = append(all, link)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].GoogleEmail < all[j].GoogleEmail })
	return all, nil
}

func (repo *fileRepository) DeleteLink(googleEmail string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	links, err := repo.load()
	if err != nil {
		return err
	}
	if _, ok := links[key(googleEmail)]; !ok {
		return core.ErrLinkNotFound
	}
	delete(links, key(googleEmail))
	return repo.store(links)
}

func (repo *fileRepository) load() (map[string]core.Link, error) {
	data, err := os.ReadFile(repo.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]core.Link), nil
		}
		return nil, errors.Wrapf(err, "reading %s", repo.path)
	}
	links := make(map[string]core.Link)
	if err := json.Unmarshal(data, &links); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", repo.path)
	}
	return links, nil
}

func (repo *fileRepository) store(links map[string]core.Link) error {
	data, err := json.MarshalIndent(links, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding links")
	}
	if err := os.WriteFile(repo.path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", repo.path)
	}
	return nil
}

func key(googleEmail string) string {
	return strings.ToLower(strings.TrimSpace(googleEmail))
}
