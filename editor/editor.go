package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"klinika/models"
	"klinika/slugs"
)

// ErrDeclined is returned when the operator does not confirm a delete.
var ErrDeclined = errors.New("delete not confirmed")

// Repository is the catalog API the editor works against. *Client implements it.
type Repository interface {
	ListServices(ctx context.Context) ([]models.Service, error)
	SaveService(ctx context.Context, rec *models.Service) (*models.Service, error)
	DeleteService(ctx context.Context, id uint) error
	ListSubServices(ctx context.Context, serviceID uint) ([]models.SubService, error)
	SaveSubService(ctx context.Context, rec *models.SubService) (*models.SubService, error)
	DeleteSubService(ctx context.Context, id uint) error
	ListSubSubServices(ctx context.Context, subServiceID uint) ([]models.SubSubService, error)
	SaveSubSubService(ctx context.Context, rec *models.SubSubService) (*models.SubSubService, error)
	DeleteSubSubService(ctx context.Context, id uint) error
}

type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a toast shown to the operator after a mutation.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}

// State is what the editor currently shows. Lists below the selected level are empty
// until a parent is selected.
type State struct {
	ServiceID      uint
	SubServiceID   uint
	Services       []models.Service
	SubServices    []models.SubService
	SubSubServices []models.SubSubService
	Loading        bool
	Err            error
}

// CatalogEditor drives the three-level service tree. Every mutation reports a notice and
// reloads the lists; a new load cancels the one still in flight.
type CatalogEditor struct {
	repo    Repository
	notify  func(Notice)
	confirm func(prompt string) bool

	mu     sync.Mutex
	state  State
	gen    uint64
	cancel context.CancelFunc
}

// NewCatalogEditor builds an editor. A nil confirm approves every delete; a nil notify drops notices.
func NewCatalogEditor(repo Repository, notify func(Notice), confirm func(prompt string) bool) *CatalogEditor {
	if notify == nil {
		notify = func(Notice) {}
	}
	if confirm == nil {
		confirm = func(string) bool { return true }
	}
	return &CatalogEditor{repo: repo, notify: notify, confirm: confirm}
}

// State returns a snapshot of the current state.
func (e *CatalogEditor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	s.Services = append([]models.Service(nil), s.Services...)
	s.SubServices = append([]models.SubService(nil), s.SubServices...)
	s.SubSubServices = append([]models.SubSubService(nil), s.SubSubServices...)
	return s
}

func (e *CatalogEditor) SelectService(ctx context.Context, id uint) error {
	e.mu.Lock()
	e.state.ServiceID = id
	e.state.SubServiceID = 0
	e.mu.Unlock()
	return e.Refresh(ctx)
}

func (e *CatalogEditor) SelectSubService(ctx context.Context, id uint) error {
	e.mu.Lock()
	e.state.SubServiceID = id
	e.mu.Unlock()
	return e.Refresh(ctx)
}

// Refresh reloads the lists for the current selection. When a newer Refresh starts
// before this one finishes, this one is cancelled and its results are discarded.
func (e *CatalogEditor) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
	}
	e.gen++
	gen := e.gen
	e.cancel = cancel
	serviceID, subServiceID := e.state.ServiceID, e.state.SubServiceID
	e.state.Loading = true
	e.mu.Unlock()

	next, err := e.load(ctx, serviceID, subServiceID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.gen {
		return context.Canceled
	}
	e.cancel = nil
	e.state.Loading = false
	e.state.Err = err
	if err != nil {
		return err
	}
	e.state.Services = next.Services
	e.state.SubServices = next.SubServices
	e.state.SubSubServices = next.SubSubServices
	return nil
}

func (e *CatalogEditor) load(ctx context.Context, serviceID, subServiceID uint) (State, error) {
	var s State
	var err error

	if s.Services, err = e.repo.ListServices(ctx); err != nil {
		return s, fmt.Errorf("load services: %w", err)
	}
	if serviceID == 0 {
		return s, nil
	}
	if s.SubServices, err = e.repo.ListSubServices(ctx, serviceID); err != nil {
		return s, fmt.Errorf("load sub-services: %w", err)
	}
	if subServiceID == 0 {
		return s, nil
	}
	if s.SubSubServices, err = e.repo.ListSubSubServices(ctx, subServiceID); err != nil {
		return s, fmt.Errorf("load sub-sub-services: %w", err)
	}
	return s, nil
}

// mutate runs op, reports the outcome and reloads on success.
func (e *CatalogEditor) mutate(ctx context.Context, done string, op func() error) error {
	if err := op(); err != nil {
		e.notify(Notice{Kind: NoticeError, Message: err.Error(), Err: err})
		return err
	}
	e.notify(Notice{Kind: NoticeSuccess, Message: done})
	if err := e.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
		e.notify(Notice{Kind: NoticeError, Message: err.Error(), Err: err})
		return err
	}
	return nil
}

func (e *CatalogEditor) remove(ctx context.Context, prompt, done string, op func() error) error {
	if !e.confirm(prompt) {
		return ErrDeclined
	}
	return e.mutate(ctx, done, op)
}

func (e *CatalogEditor) SaveService(ctx context.Context, rec *models.Service) (*models.Service, error) {
	var saved *models.Service
	err := e.mutate(ctx, "Service saved", func() (err error) {
		saved, err = e.repo.SaveService(ctx, rec)
		return err
	})
	return saved, err
}

// DeleteService removes a service with all of its sub-services after confirmation.
func (e *CatalogEditor) DeleteService(ctx context.Context, id uint) error {
	return e.remove(ctx, "Delete this service together with all its sub-services?", "Service deleted", func() error {
		if err := e.repo.DeleteService(ctx, id); err != nil {
			return err
		}
		e.mu.Lock()
		if e.state.ServiceID == id {
			e.state.ServiceID, e.state.SubServiceID = 0, 0
			e.state.SubServices, e.state.SubSubServices = nil, nil
		}
		e.mu.Unlock()
		return nil
	})
}

// SaveSubService stores rec under the selected service when it has no parent set.
func (e *CatalogEditor) SaveSubService(ctx context.Context, rec *models.SubService) (*models.SubService, error) {
	if rec.ServiceID == 0 {
		rec.ServiceID = e.State().ServiceID
	}
	var saved *models.SubService
	err := e.mutate(ctx, "Sub-service saved", func() (err error) {
		saved, err = e.repo.SaveSubService(ctx, rec)
		return err
	})
	return saved, err
}

func (e *CatalogEditor) DeleteSubService(ctx context.Context, id uint) error {
	return e.remove(ctx, "Delete this sub-service together with its FAQ and sub-sub-services?", "Sub-service deleted", func() error {
		if err := e.repo.DeleteSubService(ctx, id); err != nil {
			return err
		}
		e.mu.Lock()
		if e.state.SubServiceID == id {
			e.state.SubServiceID = 0
			e.state.SubSubServices = nil
		}
		e.mu.Unlock()
		return nil
	})
}

func (e *CatalogEditor) SaveSubSubService(ctx context.Context, rec *models.SubSubService) (*models.SubSubService, error) {
	if rec.SubServiceID == 0 {
		rec.SubServiceID = e.State().SubServiceID
	}
	var saved *models.SubSubService
	err := e.mutate(ctx, "Sub-sub-service saved", func() (err error) {
		saved, err = e.repo.SaveSubSubService(ctx, rec)
		return err
	})
	return saved, err
}

func (e *CatalogEditor) DeleteSubSubService(ctx context.Context, id uint) error {
	return e.remove(ctx, "Delete this sub-sub-service and its FAQ?", "Sub-sub-service deleted", func() error {
		return e.repo.DeleteSubSubService(ctx, id)
	})
}

// Form holds the title and slug being edited for one catalog entry.
type Form struct {
	title string
	slug  *slugs.Field
}

func NewForm(title, slug string) *Form {
	return &Form{title: title, slug: slugs.NewField(slug)}
}

func (f *Form) SetTitle(title string) {
	f.title = title
	f.slug.SetTitle(title)
}

func (f *Form) EditSlug(slug string) {
	f.slug.Edit(slug)
}

func (f *Form) Title() string { return f.title }
func (f *Form) Slug() string  { return f.slug.Value() }
