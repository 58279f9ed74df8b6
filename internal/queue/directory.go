package queue

import (
	"sort"
	"sync"
	"time"

	"campus-queue-backend/internal/models"
)

// Directory holds the current Service and Window configuration per
// department. Mutations are rejected with ConfigLocked while the
// department's queueing is operationally enabled, because changing the
// service-to-window assignment mid-operation would break the ordering
// guarantees for entries already in flight.
type Directory struct {
	mu       sync.RWMutex
	services map[string]*models.Service
	windows  map[string]*models.Window
	enabled  map[models.Department]bool
}

func NewDirectory() *Directory {
	return &Directory{
		services: make(map[string]*models.Service),
		windows:  make(map[string]*models.Window),
		enabled:  make(map[models.Department]bool),
	}
}

/*
|--------------------------------------------------------------------------
| Operational lock
|--------------------------------------------------------------------------
*/

func (d *Directory) SetEnabled(department models.Department, enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled[department] = enabled
}

func (d *Directory) Enabled(department models.Department) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled[department]
}

/*
|--------------------------------------------------------------------------
| Services
|--------------------------------------------------------------------------
*/

func (d *Directory) CreateService(svc models.Service) *Rejection {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rej := d.lockedCheck(svc.Department); rej != nil {
		return rej
	}
	if _, exists := d.services[svc.ID]; exists {
		return reject(ReasonInvalidAssignment, "service %s already exists", svc.ID)
	}

	now := time.Now()
	svc.CreatedAt = now
	svc.UpdatedAt = now
	d.services[svc.ID] = &svc
	return nil
}

// UpdateService applies partial updates. Services are soft-disabled,
// never removed, so entries and windows referencing them stay valid.
func (d *Directory) UpdateService(id string, req models.UpdateServiceRequest) *Rejection {
	d.mu.Lock()
	defer d.mu.Unlock()

	svc, ok := d.services[id]
	if !ok {
		return reject(ReasonInvalidAssignment, "service %s not found", id)
	}
	if rej := d.lockedCheck(svc.Department); rej != nil {
		return rej
	}

	if req.Name != nil {
		svc.Name = *req.Name
	}
	if req.IsActive != nil {
		svc.IsActive = *req.IsActive
	}
	svc.UpdatedAt = time.Now()
	return nil
}

// ServiceFor returns a copy, or nil when unknown.
func (d *Directory) ServiceFor(id string) *models.Service {
	d.mu.RLock()
	defer d.mu.RUnlock()
	svc, ok := d.services[id]
	if !ok {
		return nil
	}
	cp := *svc
	return &cp
}

// ActiveService reports whether the service exists in the department
// and is open for kiosk issuance.
func (d *Directory) ActiveService(department models.Department, id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	svc, ok := d.services[id]
	return ok && svc.Department == department && svc.IsActive
}

func (d *Directory) ServicesFor(department models.Department) []models.Service {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []models.Service
	for _, svc := range d.services {
		if svc.Department == department {
			out = append(out, *svc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

/*
|--------------------------------------------------------------------------
| Windows
|--------------------------------------------------------------------------
*/

func (d *Directory) CreateWindow(w models.Window) *Rejection {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rej := d.lockedCheck(w.Department); rej != nil {
		return rej
	}
	if _, exists := d.windows[w.ID]; exists {
		return reject(ReasonInvalidAssignment, "window %s already exists", w.ID)
	}
	if rej := d.assignmentCheck(&w); rej != nil {
		return rej
	}

	now := time.Now()
	w.CreatedAt = now
	w.UpdatedAt = now
	d.windows[w.ID] = &w
	return nil
}

func (d *Directory) UpdateWindow(id string, req models.UpdateWindowRequest) *Rejection {
	d.mu.Lock()
	defer d.mu.Unlock()

	w, ok := d.windows[id]
	if !ok {
		return reject(ReasonInvalidAssignment, "window %s not found", id)
	}
	if rej := d.lockedCheck(w.Department); rej != nil {
		return rej
	}

	updated := *w
	if req.Name != nil {
		updated.Name = *req.Name
	}
	if req.ServiceIDs != nil {
		updated.ServiceIDs = req.ServiceIDs
	}
	if req.AssignedAdmin != nil {
		updated.AssignedAdmin = *req.AssignedAdmin
	}
	if req.IsOpen != nil {
		updated.IsOpen = *req.IsOpen
	}
	if req.IsPriority != nil {
		updated.IsPriority = *req.IsPriority
	}
	if rej := d.assignmentCheck(&updated); rej != nil {
		return rej
	}

	updated.UpdatedAt = time.Now()
	*w = updated
	return nil
}

// assignmentCheck enforces the exclusive-assignment rule at mutation
// time: a non-priority service may be assigned to at most one open
// window, so two windows never compete for the same sub-queue. Priority
// windows are exempt and implicitly overlap all services. Caller holds
// the write lock.
func (d *Directory) assignmentCheck(w *models.Window) *Rejection {
	if w.IsPriority || !w.IsOpen {
		return nil
	}
	for _, serviceID := range w.ServiceIDs {
		svc, ok := d.services[serviceID]
		if !ok || svc.Department != w.Department {
			return reject(ReasonInvalidAssignment, "service %s not known to %s", serviceID, w.Department)
		}
		for _, other := range d.windows {
			if other.ID == w.ID || other.Department != w.Department || !other.IsOpen || other.IsPriority {
				continue
			}
			for _, otherService := range other.ServiceIDs {
				if otherService == serviceID {
					return reject(ReasonInvalidAssignment,
						"service %s already assigned to open window %s", serviceID, other.ID)
				}
			}
		}
	}
	return nil
}

func (d *Directory) lockedCheck(department models.Department) *Rejection {
	if d.enabled[department] {
		return reject(ReasonConfigLocked, "queueing is enabled for %s", department)
	}
	return nil
}

// WindowFor returns a copy, or nil when unknown.
func (d *Directory) WindowFor(id string) *models.Window {
	d.mu.RLock()
	defer d.mu.RUnlock()
	w, ok := d.windows[id]
	if !ok {
		return nil
	}
	cp := *w
	cp.ServiceIDs = append([]string(nil), w.ServiceIDs...)
	return &cp
}

func (d *Directory) WindowsFor(department models.Department) []models.Window {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []models.Window
	for _, w := range d.windows {
		if w.Department == department {
			cp := *w
			cp.ServiceIDs = append([]string(nil), w.ServiceIDs...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Serves reports whether the window currently pulls entries for the
// service. Open priority windows serve everything in their department.
func (d *Directory) Serves(windowID string, department models.Department, serviceID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	w, ok := d.windows[windowID]
	if !ok || w.Department != department || !w.IsOpen {
		return false
	}
	if w.IsPriority {
		return true
	}
	for _, id := range w.ServiceIDs {
		if id == serviceID {
			return true
		}
	}
	return false
}
