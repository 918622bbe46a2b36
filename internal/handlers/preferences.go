package handlers

import (
	"context"
	"net/http"

	"github.com/Meeting-BaaS/emails/internal"
	"github.com/Meeting-BaaS/emails/internal/catalog"
	"github.com/Meeting-BaaS/emails/internal/preferences"
)

// PreferenceStore reads and writes the preferences of an account.
type PreferenceStore interface {
	List(ctx context.Context, accountID int64) ([]preferences.Preference, error)
	Upsert(ctx context.Context, accountID int64, id catalog.EmailID, f catalog.Frequency) error
	UpsertMany(ctx context.Context, accountID int64, ids []catalog.EmailID, f catalog.Frequency) (updated, created int, err error)
}

// Preferences serves /preferences for the signed-in user.
type Preferences struct {
	store PreferenceStore
	guard internal.Middleware
}

func NewPreferences(store PreferenceStore, guard internal.Middleware) *Preferences {
	return &Preferences{store: store, guard: guard}
}

func (h *Preferences) Routes(r internal.Router) {
	r.Route("/preferences", func(r internal.Router) {
		r.Use(h.guard)
		r.GET("/", h.list)
		r.POST("/service", h.updateDomain)
		r.POST("/{emailId}", h.update)
	})
}

type preferencesResponse struct {
	Envelope
	Preferences map[catalog.EmailID]catalog.Frequency `json:"preferences"`
}

func (h *Preferences) list(c internal.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	rows, err := h.store.List(c, u.ID)
	if err != nil {
		return internal.ErrInternal("Error getting preferences", internal.WithError(err))
	}
	return c.JSON(http.StatusOK, preferencesResponse{
		Envelope:    Envelope{Success: true},
		Preferences: preferences.AsMap(preferences.Merge(catalog.Types(), rows)),
	})
}

type frequencyRequest struct {
	Frequency catalog.Frequency `json:"frequency" validate:"required,oneof=Daily Weekly Monthly Never"`
}

func (h *Preferences) update(c internal.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	id := internal.Param[catalog.EmailID](c, "emailId")
	if _, found := catalog.Lookup(id); !found {
		return internal.ErrBadRequest("Invalid email type", internal.WithErrors(internal.ValidationErrors{
			{Field: "emailId", Message: "must be a known email type"},
		}))
	}
	var req frequencyRequest
	if verrs, err := c.BindJSON(&req); err != nil {
		return err
	} else if verrs != nil {
		return invalid("Invalid request body", verrs)
	}
	if err := h.store.Upsert(c, u.ID, id, req.Frequency); err != nil {
		return internal.ErrInternal("Error updating preference", internal.WithError(err))
	}
	return ok(c, http.StatusCreated, "Preference updated successfully")
}

type domainRequest struct {
	Domain    catalog.Domain    `json:"domain" validate:"required,oneof=Reports Announcements Developers Account"`
	Frequency catalog.Frequency `json:"frequency" validate:"required,oneof=Daily Weekly Monthly Never"`
}

type domainResponse struct {
	Envelope
	Updated int `json:"updated"`
	Created int `json:"created"`
}

// updateDomain sets every type of a domain at once. Required types keep
// their frequency when the domain is turned off.
func (h *Preferences) updateDomain(c internal.Context) error {
	u, err := currentUser(c)
	if err != nil {
		return err
	}
	var req domainRequest
	if verrs, err := c.BindJSON(&req); err != nil {
		return err
	} else if verrs != nil {
		return invalid("Invalid request body", verrs)
	}
	ids := preferences.DomainTargets(req.Domain, req.Frequency)
	updated, created, err := h.store.UpsertMany(c, u.ID, ids, req.Frequency)
	if err != nil {
		return internal.ErrInternal("Error updating domain preferences", internal.WithError(err))
	}
	return c.JSON(http.StatusCreated, domainResponse{
		Envelope: Envelope{Success: true, Message: "Domain preferences updated successfully"},
		Updated:  updated,
		Created:  created,
	})
}
