package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"luxepos/internal/domain"
	"luxepos/internal/invoice"
)

func (a *API) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	filter, err := invoice.ParseListFilter(r.URL.Query())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	invoices, err := a.service.ListInvoices(r.Context(), filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": invoices})
}

func (a *API) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	inv, err := a.service.GetInvoice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func (a *API) handlePicker(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	picked, err := a.service.PickProducts(r.Context(), filter)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, picked)
}

func (a *API) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	var req domain.DraftCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	draft, err := a.service.CreateDraft(r.Context(), req.Type)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

func (a *API) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	draft, err := a.service.GetDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (a *API) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	var req domain.DraftDetailsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	draft, err := a.service.UpdateDraftDetails(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (a *API) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DiscardDraft(r.Context(), chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddDraftItem takes a product id for sales drafts. Pawn drafts get
// a blank line and may send no body at all.
func (a *API) handleAddDraftItem(w http.ResponseWriter, r *http.Request) {
	var req domain.DraftItemAddRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	draft, err := a.service.AddDraftItem(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (a *API) handleUpdateDraftItem(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r, "index")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req domain.DraftItemUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	draft, err := a.service.UpdateDraftItem(r.Context(), chi.URLParam(r, "id"), index, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (a *API) handleRemoveDraftItem(w http.ResponseWriter, r *http.Request) {
	index, err := pathIndex(r, "index")
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	draft, err := a.service.RemoveDraftItem(r.Context(), chi.URLParam(r, "id"), index)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (a *API) handleSubmitDraft(w http.ResponseWriter, r *http.Request) {
	inv, err := a.service.SubmitDraft(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}
