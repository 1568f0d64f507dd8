package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"ledger/internal/core"
	"ledger/internal/ledger"
)

// 1 MiB is plenty for any realistic interchange file or JSON body.
const maxBodyBytes = 1 << 20

type recordDTO struct {
	ID           string `json:"id"`
	Date         string `json:"date"`
	Amount       string `json:"amount"`
	AmountCents  int64  `json:"amount_cents"`
	Category     string `json:"category"`
	CategoryName string `json:"category_name"`
	Note         string `json:"note,omitempty"`
	Method       string `json:"method,omitempty"`
}

type categoryDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type categoryAmountDTO struct {
	Category    categoryDTO `json:"category"`
	Amount      string      `json:"amount"`
	AmountCents int64       `json:"amount_cents"`
}

type viewDTO struct {
	Records    []recordDTO         `json:"records"`
	Total      string              `json:"total"`
	TotalCents int64               `json:"total_cents"`
	ByCategory []categoryAmountDTO `json:"by_category"`
}

func (s *Server) recordToDTO(r core.Record) recordDTO {
	return recordDTO{
		ID:           r.ID,
		Date:         r.Date.String(),
		Amount:       r.Amount.Decimal(),
		AmountCents:  r.Amount.Cents,
		Category:     r.Category,
		CategoryName: s.session.DisplayName(r.Category),
		Note:         r.Note,
		Method:       r.Method,
	}
}

func categoryToDTO(c core.Category) categoryDTO {
	return categoryDTO{ID: c.ID, Name: c.Name, Color: c.Color}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

// writeDomainError maps the error taxonomy onto HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		validationErr *core.ValidationError
		notFoundErr   *core.NotFoundError
		duplicateErr  *core.DuplicateError
		importErr     *core.ImportError
	)
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": validationErr.Error(),
			"field": validationErr.Field,
		})
	case errors.As(err, &notFoundErr):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": notFoundErr.Error()})
	case errors.As(err, &duplicateErr):
		writeJSON(w, http.StatusConflict, map[string]string{"error": duplicateErr.Error()})
	case errors.As(err, &importErr):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": importErr.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

type recordPayload struct {
	Date     *string `json:"date"`
	Amount   *string `json:"amount"`
	Category *string `json:"category"`
	Note     *string `json:"note"`
	Method   *string `json:"method"`
}

// toInput builds a RecordInput for creation. Missing date or amount
// stay zero-valued and are rejected by domain validation.
func (p recordPayload) toInput() (core.RecordInput, error) {
	var in core.RecordInput
	if p.Date != nil && *p.Date != "" {
		d, err := core.ParseDate(*p.Date)
		if err != nil {
			return in, &core.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
		}
		in.Date = d
	}
	if p.Amount != nil && *p.Amount != "" {
		cents, err := core.ParseDecimalToCents(*p.Amount)
		if err != nil {
			return in, err
		}
		in.Amount = core.Money{Cents: cents}
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.Note != nil {
		in.Note = *p.Note
	}
	if p.Method != nil {
		in.Method = *p.Method
	}
	return in, nil
}

// toPatch builds a RecordPatch for update; only fields present in the
// payload are touched.
func (p recordPayload) toPatch() (core.RecordPatch, error) {
	var patch core.RecordPatch
	if p.Date != nil {
		d, err := core.ParseDate(*p.Date)
		if err != nil {
			return patch, &core.ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
		}
		patch.Date = &d
	}
	if p.Amount != nil {
		cents, err := core.ParseDecimalToCents(*p.Amount)
		if err != nil {
			return patch, err
		}
		patch.Amount = &core.Money{Cents: cents}
	}
	patch.Category = p.Category
	patch.Note = p.Note
	patch.Method = p.Method
	return patch, nil
}

func (s *Server) handleListRecords(w http.ResponseWriter, _ *http.Request) {
	records := s.session.Records()
	dtos := make([]recordDTO, 0, len(records))
	for _, r := range records {
		dtos = append(dtos, s.recordToDTO(r))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	var payload recordPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	in, err := payload.toInput()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	rec, err := s.session.Add(in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.viewCache.Purge()
	writeJSON(w, http.StatusCreated, s.recordToDTO(rec))
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	var payload recordPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	patch, err := payload.toPatch()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	rec, err := s.session.Update(r.PathValue("id"), patch)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.viewCache.Purge()
	writeJSON(w, http.StatusOK, s.recordToDTO(rec))
}

func (s *Server) handleRemoveRecord(w http.ResponseWriter, r *http.Request) {
	s.session.Remove(r.PathValue("id"))
	s.viewCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearRecords(w http.ResponseWriter, _ *http.Request) {
	s.session.Clear()
	s.viewCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, _ *http.Request) {
	categories := s.session.Categories()
	dtos := make([]categoryDTO, 0, len(categories))
	for _, c := range categories {
		dtos = append(dtos, categoryToDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

type categoryPayload struct {
	Name  *string `json:"name"`
	Color *string `json:"color"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	var name, color string
	if payload.Name != nil {
		name = *payload.Name
	}
	if payload.Color != nil {
		color = *payload.Color
	}
	cat, err := s.session.AddCategory(name, color)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.viewCache.Purge()
	writeJSON(w, http.StatusCreated, categoryToDTO(cat))
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var payload categoryPayload
	if !decodeJSON(w, r, &payload) {
		return
	}
	if payload.Name == nil && payload.Color == nil {
		writeDomainError(w, &core.ValidationError{Field: "name", Reason: "nothing to update"})
		return
	}
	id := r.PathValue("id")
	if payload.Name != nil {
		if err := s.session.RenameCategory(id, *payload.Name); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	if payload.Color != nil {
		if err := s.session.RecolorCategory(id, *payload.Color); err != nil {
			writeDomainError(w, err)
			return
		}
	}
	s.viewCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveCategory(w http.ResponseWriter, r *http.Request) {
	s.session.RemoveCategory(r.PathValue("id"))
	s.viewCache.Purge()
	w.WriteHeader(http.StatusNoContent)
}

// parseFilter reads the view parameters from the query string. Invalid
// dates are rejected; an unknown sort falls back to the default order.
func parseFilter(r *http.Request) (ledger.Filter, error) {
	q := r.URL.Query()
	var f ledger.Filter

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, &core.ValidationError{Field: "from", Reason: "must be YYYY-MM-DD"}
		}
		f.From = d
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, &core.ValidationError{Field: "to", Reason: "must be YYYY-MM-DD"}
		}
		f.To = d
	}
	f.Category = strings.TrimSpace(q.Get("category"))
	f.Query = q.Get("q")
	f.Sort = ledger.SortOrder(strings.TrimSpace(q.Get("sort")))
	return f, nil
}

func filterCacheKey(f ledger.Filter) string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", f.From, f.To, f.Category, f.Query, f.Sort)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	key := filterCacheKey(f)
	view, ok := s.viewCache.Get(key)
	if !ok {
		view = s.session.DeriveView(f)
		s.viewCache.Set(key, view)
	}

	dto := viewDTO{
		Records:    make([]recordDTO, 0, len(view.Records)),
		Total:      view.Total.Decimal(),
		TotalCents: view.Total.Cents,
		ByCategory: make([]categoryAmountDTO, 0, len(view.ByCategory)),
	}
	for _, rec := range view.Records {
		dto.Records = append(dto.Records, s.recordToDTO(rec))
	}
	for _, ca := range view.ByCategory {
		dto.ByCategory = append(dto.ByCategory, categoryAmountDTO{
			Category:    categoryToDTO(ca.Category),
			Amount:      ca.Amount.Decimal(),
			AmountCents: ca.Amount.Cents,
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
	_, _ = w.Write(s.session.ExportCSV())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed reading request body"})
		return
	}
	count, err := s.session.ImportCSV(data)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.viewCache.Purge()
	writeJSON(w, http.StatusOK, map[string]int{"imported": count})
}
