package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/alex-user-go/hotelsearch/internal/catalog"
	"github.com/alex-user-go/hotelsearch/internal/search"
)

// SessionDocument is the JSON view of one search session.
type SessionDocument struct {
	ID          string        `json:"id"`
	Query       QueryDocument `json:"query"`
	Submittable bool          `json:"submittable"`
	Cities      []string      `json:"cities"`
	View        ViewDocument  `json:"view"`
}

// ViewDocument is the JSON form of search.View.
type ViewDocument struct {
	Kind    search.ViewKind `json:"kind"`
	Message string          `json:"message,omitempty"`
	Items   []HotelDocument `json:"items,omitempty"`
}

// HotelDocument is a display-ready hotel. Rating is 0 when the catalog has none.
type HotelDocument struct {
	ID            int64             `json:"id"`
	Name          string            `json:"name"`
	City          string            `json:"city"`
	State         string            `json:"state"`
	Rating        float64           `json:"rating"`
	Amenities     catalog.Amenities `json:"amenities"`
	AmenityLabels []string          `json:"amenityLabels"`
}

func newHotelDocument(h catalog.HotelSummary) HotelDocument {
	return HotelDocument{
		ID:            h.ID,
		Name:          h.Name,
		City:          h.City,
		State:         h.State,
		Rating:        h.DisplayRating(),
		Amenities:     h.Amenities,
		AmenityLabels: h.Amenities.Labels(),
	}
}

func newHotelDocuments(hotels []catalog.HotelSummary) []HotelDocument {
	docs := make([]HotelDocument, 0, len(hotels))
	for _, h := range hotels {
		docs = append(docs, newHotelDocument(h))
	}
	return docs
}

func newViewDocument(v search.View) ViewDocument {
	doc := ViewDocument{Kind: v.Kind, Message: v.Message}
	if len(v.Items) > 0 {
		doc.Items = newHotelDocuments(v.Items)
	}
	return doc
}

// QueryDocument is the JSON view of the active query. Only the fields of the
// active mode are present.
type QueryDocument struct {
	Mode     search.Mode `json:"mode"`
	Term     *string     `json:"term,omitempty"`
	City     *string     `json:"city,omitempty"`
	CheckIn  *string     `json:"checkIn,omitempty"`
	CheckOut *string     `json:"checkOut,omitempty"`
}

func newSessionDocument(id string, snap search.Snapshot) SessionDocument {
	return SessionDocument{
		ID:          id,
		Query:       newQueryDocument(snap.Query),
		Submittable: snap.Submittable,
		Cities:      snap.Cities,
		View:        newViewDocument(search.Project(snap.Status)),
	}
}

func newQueryDocument(q search.Query) QueryDocument {
	switch q := q.(type) {
	case search.Availability:
		checkIn, checkOut := q.CheckIn.String(), q.CheckOut.String()
		return QueryDocument{
			Mode:     search.ModeAvailability,
			City:     &q.City,
			CheckIn:  &checkIn,
			CheckOut: &checkOut,
		}
	case search.FreeText:
		return QueryDocument{Mode: search.ModeFreeText, Term: &q.Term}
	default:
		return QueryDocument{}
	}
}

// CreateSessionRequest is the optional body of POST /sessions.
type CreateSessionRequest struct {
	Term string `json:"term"`
}

// UpdateQueryRequest is the body of PATCH /sessions/{id}/query.
// Absent fields are left unchanged.
type UpdateQueryRequest struct {
	Mode     *string `json:"mode"`
	Term     *string `json:"term"`
	City     *string `json:"city"`
	CheckIn  *string `json:"checkIn"`
	CheckOut *string `json:"checkOut"`
}

// queryEdit is a parsed UpdateQueryRequest.
type queryEdit struct {
	mode     *search.Mode
	term     *string
	city     *string
	checkIn  *catalog.Date
	checkOut *catalog.Date
}

// errBadRequest marks request bodies that cannot be parsed.
var errBadRequest = errors.New("bad request")

func (req UpdateQueryRequest) parse() (queryEdit, error) {
	edit := queryEdit{term: req.Term, city: req.City}

	if req.Mode != nil {
		mode, err := search.ParseMode(*req.Mode)
		if err != nil {
			return queryEdit{}, fmt.Errorf("%w: %w", errBadRequest, err)
		}
		edit.mode = &mode
	}

	var err error
	if edit.checkIn, err = parseDateField("checkIn", req.CheckIn); err != nil {
		return queryEdit{}, err
	}
	if edit.checkOut, err = parseDateField("checkOut", req.CheckOut); err != nil {
		return queryEdit{}, err
	}
	return edit, nil
}

// apply switches mode and then sets each present field.
func (e queryEdit) apply(m *search.QueryModel) error {
	if e.mode != nil {
		switch *e.mode {
		case search.ModeFreeText:
			m.SwitchToFreeText()
		case search.ModeAvailability:
			m.SwitchToAvailability()
		}
	}
	if e.term != nil {
		if err := m.SetTerm(*e.term); err != nil {
			return err
		}
	}
	if e.city != nil {
		if err := m.SetCity(*e.city); err != nil {
			return err
		}
	}
	if e.checkIn != nil {
		if err := m.SetCheckIn(*e.checkIn); err != nil {
			return err
		}
	}
	if e.checkOut != nil {
		if err := m.SetCheckOut(*e.checkOut); err != nil {
			return err
		}
	}
	return nil
}

// targetMode is the mode the edit leaves the query in.
func (e queryEdit) targetMode(current search.Mode) search.Mode {
	if e.mode != nil {
		return *e.mode
	}
	return current
}

// conflict reports a field that does not belong to mode.
func (e queryEdit) conflict(mode search.Mode) error {
	switch {
	case mode == search.ModeFreeText && e.city != nil:
		return fmt.Errorf("%w: city", search.ErrWrongMode)
	case mode == search.ModeFreeText && e.checkIn != nil:
		return fmt.Errorf("%w: checkIn", search.ErrWrongMode)
	case mode == search.ModeFreeText && e.checkOut != nil:
		return fmt.Errorf("%w: checkOut", search.ErrWrongMode)
	case mode == search.ModeAvailability && e.term != nil:
		return fmt.Errorf("%w: term", search.ErrWrongMode)
	}
	return nil
}

func parseDateField(name string, value *string) (*catalog.Date, error) {
	if value == nil {
		return nil, nil
	}
	var d catalog.Date
	if err := d.UnmarshalText([]byte(*value)); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", errBadRequest, name, err)
	}
	return &d, nil
}

// decodeBody decodes an optional JSON body into v. An empty body leaves v unchanged.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body: %w", errBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	_ = writeJSON(w, status, map[string]string{"error": message})
}
