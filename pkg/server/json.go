package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/snaplink/pkg/blocks"
	"github.com/matzehuels/snaplink/pkg/errors"
)

// BlockView is the JSON shape of a block.
type BlockView struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	X         float64           `json:"x"`
	Y         float64           `json:"y"`
	Width     float64           `json:"width"`
	Height    float64           `json:"height"`
	Parent    string            `json:"parent,omitempty"`
	Input     string            `json:"input,omitempty"`
	Shadow    bool              `json:"shadow,omitempty"`
	Collapsed bool              `json:"collapsed,omitempty"`
	Disabled  bool              `json:"disabled,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	Children  []string          `json:"children,omitempty"`
}

// CandidateView describes the connection pair a drop would make.
type CandidateView struct {
	Local       string  `json:"local"`
	Target      string  `json:"target"`
	TargetBlock string  `json:"target_block"`
	Distance    float64 `json:"distance"`
}

// DragResult is the response of probe and drag.
type DragResult struct {
	Connected bool           `json:"connected"`
	Candidate *CandidateView `json:"candidate,omitempty"`
	Block     BlockView      `json:"block"`
}

// ErrorBody is the JSON shape of an error response.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func viewBlock(b *blocks.Block) BlockView {
	v := BlockView{
		ID:        b.ID(),
		Type:      b.Type(),
		X:         b.XY().X,
		Y:         b.XY().Y,
		Width:     b.Size().Width,
		Height:    b.Size().Height,
		Shadow:    b.Shadow(),
		Collapsed: b.Collapsed(),
		Disabled:  b.EffectiveDisabled(),
	}
	if p := b.Parent(); p != nil {
		v.Parent = p.ID()
		v.Input = slot(b)
	}
	for _, f := range b.Fields() {
		if f.Name() == "" {
			continue
		}
		if v.Fields == nil {
			v.Fields = make(map[string]string)
		}
		v.Fields[f.Name()] = f.Value()
	}
	for _, c := range b.Children() {
		v.Children = append(v.Children, c.ID())
	}
	return v
}

func viewCandidate(c blocks.Candidate) *CandidateView {
	return &CandidateView{
		Local:       c.Local.String(),
		Target:      c.Target.String(),
		TargetBlock: c.Target.Block().ID(),
		Distance:    c.Distance,
	}
}

// slot names the parent connection b hangs from: an input name or "next".
func slot(b *blocks.Block) string {
	plug := b.Output()
	if plug == nil {
		plug = b.Previous()
	}
	if plug == nil || plug.Target() == nil {
		return ""
	}
	if in := plug.Target().Input(); in != nil {
		return in.Name()
	}
	return "next"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "err", err)
	}
	code := string(errors.GetCode(err))
	if code == "" {
		code = string(errors.ErrCodeInternal)
	}
	writeJSON(w, status, ErrorBody{Code: code, Message: errors.UserMessage(err)})
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeValidation:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidName, errors.ErrCodeUnknownBlockType, errors.ErrCodeUnsupported:
		return http.StatusBadRequest
	case errors.ErrCodeNotEditable, errors.ErrCodeInvalidState:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into v. An empty body leaves v unchanged.
func decode(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	return nil
}
