package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/snaplink/pkg/blocks"
	"github.com/matzehuels/snaplink/pkg/errors"
	"github.com/matzehuels/snaplink/pkg/pipeline"
)

type spawnRequest struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

type patchRequest struct {
	Collapsed *bool `json:"collapsed"`
	Disabled  *bool `json:"disabled"`
}

type dragRequest struct {
	DX   float64 `json:"dx"`
	DY   float64 `json:"dy"`
	Heal bool    `json:"heal"`
}

type unplugRequest struct {
	Heal bool `json:"heal"`
}

type fieldRequest struct {
	Value *string `json:"value"`
}

var contentTypes = map[string]string{
	pipeline.FormatDOT: "text/vnd.graphviz",
	pipeline.FormatSVG: "image/svg+xml",
	pipeline.FormatPNG: "image/png",
}

func (s *Server) block(r *http.Request) (*blocks.Block, error) {
	id := chi.URLParam(r, "id")
	b, ok := s.env.Workspace.Block(id)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "no block %q", id)
	}
	return b, nil
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.env.Counters.Snapshot())
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	all := s.env.Workspace.Blocks()
	out := make([]BlockView, 0, len(all))
	for _, b := range all {
		out = append(out, viewBlock(b))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSpawn(w http.ResponseWriter, r *http.Request) {
	var req spawnRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Type == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "spawn needs a type"))
		return
	}
	b, err := s.env.Spawn(req.Type, req.X, req.Y)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Location", "/blocks/"+b.ID())
	writeJSON(w, http.StatusCreated, viewBlock(b))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	b, err := s.block(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewBlock(b))
}

func (s *Server) handlePatch(w http.ResponseWriter, r *http.Request) {
	b, err := s.block(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req patchRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	err = s.env.Measurer.Run(func() error {
		if req.Collapsed != nil {
			if err := b.SetCollapsed(*req.Collapsed); err != nil {
				return err
			}
		}
		if req.Disabled != nil {
			return b.SetDisabled(*req.Disabled)
		}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewBlock(b))
}

func (s *Server) handleDispose(w http.ResponseWriter, r *http.Request) {
	b, err := s.block(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	heal, _ := strconv.ParseBool(r.URL.Query().Get("heal"))
	if err := s.env.Measurer.Run(func() error { return b.Dispose(heal) }); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleProbe reports where a drop would connect without moving anything.
// The gesture is aborted and its events are not recorded.
func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	b, req, ok := s.dragArgs(w, r)
	if !ok {
		return
	}
	rec := s.env.Recorder
	rec.Disable()
	defer rec.Enable()

	var res DragResult
	err := s.env.Measurer.Run(func() error {
		d, err := s.env.Workspace.StartDrag(b, req.Heal)
		if err != nil {
			return err
		}
		if cand, ok := d.Move(req.DX, req.DY); ok {
			res.Candidate = viewCandidate(cand)
		}
		return d.Abort()
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	res.Block = viewBlock(b)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	b, req, ok := s.dragArgs(w, r)
	if !ok {
		return
	}
	var res DragResult
	err := s.env.Measurer.Run(func() error {
		d, err := s.env.Workspace.StartDrag(b, req.Heal)
		if err != nil {
			return err
		}
		cand, connected, err := d.End(req.DX, req.DY)
		if err != nil {
			return err
		}
		if connected {
			res.Connected = true
			res.Candidate = viewCandidate(cand)
		}
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	res.Block = viewBlock(b)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) dragArgs(w http.ResponseWriter, r *http.Request) (*blocks.Block, dragRequest, bool) {
	var req dragRequest
	b, err := s.block(r)
	if err == nil {
		err = decode(r, &req)
	}
	if err != nil {
		s.writeError(w, err)
		return nil, req, false
	}
	return b, req, true
}

func (s *Server) handleUnplug(w http.ResponseWriter, r *http.Request) {
	b, err := s.block(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req unplugRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.env.Measurer.Run(func() error { return b.Unplug(req.Heal) }); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewBlock(b))
}

func (s *Server) handleSetField(w http.ResponseWriter, r *http.Request) {
	b, err := s.block(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req fieldRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Value == nil {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "missing value"))
		return
	}
	name := chi.URLParam(r, "name")
	if err := s.env.Measurer.Run(func() error { return b.SetFieldValue(name, *req.Value) }); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewBlock(b))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "export"))
		return
	}
	detailed, _ := strconv.ParseBool(r.URL.Query().Get("detailed"))
	res, err := s.runner.Export(r.Context(), s.env, pipeline.ExportOptions{
		Formats:  []string{format},
		Detailed: detailed,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	data := res.Artifacts[format]
	w.Header().Set("Content-Type", contentTypes[format])
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("X-Cache", fmt.Sprintf("%t", res.CacheInfo.Hits[format]))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
