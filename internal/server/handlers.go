package server

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hostdash/hostdash/internal/capability"
	"github.com/hostdash/hostdash/internal/recorder"
	"github.com/hostdash/hostdash/pkg/errclass"
	"github.com/hostdash/hostdash/pkg/model"
)

func (s *Server) capabilities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"capabilities": s.opts.Capabilities.Reports()})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Capabilities.Require(capability.Telemetry); err != nil || s.opts.Telemetry == nil {
		s.writeError(w, r, unavailable(err, capability.Telemetry))
		return
	}
	rep, err := s.opts.Telemetry.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) processes(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Capabilities.Require(capability.Telemetry); err != nil || s.opts.Telemetry == nil {
		s.writeError(w, r, unavailable(err, capability.Telemetry))
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	procs, err := s.opts.Telemetry.Processes(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"processes": procs})
}

func (s *Server) killProcess(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Capabilities.Require(capability.Telemetry); err != nil || s.opts.Telemetry == nil {
		s.writeError(w, r, unavailable(err, capability.Telemetry))
		return
	}
	raw := chi.URLParam(r, "pid")
	pid, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || pid <= 0 {
		s.writeError(w, r, errclass.ErrInvalidArgument.WithMessagef("pid: not a process id: %q", raw))
		return
	}
	if err := s.opts.Telemetry.Terminate(r.Context(), int32(pid)); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) screenshot(w http.ResponseWriter, r *http.Request) {
	if err := s.opts.Capabilities.Require(capability.Screenshot); err != nil || s.opts.Screen == nil {
		s.writeError(w, r, unavailable(err, capability.Screenshot))
		return
	}
	display, err := intParam(r, "display", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	data, err := s.opts.Screen.PNG(r.Context(), display)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type captureResponse struct {
	recorder.Status
	Logs []model.EventRecord `json:"logs"`
}

func (s *Server) captureLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", s.opts.SnapshotLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, captureResponse{
		Status: s.opts.Recorder.Status(),
		Logs:   s.opts.Recorder.Snapshot(limit),
	})
}

func (s *Server) captureControl(w http.ResponseWriter, r *http.Request) {
	var err error
	switch cmd := chi.URLParam(r, "cmd"); cmd {
	case "start":
		err = s.opts.Recorder.Start(r.Context())
	case "stop":
		err = s.opts.Recorder.Stop()
	default:
		err = errclass.ErrInvalidArgument.WithMessagef("unknown capture command %q", cmd)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listFiles(w http.ResponseWriter, r *http.Request) {
	listing, err := s.opts.Browser.List(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	f, err := s.opts.Browser.Open(r.Context(), r.URL.Query().Get("path"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Name}))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeContent(w, r, f.Name, f.Modified, f)
}

// upload streams a multipart body. The "path" field must precede the
// "file" part; a path that is empty or ends in "/" takes the file's name.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	mr, err := r.MultipartReader()
	if err != nil {
		s.writeError(w, r, errclass.ErrInvalidArgument.WithMessagef("expected multipart form: %v", err))
		return
	}

	var target string
	havePath := false
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.writeError(w, r, classifyBodyError(err))
			return
		}

		switch part.FormName() {
		case "path":
			b, err := io.ReadAll(io.LimitReader(part, 4096))
			part.Close()
			if err != nil {
				s.writeError(w, r, classifyBodyError(err))
				return
			}
			target = string(b)
			havePath = true
		case "file":
			if !havePath {
				part.Close()
				s.writeError(w, r, errclass.ErrInvalidArgument.WithMessage("the path field must precede the file part"))
				return
			}
			if target == "" || strings.HasSuffix(target, "/") {
				target += path.Base("/" + part.FileName())
			}
			entry, err := s.opts.Browser.Write(r.Context(), target, part)
			part.Close()
			if err != nil {
				s.writeError(w, r, err)
				return
			}
			writeJSON(w, http.StatusCreated, entry)
			return
		default:
			part.Close()
		}
	}
	s.writeError(w, r, errclass.ErrInvalidArgument.WithMessage("missing file part"))
}

func classifyBodyError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return err
	}
	return errclass.ErrInvalidArgument.WithMessagef("malformed multipart body: %v", err)
}

func unavailable(err error, name string) error {
	if err != nil {
		return err
	}
	return errclass.ErrCapabilityUnavailable.WithMessagef("%s: not configured", name)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errclass.ErrInvalidArgument.WithMessagef("%s: not an integer: %q", name, v)
	}
	return n, nil
}

func durationParam(r *http.Request, name string, def, lo, hi time.Duration) (time.Duration, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	secs, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errclass.ErrInvalidArgument.WithMessagef("%s: not a number of seconds: %q", name, v)
	}
	d := time.Duration(secs * float64(time.Second))
	return min(max(d, lo), hi), nil
}
