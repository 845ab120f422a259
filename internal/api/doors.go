package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-garage/internal/door"
)

// DoorStatus is one door's sensor-derived position.
type DoorStatus struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

// handleListDoors reads every door's sensor once.
func (s *Server) handleListDoors(w http.ResponseWriter, r *http.Request) {
	doors := make([]DoorStatus, 0, len(s.doors))
	for _, id := range door.IDs {
		reader, ok := s.doors[id]
		if !ok {
			continue
		}
		status, err := s.readDoor(id, reader)
		if err != nil {
			s.logger.Error("door status read failed", "door", string(id), "error", err,
				"request_id", r.Context().Value(ctxKeyRequestID))
			writeInternalError(w, "door sensor read failed")
			return
		}
		doors = append(doors, status)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"doors": doors,
		"count": len(doors),
	})
}

// handleGetDoor reads one door's sensor.
func (s *Server) handleGetDoor(w http.ResponseWriter, r *http.Request) {
	id := door.ID(chi.URLParam(r, "id"))
	reader, ok := s.doors[id]
	if !ok {
		writeNotFound(w, "door not found")
		return
	}

	status, err := s.readDoor(id, reader)
	if err != nil {
		s.logger.Error("door status read failed", "door", string(id), "error", err,
			"request_id", r.Context().Value(ctxKeyRequestID))
		writeInternalError(w, "door sensor read failed")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

func (s *Server) readDoor(id door.ID, reader DoorReader) (DoorStatus, error) {
	state, err := reader.QueryStatus()
	if err != nil {
		return DoorStatus{}, err
	}
	return DoorStatus{ID: string(id), State: state.String()}, nil
}
