package server

import (
	"context"
	"net/http"
	"time"

	"umbrella/internal/types"
)

type healthView struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
}

// handleHealth reports process liveness plus the optional readiness probe
// (the state database ping). Probe failure returns 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	view := healthView{
		Status:  "healthy",
		Version: s.cfg.Build.Version,
		Commit:  s.cfg.Build.Commit,
	}

	if s.readiness != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := s.readiness(ctx); err != nil {
			s.logger.ErrorContext(r.Context(), "readiness probe failed", "error", err)
			view.Status = "unhealthy"
			JSON(w, r, http.StatusServiceUnavailable, view)
			return
		}
	}

	JSON(w, r, http.StatusOK, view)
}

type settingsView struct {
	Enabled          bool       `json:"enabled"`
	WindowStartHour  int        `json:"window_start_hour"`
	WindowEndHour    int        `json:"window_end_hour"`
	RainThresholdPct int        `json:"rain_threshold_pct"`
	LastSentAt       *time.Time `json:"last_sent_at,omitempty"`
}

func settingsViewFrom(st types.NotificationState) settingsView {
	view := settingsView{
		Enabled:          st.Enabled,
		WindowStartHour:  st.WindowStartHour,
		WindowEndHour:    st.WindowEndHour,
		RainThresholdPct: st.RainThresholdPct,
	}
	if st.LastSentAtMs > 0 {
		t := time.UnixMilli(st.LastSentAtMs)
		view.LastSentAt = &t
	}
	return view
}

type statusView struct {
	Task        string                `json:"task"`
	Scheduled   bool                  `json:"scheduled"`
	Scheduler   any                   `json:"scheduler,omitempty"`
	Settings    settingsView          `json:"settings"`
	LastReading *types.WeatherReading `json:"last_reading,omitempty"`
}

// handleStatus returns the scheduler's view of the periodic check task plus
// the active notification settings.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.prefs.Load(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}

	view := statusView{
		Task:     s.taskSpec.Name,
		Settings: settingsViewFrom(st),
	}
	if taskStatus, ok := s.sched.Status(s.taskSpec.Name); ok {
		view.Scheduled = true
		view.Scheduler = taskStatus
	}
	if reading, err := s.prefs.CachedReading(r.Context()); err == nil && reading != nil {
		view.LastReading = reading
	}

	JSON(w, r, http.StatusOK, APIResponse{Data: view})
}

// handleCheckNow runs one check cycle synchronously and returns its result.
// The cycle serializes against the scheduled runs, so a concurrent tick
// simply makes this request wait.
func (s *Server) handleCheckNow(w http.ResponseWriter, r *http.Request) {
	res, err := s.cycle.Run(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: res})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.prefs.Load(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}
	JSON(w, r, http.StatusOK, APIResponse{Data: settingsViewFrom(st)})
}

// settingsPayload is the PUT /v1/settings body. Absent fields keep their
// current values.
type settingsPayload struct {
	Enabled          *bool `json:"enabled"`
	WindowStartHour  *int  `json:"window_start_hour"`
	WindowEndHour    *int  `json:"window_end_hour"`
	RainThresholdPct *int  `json:"rain_threshold_pct"`
}

// handlePutSettings patches the notification settings and replaces the
// scheduled task so the next cycle runs with the new values.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var payload settingsPayload
	if err := DecodeJSON(w, r, &payload); err != nil {
		Error(w, r, err)
		return
	}

	st, err := s.prefs.Load(r.Context())
	if err != nil {
		Error(w, r, err)
		return
	}

	if payload.Enabled != nil {
		st.Enabled = *payload.Enabled
	}
	if payload.WindowStartHour != nil {
		st.WindowStartHour = *payload.WindowStartHour
	}
	if payload.WindowEndHour != nil {
		st.WindowEndHour = *payload.WindowEndHour
	}
	if payload.RainThresholdPct != nil {
		st.RainThresholdPct = *payload.RainThresholdPct
	}

	if err := validateSettings(st); err != nil {
		Error(w, r, err)
		return
	}

	if err := s.prefs.SetEnabled(r.Context(), st.Enabled); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.prefs.SetWindow(r.Context(), st.WindowStartHour, st.WindowEndHour); err != nil {
		Error(w, r, err)
		return
	}
	if err := s.prefs.SetRainThreshold(r.Context(), st.RainThresholdPct); err != nil {
		Error(w, r, err)
		return
	}

	// Replace-register so the running task picks up the new settings on a
	// fresh schedule instead of mid-cycle.
	s.sched.Register(context.WithoutCancel(r.Context()), s.taskSpec, s.cycle)
	s.logger.InfoContext(r.Context(), "settings updated",
		"enabled", st.Enabled,
		"window_start", st.WindowStartHour,
		"window_end", st.WindowEndHour,
		"rain_threshold_pct", st.RainThresholdPct,
	)

	JSON(w, r, http.StatusOK, APIResponse{Data: settingsViewFrom(st)})
}

func validateSettings(st types.NotificationState) error {
	if st.WindowStartHour < 0 || st.WindowStartHour > 23 || st.WindowEndHour < 0 || st.WindowEndHour > 23 {
		return types.NewAppError(types.ErrCodeValidationInvalidWindow, "window hours must be within [0,23]", nil)
	}
	if st.WindowStartHour >= st.WindowEndHour {
		return types.NewAppError(types.ErrCodeValidationInvalidWindow, "window start must be before window end", nil)
	}
	if st.RainThresholdPct < 0 || st.RainThresholdPct > 100 {
		return types.NewAppError(types.ErrCodeValidationThresholdRange, "rain threshold must be within [0,100]", nil)
	}
	return nil
}
