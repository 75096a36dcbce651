package handlers

import "net/http"

// UsageGet reports the caller's current quota position without mutating it.
func (a *App) UsageGet(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	usage, err := a.Meter.Check(r.Context(), userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, usageToDTO(usage))
}

// UsageClaim consumes one unit of quota directly, outside the job flow.
// The increment is conditional in the store, so concurrent claims for the
// last unit resolve to exactly one winner.
func (a *App) UsageClaim(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	usage, err := a.Meter.Claim(r.Context(), userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, usageToDTO(usage))
}
