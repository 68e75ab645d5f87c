package httpapi

import "net/http"

// handleGetVitals exposes the sensor's latest reading. The sensor process
// not having written anything yet is a normal condition, reported as a zero
// reading.
func (r *Router) handleGetVitals(w http.ResponseWriter, req *http.Request) {
	reading, err := r.vitalsReader.Read()
	if err != nil {
		r.logger.Printf("vitals: read failed: %v", err)
		http.Error(w, `{"error": "failed to read vitals"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, reading)
}
