package server

import (
	"net/http"
	"time"
)

// handleDemoData serves the static sample payload the interface uses
// before any real upload.
func (s *Server) handleDemoData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"traffic_conditions": map[string]int{
			"Good":      40,
			"Moderate":  35,
			"Congested": 25,
		},
		"cities":         []string{"Amsterdam", "New York", "London", "Kuala Lumpur"},
		"sample_speeds":  []int{45, 32, 28, 55, 38, 42, 29, 61, 35, 47},
		"sample_volumes": []int{1200, 2800, 3400, 1800, 2200, 1900, 3100, 1600, 2400, 2000},
	})
}

// handleProcessDemo answers with a canned five-location dataset so the
// end-to-end flow can be exercised without a real document.
func (s *Server) handleProcessDemo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Demo processing complete!",
		"demo_result": map[string]any{
			"type": "demo",
			"data": map[string]any{
				"locations":  []string{"Downtown", "Highway 101", "Main Street", "City Center", "Industrial Zone"},
				"speeds":     []int{45, 32, 28, 55, 38},
				"conditions": []string{"Good", "Moderate", "Congested", "Good", "Moderate"},
				"volumes":    []int{1200, 2800, 3400, 1800, 2200},
				"timestamp":  time.Now().UTC().Format(time.RFC3339),
			},
			"extracted_count": 5,
		},
	})
}
