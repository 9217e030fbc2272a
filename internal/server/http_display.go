package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayModelInfo()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET  /health                - Health check")
	fmt.Println("  GET  /stats                 - Server statistics")
	fmt.Println("  GET  /skills                - Individual skill features")
	fmt.Println("  GET  /jobs                  - Job titles")
	fmt.Println("  POST /predict_jobs_probs    - Job probabilities for a skill list")
	fmt.Println("  POST /recommend_new_skills  - Skills that raise a target job's probability")
}

func (s *Server) displayModelInfo() {
	svc := s.Predictor.Current()
	if svc == nil {
		return
	}
	info := svc.Info()
	fmt.Printf("Model: %s (%s backend, fingerprint %s)\n", info.Location, info.Backend, info.Fingerprint)
	fmt.Printf("  %d features, %d jobs, %d candidate skills\n", info.Features.Features, info.Jobs, info.Universe)
	if s.Watcher != nil {
		fmt.Printf("Hot reload: ENABLED (%d files watched)\n", len(s.Watcher.GetWatchedFiles()))
	}
	if s.VaultWatcher != nil {
		fmt.Println("API key rotation: ENABLED (polling Vault)")
	}
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if n := len(s.currentAPIKeys()); n > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", n)
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to prediction endpoints")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f KB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/1024)
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
	}
}
