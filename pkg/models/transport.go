package models

// ErrorResponse is returned for every failed request. Disclaimer is always set.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	Message    string `json:"message,omitempty"`
	Disclaimer string `json:"disclaimer"`
}

// UploadResponse is the body of a successful POST /upload
type UploadResponse struct {
	Success      bool   `json:"success"`
	Filename     string `json:"filename"`
	Report       Report `json:"report"`
	ImagePreview string `json:"image_preview,omitempty"`
}

// ServiceInfo is the body of GET /
type ServiceInfo struct {
	Message    string            `json:"message"`
	Version    string            `json:"version"`
	Disclaimer string            `json:"disclaimer"`
	Endpoints  map[string]string `json:"endpoints"`
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
