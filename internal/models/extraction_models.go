package models

type ExtractionResult struct {
	Platform string `json:"platform"`
	Author   string `json:"author"`
	Content  string `json:"content"`
	Date     string `json:"date,omitempty"`
	URL      string `json:"url"`
	Method   string `json:"extraction_method"`
}

type PlatformStatus struct {
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	Methods    []string `json:"features"`
	Configured bool     `json:"configured"`
}
