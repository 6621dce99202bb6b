package config

// SearchProviderType identifies which search provider is available.
type SearchProviderType string

// Search provider type constants.
const (
	SearchProviderNone   SearchProviderType = ""
	SearchProviderTavily SearchProviderType = "tavily"
	SearchProviderSerper SearchProviderType = "serper"
)

// SearchAPIStatus contains information about available search APIs.
type SearchAPIStatus struct {
	Available    bool               // Whether any search API is available
	Provider     SearchProviderType // Preferred provider (empty if none)
	TavilyAPIKey string
	SerperAPIKey string
}

// DetectSearchAPIs inspects the resolved tool credentials and reports which
// search backends are usable. Tavily is preferred for trend research; Serper
// remains available for broad web search even when Tavily is configured.
func (c *Config) DetectSearchAPIs() SearchAPIStatus {
	status := SearchAPIStatus{
		TavilyAPIKey: c.Tools.TavilyAPIKey,
		SerperAPIKey: c.Tools.SerperAPIKey,
	}

	if status.TavilyAPIKey != "" {
		status.Available = true
		status.Provider = SearchProviderTavily
		return status
	}
	if status.SerperAPIKey != "" {
		status.Available = true
		status.Provider = SearchProviderSerper
	}
	return status
}
