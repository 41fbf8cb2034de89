package config

// Scanner strategy names understood by the source registry.
const (
	ScannerWebProfiles   = "web_profiles"
	ScannerOpenSanctions = "opensanctions"
	ScannerScreeningAPI  = "screening_api"
	ScannerSanctionsList = "sanctions_list"
	ScannerWebSearch     = "web_search"
	ScannerNewsAPI       = "json_api"
	ScannerPagedListing  = "paged_listing"
)

func defaultConfig() Config {
	enabled := true
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "text"},
		UserAgent: "PersonIntel/1.0",
		APIKeys:   map[string]string{},
		Cache: CacheConfig{
			Enabled:         &enabled,
			TTLSeconds:      86400,
			Dir:             ".cache",
			Backend:         CacheBadger,
			EvictionMinutes: 60,
		},
		RateLimit: RateLimitConfig{RequestsPerPeriod: 100, PeriodSeconds: 60},
		Retry: RetryConfig{
			MaxRetries:     3,
			InitialBackoff: 1,
			MaxBackoff:     60,
			BackoffFactor:  2,
		},
		Social: FamilyConfig{
			Threshold:           0.3,
			MaxResultsPerSource: 20,
			Sources:             defaultSocialSources(),
		},
		Registry: FamilyConfig{
			Threshold:           0.85,
			MaxResultsPerSource: 20,
			Sources:             defaultRegistrySources(),
		},
		News: FamilyConfig{
			Threshold:           0.3,
			TimeframeDays:       365,
			MaxResultsPerSource: 50,
			Sources:             defaultNewsSources(),
		},
		LLM: LLMConfig{
			Endpoint:     "https://api.openai.com/v1",
			Model:        "gpt-4o-mini",
			Temperature:  0.2,
			MaxTokens:    1500,
			SystemPrompt: "You are a due-diligence analyst. Be factual and state uncertainty plainly.",
		},
		Server:   ServerConfig{Addr: ":8000"},
		Workflow: WorkflowConfig{TimeoutSeconds: 300, MaxConcurrent: 4},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{MinRisk: "high"},
		},
	}
}

func defaultSocialSources() []SourceConfig {
	profile := func(name, search, profile string) SourceConfig {
		return SourceConfig{
			Name:               name,
			Scanner:            ScannerWebProfiles,
			SearchURLTemplate:  search,
			ProfileURLTemplate: profile,
			TimeoutSeconds:     30,
		}
	}
	return []SourceConfig{
		profile("twitter", "https://twitter.com/search?q={query}&f=user", "https://twitter.com/{username}"),
		profile("linkedin", "https://www.linkedin.com/search/results/people/?keywords={query}", "https://www.linkedin.com/in/{username}"),
		profile("facebook", "https://www.facebook.com/search/people/?q={query}", "https://www.facebook.com/{username}"),
		profile("instagram", "https://www.instagram.com/{query}/", "https://www.instagram.com/{username}"),
		profile("tiktok", "https://www.tiktok.com/search?q={query}", "https://www.tiktok.com/@{username}"),
		profile("youtube", "https://www.youtube.com/results?search_query={query}&sp=EgIQAg%253D%253D", "https://www.youtube.com/@{username}"),
		profile("reddit", "https://www.reddit.com/search/?q={query}&type=user", "https://www.reddit.com/user/{username}"),
		profile("github", "https://github.com/search?q={query}&type=users", "https://github.com/{username}"),
	}
}

func defaultRegistrySources() []SourceConfig {
	return []SourceConfig{
		{
			Name:           "opensanctions",
			Scanner:        ScannerOpenSanctions,
			APIURL:         "https://api.opensanctions.org",
			SearchEndpoint: "/search/person",
			RequiresAuth:   true,
			TimeoutSeconds: 20,
		},
		{
			Name:           "worldcheck",
			Scanner:        ScannerScreeningAPI,
			APIURL:         "https://api.refinitiv.com/worldcheck/v1",
			SearchEndpoint: "/person/search",
			RequiresAuth:   true,
			TimeoutSeconds: 20,
		},
		{
			Name:           "dowjones",
			Scanner:        ScannerScreeningAPI,
			APIURL:         "https://api.dowjones.com/riskandcompliance/v1",
			SearchEndpoint: "/persons",
			RequiresAuth:   true,
			TimeoutSeconds: 20,
		},
		{
			Name:           "ofac",
			Scanner:        ScannerSanctionsList,
			APIURL:         "https://sanctionssearch.ofac.treas.gov/api",
			SearchEndpoint: "/search",
			TimeoutSeconds: 20,
			Options:        map[string]string{"nameParam": "name", "type": "individual"},
		},
		{
			Name:           "un_sanctions",
			Scanner:        ScannerSanctionsList,
			APIURL:         "https://api.un.org/sanctions",
			SearchEndpoint: "/consolidated/search",
			TimeoutSeconds: 20,
			Options:        map[string]string{"nameParam": "nameSearch"},
		},
		{
			Name:           "eu_sanctions",
			Scanner:        ScannerSanctionsList,
			APIURL:         "https://webgate.ec.europa.eu/fsd/fsf/api",
			SearchEndpoint: "/persons/search",
			TimeoutSeconds: 20,
			Options:        map[string]string{"nameParam": "name", "type": "person"},
		},
	}
}

func defaultNewsSources() []SourceConfig {
	return []SourceConfig{
		{
			Name:              "google_news",
			Scanner:           ScannerWebSearch,
			SearchURLTemplate: "https://news.google.com/search?q={query}",
			TimeoutSeconds:    30,
		},
		{
			Name:           "bing_news",
			Scanner:        ScannerNewsAPI,
			APIURL:         "https://api.bing.microsoft.com/v7.0",
			SearchEndpoint: "/news/search",
			RequiresAuth:   true,
			APIKeyName:     "bing_api_key",
			TimeoutSeconds: 30,
			Options:        map[string]string{"authHeader": "Ocp-Apim-Subscription-Key", "results": "value", "limitParam": "count"},
		},
		{
			Name:           "lexisnexis",
			Scanner:        ScannerNewsAPI,
			APIURL:         "https://api.lexisnexis.com",
			SearchEndpoint: "/search/news",
			RequiresAuth:   true,
			APIKeyName:     "lexisnexis_api_key",
			TimeoutSeconds: 30,
		},
		{
			Name:           "factiva",
			Scanner:        ScannerNewsAPI,
			APIURL:         "https://api.dowjones.com/factiva/v1",
			SearchEndpoint: "/search",
			RequiresAuth:   true,
			APIKeyName:     "factiva_api_key",
			TimeoutSeconds: 30,
		},
		{
			Name:              "sec_litigation",
			Scanner:           ScannerPagedListing,
			SearchURLTemplate: "https://www.sec.gov/litigation/litreleases?search={query}",
			TimeoutSeconds:    30,
			Options:           map[string]string{"offsetParam": "page", "sizeParam": "items_per_page", "item": "table tbody tr", "maxPages": "3"},
		},
	}
}
