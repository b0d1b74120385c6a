package domain

type ClientStats struct {
	TotalProjects  int    `json:"totalProjects"`
	PublishedSites int    `json:"publishedSites"`
	TemplatesUsed  int    `json:"templatesUsed"`
	StorageUsed    string `json:"storageUsed"`
}

type AdminStats struct {
	TotalUsers     int `json:"totalUsers"`
	TotalProjects  int `json:"totalProjects"`
	PublishedSites int `json:"publishedSites"`
	ActiveUsers    int `json:"activeUsers"`
}

type AdminAnalytics struct {
	TotalUsers         int    `json:"totalUsers"`
	TotalProjects      int    `json:"totalProjects"`
	PublishedSites     int    `json:"publishedSites"`
	PageViews          int64  `json:"pageViews"`
	AvgSessionDuration string `json:"avgSessionDuration"`
	ConversionRate     string `json:"conversionRate"`
}

func (a AdminAnalytics) PageViewsCompact() string {
	return compactNumber(a.PageViews)
}

// SubscriptionState is the billing view of the current principal.
type SubscriptionState struct {
	PlanType  PlanType           `json:"planType"`
	Status    SubscriptionStatus `json:"status"`
	IsBlocked bool               `json:"isBlocked"`
	CanUseAI  bool               `json:"canUseAi"`
}
