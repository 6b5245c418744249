package main

// API payload shapes, mirrored from the server responses.

type printerView struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Model             string  `json:"model,omitempty"`
	PowerDrawKwh      float64 `json:"powerDrawKwh"`
	EnergyUnitPrice   float64 `json:"energyUnitPrice"`
	Status            string  `json:"status"`
	FilamentUsedGrams float64 `json:"filamentUsedGrams"`
	LastJobID         string  `json:"lastJobId,omitempty"`
	LastOperator      string  `json:"lastOperator,omitempty"`
	CreatedAt         string  `json:"createdAt"`
}

type printerList struct {
	Printers      []printerView `json:"printers"`
	NextPageToken string        `json:"nextPageToken"`
}

type spoolView struct {
	ID            string  `json:"id"`
	Material      string  `json:"material"`
	Color         string  `json:"color,omitempty"`
	InitialGrams  float64 `json:"initialGrams"`
	CurrentGrams  float64 `json:"currentGrams"`
	PurchasePrice float64 `json:"purchasePrice"`
	PricePerGram  float64 `json:"pricePerGram"`
	PurchasedBy   string  `json:"purchasedBy,omitempty"`
	LastUsedBy    string  `json:"lastUsedBy,omitempty"`
	LastUsedAt    string  `json:"lastUsedAt,omitempty"`
	CreatedAt     string  `json:"createdAt"`
}

type spoolList struct {
	Spools        []spoolView `json:"spools"`
	NextPageToken string      `json:"nextPageToken"`
}

type usageView struct {
	SpoolID string  `json:"spoolId"`
	Grams   float64 `json:"grams"`
}

type jobView struct {
	ID              string      `json:"id"`
	ProjectName     string      `json:"projectName"`
	PrinterID       string      `json:"printerId"`
	Operator        string      `json:"operator"`
	DurationMinutes int         `json:"durationMinutes"`
	EstimatedGrams  float64     `json:"estimatedGrams"`
	ActualGrams     *float64    `json:"actualGrams,omitempty"`
	EnergyCost      float64     `json:"energyCost"`
	FilamentCost    float64     `json:"filamentCost"`
	TotalCost       float64     `json:"totalCost"`
	SalePrice       *float64    `json:"salePrice,omitempty"`
	Profit          *float64    `json:"profit,omitempty"`
	Status          string      `json:"status"`
	Notes           string      `json:"notes,omitempty"`
	StartedAt       string      `json:"startedAt"`
	CompletedAt     string      `json:"completedAt,omitempty"`
	Usage           []usageView `json:"usage,omitempty"`
}

type jobList struct {
	Jobs          []jobView `json:"jobs"`
	NextPageToken string    `json:"nextPageToken"`
}

type auditEventView struct {
	ID         string         `json:"id"`
	Actor      string         `json:"actor"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  string         `json:"createdAt"`
}

type auditEventList struct {
	Events        []auditEventView `json:"events"`
	NextPageToken string           `json:"nextPageToken"`
}
