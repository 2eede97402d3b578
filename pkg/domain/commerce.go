package domain

import "time"

// ProductStatus represents the lifecycle of a product in the store
type ProductStatus string

const (
	ProductStatusDiscovered ProductStatus = "discovered"
	ProductStatusListed     ProductStatus = "listed"
	ProductStatusActive     ProductStatus = "active"
	ProductStatusPaused     ProductStatus = "paused"
	ProductStatusDeleted    ProductStatus = "deleted"
)

// ShippingInfo describes supplier shipping terms
type ShippingInfo struct {
	Cost float64 `json:"cost"`
	Time string  `json:"time"`
}

// Product is a supplier product candidate
type Product struct {
	ID           string        `json:"id,omitempty"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Price        float64       `json:"price"`
	Cost         float64       `json:"cost"`
	Margin       float64       `json:"margin"`
	Profit       float64       `json:"profit"`
	Currency     string        `json:"currency"`
	Category     string        `json:"category"`
	Images       []string      `json:"images,omitempty"`
	SupplierID   string        `json:"supplier_id"`
	SupplierName string        `json:"supplier_name"`
	SupplierURL  string        `json:"supplier_url"`
	Shipping     ShippingInfo  `json:"shipping_info"`
	SalesVolume  int           `json:"sales_volume,omitempty"`
	Status       ProductStatus `json:"status"`
	CreatedAt    *time.Time    `json:"created_at,omitempty"`
}

// ProductRecord is what the storefront returns after listing a product
type ProductRecord struct {
	ID        string        `json:"id"`
	ProductID string        `json:"product_id"`
	Handle    string        `json:"handle"`
	Status    ProductStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// AdPlatform is the advertising network of a campaign
type AdPlatform string

const (
	AdPlatformTikTok    AdPlatform = "tiktok"
	AdPlatformFacebook  AdPlatform = "facebook"
	AdPlatformInstagram AdPlatform = "instagram"
)

// TargetAudience narrows who sees a campaign
type TargetAudience struct {
	AgeRange  [2]int   `json:"age_range"`
	Genders   []int    `json:"genders,omitempty"`
	Locations []string `json:"location,omitempty"`
	Interests []string `json:"interests,omitempty"`
}

// CampaignDraft is a campaign that has not been submitted yet
type CampaignDraft struct {
	Name            string         `json:"name"`
	Platform        AdPlatform     `json:"platform"`
	ProductID       string         `json:"product_id"`
	Budget          float64        `json:"budget"`
	DailyBudget     float64        `json:"daily_budget,omitempty"`
	TargetAudience  TargetAudience `json:"target_audience"`
	CreativeCaption string         `json:"creative_caption"`
	Status          string         `json:"status"`
}

// Campaign is a campaign known to the ad platform
type Campaign struct {
	CampaignDraft
	ID       string    `json:"id"`
	VideoURL string    `json:"creative_video_url,omitempty"`
	Created  time.Time `json:"created_at"`
}

// Order is a storefront order
type Order struct {
	ID                string            `json:"id"`
	Number            string            `json:"order_number"`
	CustomerName      string            `json:"customer_name"`
	CustomerEmail     string            `json:"customer_email"`
	Items             []OrderItem       `json:"items"`
	Total             float64           `json:"total"`
	Currency          string            `json:"currency"`
	ShippingAddress   map[string]string `json:"shipping_address"`
	Status            string            `json:"status"`
	FulfillmentStatus string            `json:"fulfillment_status"`
	TrackingNumber    string            `json:"tracking_number,omitempty"`
	CreatedAt         time.Time         `json:"created_at"`
}

// OrderItem is a single line of an order
type OrderItem struct {
	Title    string  `json:"title"`
	SKU      string  `json:"sku,omitempty"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Message is a customer service message
type Message struct {
	ID            string     `json:"id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	Subject       string     `json:"subject"`
	Body          string     `json:"message"`
	OrderID       string     `json:"order_id,omitempty"`
	Answered      bool       `json:"answered"`
	Response      string     `json:"ai_response,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
}
