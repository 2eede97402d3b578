package memory

import (
	"time"

	"github.com/aescanero/dropship/pkg/domain"
)

const placeholderImage = "https://via.placeholder.com/500"

func seedProducts() []domain.Product {
	type seed struct {
		id, title, description, category, supplier string
		cost, price, margin                        float64
		sales                                      int
	}
	seeds := []seed{
		{"mock-001", "Wireless Bluetooth Earbuds with Noise Cancellation",
			"Premium wireless earbuds with active noise cancellation, 30-hour battery life, and crystal-clear sound quality.",
			"Electronics", "CJ Supplier #1", 15.00, 45.00, 0.667, 1250},
		{"mock-002", "Portable Phone Charger Power Bank 20000mAh",
			"Ultra-high capacity power bank with fast charging technology and multiple ports.",
			"Electronics", "CJ Supplier #2", 8.50, 29.99, 0.717, 890},
		{"mock-003", "Minimalist Wallet with RFID Blocking",
			"Slim, modern wallet with RFID blocking technology to protect your cards from unauthorized scanning.",
			"Accessories", "CJ Supplier #3", 6.00, 24.99, 0.760, 654},
		{"mock-004", "Yoga Mat with Carrying Strap - Non-Slip",
			"Premium yoga mat with superior grip, cushioning, and eco-friendly materials.",
			"Fitness", "CJ Supplier #4", 12.00, 39.99, 0.700, 432},
		{"mock-005", "LED Strip Lights - 16.4ft RGB Color Changing",
			"Smart LED strip lights with app control, voice control, and millions of colors.",
			"Home Decor", "CJ Supplier #5", 7.50, 27.99, 0.732, 1100},
	}

	products := make([]domain.Product, 0, len(seeds))
	for _, s := range seeds {
		products = append(products, domain.Product{
			ID:           s.id,
			Title:        s.title,
			Description:  s.description,
			Price:        s.price,
			Cost:         s.cost,
			Margin:       s.margin,
			Profit:       s.price - s.cost,
			Currency:     "USD",
			Category:     s.category,
			Images:       []string{placeholderImage},
			SupplierID:   s.id,
			SupplierName: s.supplier,
			Shipping:     domain.ShippingInfo{Cost: 0, Time: "7-15 days"},
			SalesVolume:  s.sales,
			Status:       domain.ProductStatusDiscovered,
		})
	}
	return products
}

func seedOrders(now time.Time) []domain.Order {
	return []domain.Order{
		{
			ID:            "order-001",
			Number:        "#1001",
			CustomerName:  "John Doe",
			CustomerEmail: "john@example.com",
			Items:         []domain.OrderItem{{Title: "Product 1", Quantity: 2, Price: 29.99}},
			Total:         59.98,
			Currency:      "USD",
			ShippingAddress: map[string]string{
				"name":     "John Doe",
				"address1": "123 Main St",
				"city":     "New York",
				"province": "NY",
				"zip":      "10001",
				"country":  "US",
			},
			Status:            "paid",
			FulfillmentStatus: "unfulfilled",
			CreatedAt:         now,
		},
	}
}

func seedMessages(now time.Time) []domain.Message {
	return []domain.Message{
		{
			ID:            "msg-001",
			CustomerName:  "Jane Smith",
			CustomerEmail: "jane@example.com",
			Subject:       "Order Shipping Question",
			Body:          "Hi, when will my order ship? I placed it 3 days ago.",
			OrderID:       "order-001",
			CreatedAt:     now,
		},
		{
			ID:            "msg-002",
			CustomerName:  "Bob Johnson",
			CustomerEmail: "bob@example.com",
			Subject:       "Product Issue",
			Body:          "The product I received is different from what was advertised. Can I get a refund?",
			OrderID:       "order-002",
			CreatedAt:     now,
		},
	}
}
