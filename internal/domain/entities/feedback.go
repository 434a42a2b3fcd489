package entities

import "time"

// Feedback captures one customer's rating of a single coffee delivery.
type Feedback struct {
	ID                 string    `json:"id" db:"id"`
	UserID             string    `json:"user_id" db:"user_id"`
	CustomerName       string    `json:"customer_name" db:"customer_name"`
	PhoneNumber        string    `json:"phone_number" db:"phone_number"`
	AccountNumber      string    `json:"account_number" db:"account_number"`
	CoffeeType         string    `json:"coffee_type" db:"coffee_type"`
	CoffeeWeight       float64   `json:"coffee_weight" db:"coffee_weight"`
	CustomerLocation   string    `json:"customer_location" db:"customer_location"`
	CoffeeQuality      int       `json:"coffee_quality" db:"coffee_quality"` // 1-5
	DeliveryExperience int       `json:"delivery_experience" db:"delivery_experience"` // 1-5
	Comments           string    `json:"comments,omitempty" db:"comments"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// FeedbackFilter narrows a feedback listing. A zero filter passes everything.
type FeedbackFilter struct {
	// SearchTerm matches case-insensitively against customer name, account
	// number and coffee type, and as a plain substring against the phone.
	SearchTerm string
	// QualityRating is an exact match on the quality rating when set.
	QualityRating *int
}

// FeedbackStats are derived over the full record set on every view;
// nothing here is stored.
type FeedbackStats struct {
	TotalFeedbacks  int     `json:"total_feedbacks"`
	AverageQuality  float64 `json:"average_quality"`
	AverageDelivery float64 `json:"average_delivery"`
	RecentFeedbacks int     `json:"recent_feedbacks"` // created within the last 7 days
}
