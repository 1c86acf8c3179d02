package model

import "time"

// Entity is a followable subject, such as a player, as known to the
// entity directory.
type Entity struct {
	ID          int64  `json:"id"`
	DisplayName string `json:"display_name"`
}

// Subscription records that a subscriber follows an entity.
// (SubscriberID, EntityID) is unique.
type Subscription struct {
	// SubscriberID is the chat the notifications are delivered to.
	SubscriberID int64 `json:"subscriber_id" db:"subscriber_id"`

	// EntityID identifies the followed entity.
	EntityID int64 `json:"entity_id" db:"entity_id"`

	// DisplayName is the canonical entity name captured at follow time.
	// Unfollow matches it case-insensitively.
	DisplayName string `json:"display_name" db:"display_name"`

	// CreatedAt is when the follow was recorded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Followers is the set of subscribers following a single entity.
type Followers struct {
	DisplayName string
	// Subscribers is sorted ascending and free of duplicates.
	Subscribers []int64
}
