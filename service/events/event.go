package events

import "time"

type Broadcaster struct {
	BroadcasterUserId    string `json:"broadcaster_user_id"`
	BroadcasterUserLogin string `json:"broadcaster_user_login"`
	BroadcasterUserName  string `json:"broadcaster_user_name"`
}

type User struct {
	UserId    string `json:"user_id"`
	UserLogin string `json:"user_login"`
	UserName  string `json:"user_name"`
}

type StreamOnline struct {
	Broadcaster
	Id        string    `json:"id"`
	Type      string    `json:"type"`
	StartedAt time.Time `json:"started_at"`
}

type StreamOffline struct {
	Broadcaster
}

type ChannelUpdate struct {
	Broadcaster
	Title                       string   `json:"title"`
	Language                    string   `json:"language"`
	CategoryId                  string   `json:"category_id"`
	CategoryName                string   `json:"category_name"`
	ContentClassificationLabels []string `json:"content_classification_labels"`
}

type ChannelFollow struct {
	Broadcaster
	User
	FollowedAt time.Time `json:"followed_at"`
}

type Reward struct {
	Id     string `json:"id"`
	Title  string `json:"title"`
	Cost   int    `json:"cost"`
	Prompt string `json:"prompt"`
}

type RewardRedemptionAdd struct {
	Broadcaster
	User
	Id         string    `json:"id"`
	UserInput  string    `json:"user_input"`
	Status     string    `json:"status"`
	Reward     Reward    `json:"reward"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

type ChatMessageText struct {
	Text string `json:"text"`
}

type ChatMessage struct {
	Broadcaster
	ChatterUserId    string          `json:"chatter_user_id"`
	ChatterUserLogin string          `json:"chatter_user_login"`
	ChatterUserName  string          `json:"chatter_user_name"`
	MessageId        string          `json:"message_id"`
	Message          ChatMessageText `json:"message"`
	MessageType      string          `json:"message_type"`
	Color            string          `json:"color"`
}

type DropEntitlementGrantData struct {
	User
	OrganizationId string    `json:"organization_id"`
	CategoryId     string    `json:"category_id"`
	CategoryName   string    `json:"category_name"`
	CampaignId     string    `json:"campaign_id"`
	EntitlementId  string    `json:"entitlement_id"`
	BenefitId      string    `json:"benefit_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// DropEntitlementGrant notifications come in batches, one entry per grant.
type DropEntitlementGrant struct {
	Id   string                   `json:"id"`
	Data DropEntitlementGrantData `json:"data"`
}
