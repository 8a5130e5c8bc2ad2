package condition

import "fmt"

// Condition is the flat filter payload of a create subscription request.
// Field names are consumed verbatim by the remote registry.
type Condition map[string]string

const (
	KeyBroadcasterUserId = "broadcaster_user_id"
	KeyRewardId          = "reward_id"
	KeyModeratorUserId   = "moderator_user_id"
	KeyUserId            = "user_id"
	KeyOrganizationId    = "organization_id"
	KeyCategoryId        = "category_id"
	KeyCampaignId        = "campaign_id"
)

// DropEntitlementGrantFilter selects the drop entitlement grants to receive. Empty fields are not sent.
type DropEntitlementGrantFilter struct {
	OrganizationId string
	CategoryId     string
	CampaignId     string
}

func Broadcaster(broadcasterId string) Condition {
	return Condition{
		KeyBroadcasterUserId: broadcasterId,
	}
}

func Reward(broadcasterId, rewardId string) Condition {
	return Condition{
		KeyBroadcasterUserId: broadcasterId,
		KeyRewardId:          rewardId,
	}
}

func Moderator(broadcasterId, moderatorId string) Condition {
	return Condition{
		KeyBroadcasterUserId: broadcasterId,
		KeyModeratorUserId:   moderatorId,
	}
}

func User(broadcasterId, userId string) Condition {
	return Condition{
		KeyBroadcasterUserId: broadcasterId,
		KeyUserId:            userId,
	}
}

func DropEntitlementGrant(filter DropEntitlementGrantFilter) (c Condition) {
	c = Condition{}
	if filter.OrganizationId != "" {
		c[KeyOrganizationId] = filter.OrganizationId
	}
	if filter.CategoryId != "" {
		c[KeyCategoryId] = filter.CategoryId
	}
	if filter.CampaignId != "" {
		c[KeyCampaignId] = filter.CampaignId
	}
	return
}

// Matches reports whether the remote free-form condition selects the same entities.
// Remote keys with empty or null values count as absent.
func (c Condition) Matches(remote map[string]any) bool {
	count := 0
	for k, v := range remote {
		var s string
		switch tv := v.(type) {
		case nil:
		case string:
			s = tv
		default:
			s = fmt.Sprint(tv)
		}
		if s == "" {
			continue
		}
		if c[k] != s {
			return false
		}
		count++
	}
	for _, v := range c {
		if v == "" {
			count++
		}
	}
	return count == len(c)
}
