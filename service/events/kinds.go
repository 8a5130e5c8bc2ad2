package events

import (
	"github.com/awakari/eventsub/model/eventsub/condition"
	"github.com/awakari/eventsub/service/subscription"
)

const (
	TypeStreamOnline         = "stream.online"
	TypeStreamOffline        = "stream.offline"
	TypeChannelUpdate        = "channel.update"
	TypeChannelFollow        = "channel.follow"
	TypeRewardRedemptionAdd  = "channel.channel_points_custom_reward_redemption.add"
	TypeChatMessage          = "channel.chat.message"
	TypeDropEntitlementGrant = "drop.entitlement.grant"
)

func NewStreamOnlineKind(broadcasterId string) subscription.Kind[StreamOnline] {
	return kind[StreamOnline]{
		typ:        TypeStreamOnline,
		version:    "1",
		cliName:    TypeStreamOnline,
		cond:       condition.Broadcaster(broadcasterId),
		authUserId: broadcasterId,
		idParts:    []string{broadcasterId},
	}
}

func NewStreamOfflineKind(broadcasterId string) subscription.Kind[StreamOffline] {
	return kind[StreamOffline]{
		typ:        TypeStreamOffline,
		version:    "1",
		cliName:    TypeStreamOffline,
		cond:       condition.Broadcaster(broadcasterId),
		authUserId: broadcasterId,
		idParts:    []string{broadcasterId},
	}
}

func NewChannelUpdateKind(broadcasterId string) subscription.Kind[ChannelUpdate] {
	return kind[ChannelUpdate]{
		typ:        TypeChannelUpdate,
		version:    "2",
		cliName:    TypeChannelUpdate,
		cond:       condition.Broadcaster(broadcasterId),
		authUserId: broadcasterId,
		idParts:    []string{broadcasterId},
	}
}

func NewChannelFollowKind(broadcasterId, moderatorId string) subscription.Kind[ChannelFollow] {
	return kind[ChannelFollow]{
		typ:        TypeChannelFollow,
		version:    "2",
		cliName:    TypeChannelFollow,
		cond:       condition.Moderator(broadcasterId, moderatorId),
		authUserId: moderatorId,
		idParts:    []string{broadcasterId, moderatorId},
	}
}

// NewRewardRedemptionAddKind subscribes to the redemptions of the given reward, or any reward when rewardId is empty.
func NewRewardRedemptionAddKind(broadcasterId, rewardId string) subscription.Kind[RewardRedemptionAdd] {
	k := kind[RewardRedemptionAdd]{
		typ:        TypeRewardRedemptionAdd,
		version:    "1",
		cliName:    TypeRewardRedemptionAdd,
		cond:       condition.Broadcaster(broadcasterId),
		authUserId: broadcasterId,
		idParts:    []string{broadcasterId},
	}
	if rewardId != "" {
		k.cond = condition.Reward(broadcasterId, rewardId)
		k.idParts = append(k.idParts, rewardId)
	}
	return k
}

func NewChatMessageKind(broadcasterId, userId string) subscription.Kind[ChatMessage] {
	return kind[ChatMessage]{
		typ:        TypeChatMessage,
		version:    "1",
		cliName:    TypeChatMessage,
		cond:       condition.User(broadcasterId, userId),
		authUserId: userId,
		idParts:    []string{broadcasterId, userId},
	}
}

// NewDropEntitlementGrantKind is not related to a single user, so it's usable with the webhook transport only.
func NewDropEntitlementGrantKind(filter condition.DropEntitlementGrantFilter) subscription.Kind[[]DropEntitlementGrant] {
	return kind[[]DropEntitlementGrant]{
		typ:     TypeDropEntitlementGrant,
		version: "1",
		cliName: "drop",
		cond:    condition.DropEntitlementGrant(filter),
		idParts: []string{filter.OrganizationId, filter.CategoryId, filter.CampaignId},
	}
}
