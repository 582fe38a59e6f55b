package featureflag

// Flags are the invite-reward values delivered by remote configuration.
type Flags struct {
	InviteRewardsEnabled    bool    `json:"inviteRewardsEnabled"`
	InviteRewardCusd        float64 `json:"inviteRewardCusd"`
	InviteRewardWeeklyLimit int     `json:"inviteRewardWeeklyLimit"`
}

// Defaults seed the send state until the first remote update arrives.
var Defaults = Flags{
	InviteRewardsEnabled:    false,
	InviteRewardCusd:        1,
	InviteRewardWeeklyLimit: 20,
}
