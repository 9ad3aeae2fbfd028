package constants

// Pagination constants
const (
	// DefaultPage is used when page is absent, malformed or below 1
	DefaultPage = 1
	// DefaultPageSize is used when limit is absent, malformed or below 1
	DefaultPageSize = 25
	// MaxPageSize caps every bounded list query
	MaxPageSize = 100
)

// Interest graph constants
const (
	// DefaultInterestLevel is applied when a follow call carries no level
	DefaultInterestLevel = 5
	MinInterestLevel     = 1
	MaxInterestLevel     = 10
)

// Following feed tier scores. Higher wins when a post matches several facets.
const (
	TierFollowedUser    = 3
	TierInterestedTopic = 2
	TierFollowedHashtag = 1
)

// Personalized feed relevance weights
const (
	TopicInterestWeight     = 0.7
	HashtagMembershipWeight = 0.3
)

// Feed strategies
const (
	StrategyFollowing    = "following"
	StrategyPersonalized = "personalized"
)
